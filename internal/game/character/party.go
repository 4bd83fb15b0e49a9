package character

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// MaxPartySize is the largest party that may enter an encounter.
const MaxPartySize = 6

// PartySnapshot is the party as it stands when an encounter begins. The engine
// copies it; changes made during combat never flow back into the snapshot.
type PartySnapshot struct {
	Members []Character `yaml:"members"`
}

// Validate checks the party size and every member.
func (p PartySnapshot) Validate() error {
	if len(p.Members) == 0 {
		return fmt.Errorf("party: at least one member is required")
	}
	if len(p.Members) > MaxPartySize {
		return fmt.Errorf("party: at most %d members allowed, got %d", MaxPartySize, len(p.Members))
	}
	for i := range p.Members {
		if err := p.Members[i].Validate(); err != nil {
			return fmt.Errorf("party: member[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadParty reads a party file, completes members that leave their pools to
// the ruleset and validates the result.
func LoadParty(path string, rules *ruleset.Registry) (PartySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PartySnapshot{}, fmt.Errorf("reading party file %q: %w", path, err)
	}
	var p PartySnapshot
	if err := yaml.Unmarshal(data, &p); err != nil {
		return PartySnapshot{}, fmt.Errorf("parsing party file %q: %w", path, err)
	}
	if err := p.Complete(rules); err != nil {
		return PartySnapshot{}, fmt.Errorf("party file %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return PartySnapshot{}, fmt.Errorf("validating party file %q: %w", path, err)
	}
	return p, nil
}
