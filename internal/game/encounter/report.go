package encounter

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/reward"
)

// Report is the post-combat record of one encounter, suitable for display or
// archiving.
type Report struct {
	ID      uuid.UUID
	Final   combat.Snapshot
	Events  []combat.Event
	Rewards *reward.Bundle // nil unless the party won
}

// Report captures the encounter as it stands now.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Report{
		ID:      s.id,
		Final:   s.state.Snapshot(),
		Events:  append([]combat.Event(nil), s.log...),
		Rewards: s.rewards,
	}
}
