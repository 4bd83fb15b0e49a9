// Package character defines the persistent party data handed to the combat
// engine at the start of an encounter.
package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// ItemStack is a carried item and how many of it.
type ItemStack struct {
	ItemID   string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Character represents a party member's persistent state.
//
// CurrentHP and CurrentSP are pointers so that an omitted value in a party file
// means "full" while an explicit zero means "unconscious" or "drained".
type Character struct {
	Name       string        `yaml:"name"`
	Race       string        `yaml:"race"`  // race ID
	Class      string        `yaml:"class"` // class ID
	Level      int           `yaml:"level"`
	Experience int           `yaml:"experience"`
	Stats      ruleset.Stats `yaml:"stats"`
	MaxHP      int           `yaml:"max_hp"`
	CurrentHP  *int          `yaml:"hp"`
	MaxSP      int           `yaml:"max_sp"`
	CurrentSP  *int          `yaml:"sp"`
	Gems       int           `yaml:"gems"`
	Gold       int           `yaml:"gold"`
	Items      []ItemStack   `yaml:"items"`
}

// HP returns the current hit points, defaulting to MaxHP.
func (c *Character) HP() int {
	if c.CurrentHP == nil {
		return c.MaxHP
	}
	return *c.CurrentHP
}

// SP returns the current spell points, defaulting to MaxSP.
func (c *Character) SP() int {
	if c.CurrentSP == nil {
		return c.MaxSP
	}
	return *c.CurrentSP
}

// Validate checks the character's invariants.
//
// Postcondition: Returns nil iff Name, Race and Class are set, Level >= 1, MaxHP >= 1
// and current pools lie within [0, max].
func (c *Character) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.Race == "" || c.Class == "" {
		errs = append(errs, errors.New("race and class must not be empty"))
	}
	if c.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", c.Level))
	}
	if c.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("max_hp must be >= 1, got %d", c.MaxHP))
	}
	if hp := c.HP(); hp < 0 || hp > c.MaxHP {
		errs = append(errs, fmt.Errorf("hp %d outside [0, %d]", hp, c.MaxHP))
	}
	if sp := c.SP(); c.MaxSP < 0 || sp < 0 || sp > c.MaxSP {
		errs = append(errs, fmt.Errorf("sp %d outside [0, %d]", sp, c.MaxSP))
	}
	if c.Gems < 0 || c.Gold < 0 {
		errs = append(errs, errors.New("gems and gold must be >= 0"))
	}
	for i, it := range c.Items {
		if it.ItemID == "" || it.Quantity < 1 {
			errs = append(errs, fmt.Errorf("items[%d] needs an item id and quantity >= 1", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("character %q: %w", c.Name, err)
	}
	return nil
}
