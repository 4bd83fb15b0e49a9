package combat

import (
	"errors"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// TickHook runs a named per-round condition script. A positive result is extra
// damage, a negative result is healing.
type TickHook interface {
	OnTick(hook, combatant string, hp, maxHP, round int) (int, error)
}

// Rules is the read-only reference data the engine consults. It is never mutated.
type Rules struct {
	Conditions *condition.Registry
	Spells     *magic.Registry
	Items      *inventory.Registry
	Classes    *ruleset.Registry
	// Hook runs lua_on_tick scripts; nil disables them.
	Hook TickHook
}

// Validate reports missing registries.
func (r *Rules) Validate() error {
	var errs []error
	if r.Conditions == nil {
		errs = append(errs, errors.New("rules: condition registry is required"))
	}
	if r.Spells == nil {
		errs = append(errs, errors.New("rules: spell registry is required"))
	}
	if r.Items == nil {
		errs = append(errs, errors.New("rules: item registry is required"))
	}
	if r.Classes == nil {
		errs = append(errs, errors.New("rules: class registry is required"))
	}
	return errors.Join(errs...)
}

// defendingDef is used when the condition registry does not define "defending".
var defendingDef = &condition.Definition{
	ID:              condition.Defending,
	Name:            "Defending",
	Description:     "Braced against attack until the defender's next turn.",
	DurationType:    condition.DurationRounds,
	DefaultDuration: defendRounds,
	Modifiers:       condition.Modifiers{Evasion: 4, DamageReduction: 2},
}

func (r *Rules) defending() *condition.Definition {
	if def, ok := r.Conditions.Get(condition.Defending); ok {
		return def
	}
	return defendingDef
}
