package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
)

// Effect kinds for ItemDef.Effect.Kind.
const (
	EffectHealHP         = "heal_hp"
	EffectRestoreSP      = "restore_sp"
	EffectCureCondition  = "cure_condition"
	EffectApplyCondition = "apply_condition"
	EffectDamage         = "damage"
	EffectRevive         = "revive"
)

var validEffects = map[string]bool{
	EffectHealHP:         true,
	EffectRestoreSP:      true,
	EffectCureCondition:  true,
	EffectApplyCondition: true,
	EffectDamage:         true,
	EffectRevive:         true,
}

// Effect describes what an item does when used.
type Effect struct {
	Kind      string          `yaml:"kind"`
	Amount    dice.Expression `yaml:"amount"`
	Element   string          `yaml:"element"`
	Condition string          `yaml:"condition"`
	Duration  int             `yaml:"duration"`
	Magnitude float64         `yaml:"magnitude"`
}

// ItemDef defines the static properties of an item loaded from YAML.
//
// Charge-based items (Charges > 0) lose one charge per use; other items are
// single-use and lose one unit of quantity.
type ItemDef struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	CombatUsable bool     `yaml:"combat_usable"`
	Charges      int      `yaml:"charges"`
	Rechargeable bool     `yaml:"rechargeable"`
	Tags         []string `yaml:"tags"`
	Target       string   `yaml:"target"`
	Effect       Effect   `yaml:"effect"`
	Value        int      `yaml:"value"`
}

// ChargeBased reports whether uses are tracked as charges rather than quantity.
func (d *ItemDef) ChargeBased() bool { return d.Charges > 0 }

// Revives reports whether the item can target unconscious allies.
func (d *ItemDef) Revives() bool { return d.Effect.Kind == EffectRevive }

func (e Effect) validate() error {
	if !validEffects[e.Kind] {
		return fmt.Errorf("unknown effect %q", e.Kind)
	}
	switch e.Kind {
	case EffectCureCondition, EffectApplyCondition:
		if e.Condition == "" {
			return fmt.Errorf("%s names no condition", e.Kind)
		}
	case EffectHealHP, EffectRestoreSP, EffectDamage:
		if e.Amount.IsZero() {
			return fmt.Errorf("%s has no amount", e.Kind)
		}
	}
	return nil
}

// Validate reports every problem with d. Items that cannot be used in combat
// need no effect or target.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch {
	case d.Charges < 0:
		errs = append(errs, fmt.Errorf("charges %d is negative", d.Charges))
	case d.Rechargeable && d.Charges == 0:
		errs = append(errs, errors.New("rechargeable items need charges"))
	}
	if d.CombatUsable {
		if err := d.Effect.validate(); err != nil {
			errs = append(errs, err)
		}
		if !magic.ValidTarget(d.Target) {
			errs = append(errs, fmt.Errorf("unknown target %q", d.Target))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("item %q: %w", d.ID, err)
	}
	return nil
}
