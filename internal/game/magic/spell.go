// Package magic defines spells, their schools, casting contexts and target kinds.
package magic

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Spell schools.
const (
	SchoolCleric   = "cleric"
	SchoolSorcerer = "sorcerer"
)

// Casting contexts.
const (
	ContextAnytime       = "anytime"
	ContextCombatOnly    = "combat_only"
	ContextNonCombatOnly = "non_combat_only"
	ContextOutdoorOnly   = "outdoor_only"
	ContextIndoorOnly    = "indoor_only"
	ContextOutdoorCombat = "outdoor_combat"
)

// Target kinds, shared by spells and usable items.
const (
	TargetSelf        = "self"
	TargetSingleAlly  = "single_ally"
	TargetAllAllies   = "all_allies"
	TargetSingleEnemy = "single_enemy"
	TargetAllEnemies  = "all_enemies"
)

// MaxTier is the highest spell tier.
const MaxTier = 7

var validContexts = map[string]bool{
	ContextAnytime: true, ContextCombatOnly: true, ContextNonCombatOnly: true,
	ContextOutdoorOnly: true, ContextIndoorOnly: true, ContextOutdoorCombat: true,
}

// ValidTarget reports whether t is a known target kind.
func ValidTarget(t string) bool {
	switch t {
	case TargetSelf, TargetSingleAlly, TargetAllAllies, TargetSingleEnemy, TargetAllEnemies:
		return true
	}
	return false
}

// TargetsEnemies reports whether target kind t selects opposing combatants.
func TargetsEnemies(t string) bool { return t == TargetSingleEnemy || t == TargetAllEnemies }

// IsAreaTarget reports whether target kind t affects a whole side.
func IsAreaTarget(t string) bool { return t == TargetAllAllies || t == TargetAllEnemies }

// NeedsExplicitTarget reports whether target kind t requires the caster to name a target.
func NeedsExplicitTarget(t string) bool { return t == TargetSingleAlly || t == TargetSingleEnemy }

// Spell is an immutable spell definition loaded from YAML.
type Spell struct {
	ID                string          `yaml:"id"`
	Name              string          `yaml:"name"`
	Description       string          `yaml:"description"`
	School            string          `yaml:"school"`
	Tier              int             `yaml:"tier"`
	SPCost            int             `yaml:"sp_cost"`
	GemCost           int             `yaml:"gem_cost"`
	Context           string          `yaml:"context"`
	Target            string          `yaml:"target"`
	Damage            dice.Expression `yaml:"damage"`
	Heal              dice.Expression `yaml:"heal"`
	Element           string          `yaml:"element"`
	Condition         string          `yaml:"condition"`
	ConditionDuration int             `yaml:"condition_duration"`
	Magnitude         float64         `yaml:"magnitude"`
	SavingThrow       bool            `yaml:"saving_throw"`
}

// Validate checks the spell for internal consistency.
//
// Postcondition: Returns nil iff every field constraint holds; all violations are reported together.
func (s *Spell) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if s.School != SchoolCleric && s.School != SchoolSorcerer {
		errs = append(errs, fmt.Errorf("school must be %q or %q, got %q", SchoolCleric, SchoolSorcerer, s.School))
	}
	if s.Tier < 1 || s.Tier > MaxTier {
		errs = append(errs, fmt.Errorf("tier must be in [1, %d], got %d", MaxTier, s.Tier))
	}
	if s.SPCost < 0 || s.GemCost < 0 {
		errs = append(errs, errors.New("sp_cost and gem_cost must be >= 0"))
	}
	if !validContexts[s.Context] {
		errs = append(errs, fmt.Errorf("unknown context %q", s.Context))
	}
	if !ValidTarget(s.Target) {
		errs = append(errs, fmt.Errorf("unknown target %q", s.Target))
	}
	if s.Damage.IsZero() && s.Heal.IsZero() && s.Condition == "" {
		errs = append(errs, errors.New("spell must deal damage, heal, or apply a condition"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("spell %q: %w", s.ID, err)
	}
	return nil
}

// RequiredLevel returns the minimum caster level for the spell's tier:
// tier 1 at level 1, tier 2 at level 3, and so on in steps of two.
func (s *Spell) RequiredLevel() int {
	if s.Tier < 1 {
		return 1
	}
	return 2*s.Tier - 1
}

// PermitsCombat reports whether the spell may be cast during an encounter.
func (s *Spell) PermitsCombat() bool {
	return s.Context != ContextNonCombatOnly
}

// PermitsLocation reports whether the spell may be cast given the encounter's setting.
func (s *Spell) PermitsLocation(outdoors bool) bool {
	switch s.Context {
	case ContextOutdoorOnly, ContextOutdoorCombat:
		return outdoors
	case ContextIndoorOnly:
		return !outdoors
	}
	return true
}

// IsHealing reports whether the spell restores hit points.
func (s *Spell) IsHealing() bool { return !s.Heal.IsZero() }
