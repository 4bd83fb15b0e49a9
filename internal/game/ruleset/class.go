// Package ruleset holds the class and race eligibility rules consulted when
// validating spells and items.
package ruleset

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// DefaultWeaponDamage is used for classes that do not declare weapon_damage.
var DefaultWeaponDamage = dice.MustParse("1d4")

// Class is a playable character class.
type Class struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// SpellSchool is the school the class casts from; empty means no spellcasting.
	SpellSchool string `yaml:"spell_school"`
	// SpellAccessLevel is the minimum character level before the class may cast
	// at all. Hybrid classes such as paladins gain spells late.
	SpellAccessLevel    int             `yaml:"spell_access_level"`
	HitPointsPerLevel   int             `yaml:"hit_points_per_level"`
	SpellPointsPerLevel int             `yaml:"spell_points_per_level"`
	WeaponDamage        dice.Expression `yaml:"weapon_damage"`
	ForbiddenTags       []string        `yaml:"forbidden_item_tags"`
}

// Validate reports every problem with the class.
func (c *Class) Validate() error {
	var errs []error
	if c.ID == "" || c.Name == "" {
		errs = append(errs, errors.New("id and name must not be empty"))
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"spell_access_level", c.SpellAccessLevel},
		{"hit_points_per_level", c.HitPointsPerLevel},
		{"spell_points_per_level", c.SpellPointsPerLevel},
	} {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", f.name, f.v))
		}
	}
	if c.SpellSchool == "" && c.SpellPointsPerLevel > 0 {
		errs = append(errs, errors.New("spell_points_per_level set without a spell_school"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("class %q: %w", c.ID, err)
	}
	return nil
}

// CanCast reports whether the class casts spells from school.
func (c *Class) CanCast(school string) bool {
	return c.SpellSchool != "" && c.SpellSchool == school
}

// RequiredLevel is the character level needed to cast a spell of spellLevel
// as this class.
func (c *Class) RequiredLevel(spellLevel int) int {
	return max(spellLevel, c.SpellAccessLevel)
}

// Weapon returns the damage expression used by the class's basic attack.
func (c *Class) Weapon() dice.Expression {
	if c.WeaponDamage.Count == 0 {
		return DefaultWeaponDamage
	}
	return c.WeaponDamage
}

// LoadClasses reads every class file in dir.
func LoadClasses(dir string) ([]*Class, error) {
	return loadDir[Class](dir, "class")
}
