// Package npc provides monster template definitions and loot generation.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// Attack is one of a monster's natural attacks.
type Attack struct {
	Name              string          `yaml:"name"`
	Damage            dice.Expression `yaml:"damage"`
	Element           string          `yaml:"element"`
	Condition         string          `yaml:"condition"` // applied to the target on hit
	ConditionDuration int             `yaml:"condition_duration"`
}

// ItemStack is an item a monster carries into battle.
type ItemStack struct {
	ItemID   string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Template defines a reusable monster archetype loaded from YAML.
type Template struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Level       int           `yaml:"level"`
	MaxHP       int           `yaml:"max_hp"`
	MaxSP       int           `yaml:"max_sp"`
	Gems        int           `yaml:"gems"`
	Stats       ruleset.Stats `yaml:"stats"`
	Attacks     []Attack      `yaml:"attacks"`
	// SpecialAttack is used instead of the first attack SpecialAttackChance
	// percent of the time.
	SpecialAttack       *Attack     `yaml:"special_attack"`
	SpecialAttackChance int         `yaml:"special_attack_chance"`
	Strategy            string      `yaml:"strategy"` // "aggressive" | "defensive" | "random"; empty = aggressive
	Spells              []string    `yaml:"spells"`
	Items               []ItemStack `yaml:"items"`
	// Regenerates is the HP restored at the end of each round while alive.
	Regenerates int        `yaml:"regenerates"`
	Experience  int        `yaml:"experience"`
	Loot        *LootTable `yaml:"loot"`
	// Immunities lists elements whose damage and conditions have no effect.
	Immunities []string `yaml:"immunities"`
	// MagicResistance is the percent chance a hostile spell has no effect at all.
	MagicResistance int `yaml:"magic_resistance"`
}

// Validate reports every problem with t at once.
func (t *Template) Validate() error {
	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if t.ID == "" {
		bad("id must not be empty")
	}
	if t.Name == "" {
		bad("name must not be empty")
	}
	if t.Level < 1 {
		bad("level %d is below 1", t.Level)
	}
	if t.MaxHP < 1 {
		bad("max_hp %d is below 1", t.MaxHP)
	}
	counts := []struct {
		field string
		v     int
	}{{"max_sp", t.MaxSP}, {"gems", t.Gems}, {"experience", t.Experience}, {"regenerates", t.Regenerates}}
	for _, c := range counts {
		if c.v < 0 {
			bad("%s %d is negative", c.field, c.v)
		}
	}
	if len(t.Attacks) == 0 {
		bad("at least one attack is required")
	}
	for i, a := range t.Attacks {
		if a.Damage.Count == 0 && a.Damage.Modifier <= 0 {
			bad("attacks[%d] %q deals no damage", i, a.Name)
		}
	}
	if t.MagicResistance < 0 || t.MagicResistance > 100 {
		bad("magic_resistance %d is outside [0, 100]", t.MagicResistance)
	}
	for i, el := range t.Immunities {
		if el == "" {
			bad("immunities[%d] must not be empty", i)
		}
	}
	switch {
	case t.SpecialAttackChance < 0 || t.SpecialAttackChance > 100:
		bad("special_attack_chance %d is outside [0, 100]", t.SpecialAttackChance)
	case t.SpecialAttackChance > 0 && t.SpecialAttack == nil:
		bad("special_attack_chance set without special_attack")
	}
	for i, it := range t.Items {
		if it.ItemID == "" || it.Quantity < 1 {
			bad("items[%d] needs an item id and a quantity of at least 1", i)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("monster %q: %w", t.ID, err)
	}
	return nil
}

// LoadTemplates parses every *.yaml file in dir, one template per file, in
// name order. Any unreadable or invalid file fails the whole load.
func LoadTemplates(dir string) ([]*Template, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("npc: listing %q: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("npc: %w", err)
	}
	sort.Strings(paths)

	out := make([]*Template, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("npc: %w", err)
		}
		tmpl := new(Template)
		if err := yaml.Unmarshal(data, tmpl); err != nil {
			return nil, fmt.Errorf("npc: parsing %s: %w", filepath.Base(path), err)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("npc: %s: %w", filepath.Base(path), err)
		}
		out = append(out, tmpl)
	}
	return out, nil
}

// Registry is the read-only set of loaded templates.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry indexes templates by ID, rejecting duplicates.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.templates[t.ID]; dup {
			return nil, fmt.Errorf("npc: duplicate template id %q", t.ID)
		}
		r.templates[t.ID] = t
	}
	return r, nil
}

// Get returns the template for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// IDs returns all template IDs in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.templates))
	for id := range r.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
