package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// Build creates a level-level character of race and class with full pools.
// Stats are ruleset.BaseStats adjusted by the race; max HP is
// level * (class HP per level + might bonus), never below 1, and only
// spellcasting classes get SP.
func Build(name string, race *ruleset.Race, class *ruleset.Class, level int) (*Character, error) {
	switch {
	case name == "":
		return nil, errors.New("character: name must not be empty")
	case race == nil || class == nil:
		return nil, fmt.Errorf("character %q: race and class are required", name)
	case level < 1:
		return nil, fmt.Errorf("character %q: level must be >= 1, got %d", name, level)
	}

	c := &Character{
		Name:  name,
		Race:  race.ID,
		Class: class.ID,
		Level: level,
		Stats: ruleset.BaseStats.Apply(race.Modifiers),
	}
	c.MaxHP = max(1, level*(class.HitPointsPerLevel+ruleset.ScoreBonus(c.Stats.Might)))
	if class.SpellSchool != "" {
		c.MaxSP = level * class.SpellPointsPerLevel
	}
	return c, nil
}

// Complete derives the pools of every member whose entry leaves max_hp out,
// as Build would for that member's race, class and level. Stats written in
// the entry are kept; omitted stats come from Build as well.
func (p *PartySnapshot) Complete(rules *ruleset.Registry) error {
	for i := range p.Members {
		m := &p.Members[i]
		if m.MaxHP != 0 {
			continue
		}
		race, ok := rules.Race(m.Race)
		if !ok {
			return fmt.Errorf("party: member[%d] %q: unknown race %q", i, m.Name, m.Race)
		}
		class, ok := rules.Class(m.Class)
		if !ok {
			return fmt.Errorf("party: member[%d] %q: unknown class %q", i, m.Name, m.Class)
		}
		built, err := Build(m.Name, race, class, m.Level)
		if err != nil {
			return fmt.Errorf("party: member[%d]: %w", i, err)
		}
		if m.Stats == (ruleset.Stats{}) {
			m.Stats = built.Stats
		}
		m.MaxHP, m.MaxSP = built.MaxHP, built.MaxSP
	}
	return nil
}
