package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// NewPlayer builds the combatant for the index-th party member. The character is
// copied; nothing done to the combatant flows back into ch.
//
// Precondition: rules must be complete.
// Postcondition: a member entering at 0 HP starts Unconscious.
func NewPlayer(index int, ch character.Character, rules *Rules) (*Combatant, error) {
	class, ok := rules.Classes.Class(ch.Class)
	if !ok {
		return nil, fmt.Errorf("party member %q: unknown class %q", ch.Name, ch.Class)
	}
	race, ok := rules.Classes.Race(ch.Race)
	if !ok {
		return nil, fmt.Errorf("party member %q: unknown race %q", ch.Name, ch.Race)
	}
	pack, err := buildBackpack(ch.Items, rules)
	if err != nil {
		return nil, fmt.Errorf("party member %q: %w", ch.Name, err)
	}
	c := &Combatant{
		ID:         PlayerID(index),
		Name:       ch.Name,
		Class:      ch.Class,
		Race:       ch.Race,
		Level:      ch.Level,
		HP:         Pool{Current: ch.HP(), Max: ch.MaxHP},
		SP:         Pool{Current: ch.SP(), Max: ch.MaxSP},
		Gems:       ch.Gems,
		Stats:      ch.Stats,
		Weapon:     class.Weapon(),
		Immunities: append([]string(nil), race.Immunities...),
		Inventory:  pack,
		Conditions: condition.NewActiveSet(),
	}
	if c.HP.Current == 0 {
		c.Lifecycle = Unconscious
	}
	return c, nil
}

// NewMonster builds the combatant for the index-th monster from its template.
// name distinguishes monsters that share a template.
func NewMonster(index int, name string, tmpl *npc.Template, rules *Rules) (*Combatant, error) {
	stacks := make([]character.ItemStack, 0, len(tmpl.Items))
	for _, it := range tmpl.Items {
		stacks = append(stacks, character.ItemStack{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	pack, err := buildBackpack(stacks, rules)
	if err != nil {
		return nil, fmt.Errorf("monster %q: %w", tmpl.ID, err)
	}
	for _, id := range tmpl.Spells {
		if _, ok := rules.Spells.Get(id); !ok {
			return nil, fmt.Errorf("monster %q: unknown spell %q", tmpl.ID, id)
		}
	}
	c := &Combatant{
		ID:                  MonsterID(index),
		Name:                name,
		TemplateID:          tmpl.ID,
		Level:               tmpl.Level,
		HP:                  Pool{Current: tmpl.MaxHP, Max: tmpl.MaxHP},
		SP:                  Pool{Current: tmpl.MaxSP, Max: tmpl.MaxSP},
		Gems:                tmpl.Gems,
		Stats:               tmpl.Stats,
		Attacks:             append([]npc.Attack(nil), tmpl.Attacks...),
		SpecialAttackChance: tmpl.SpecialAttackChance,
		Spells:              append([]string(nil), tmpl.Spells...),
		Regenerates:         tmpl.Regenerates,
		Strategy:            tmpl.Strategy,
		Immunities:          append([]string(nil), tmpl.Immunities...),
		MagicResistance:     tmpl.MagicResistance,
		Inventory:           pack,
		Conditions:          condition.NewActiveSet(),
	}
	if tmpl.SpecialAttack != nil {
		sa := *tmpl.SpecialAttack
		c.SpecialAttack = &sa
	}
	return c, nil
}

func buildBackpack(stacks []character.ItemStack, rules *Rules) (*inventory.Backpack, error) {
	pack := inventory.NewBackpack()
	for _, st := range stacks {
		def, ok := rules.Items.Item(st.ItemID)
		if !ok {
			return nil, fmt.Errorf("unknown item %q", st.ItemID)
		}
		if err := pack.Add(def, st.Quantity); err != nil {
			return nil, err
		}
	}
	return pack, nil
}

// monsterNames numbers monsters that share a template: "Goblin 1", "Goblin 2".
func monsterNames(templates []*npc.Template) []string {
	counts := make(map[string]int)
	for _, t := range templates {
		counts[t.ID]++
	}
	seen := make(map[string]int)
	names := make([]string, len(templates))
	for i, t := range templates {
		if counts[t.ID] == 1 {
			names[i] = t.Name
			continue
		}
		seen[t.ID]++
		names[i] = fmt.Sprintf("%s %d", t.Name, seen[t.ID])
	}
	return names
}
