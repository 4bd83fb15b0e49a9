// Package testutil provides shared content fixtures and a PostgreSQL test
// container for repository tests.
package testutil

import (
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// Conditions returns the fixture condition registry: poisoned, regenerating,
// silenced, paralyzed, asleep and cursed.
func Conditions() *condition.Registry {
	reg := condition.NewRegistry()
	for _, d := range []*condition.Definition{
		{ID: "poisoned", Name: "Poisoned", DurationType: condition.DurationRounds, DefaultDuration: 3, DamageOverTime: dice.MustParse("1d4"), Element: "poison"},
		{ID: "regenerating", Name: "Regenerating", DurationType: condition.DurationRounds, DefaultDuration: 3, HealOverTime: dice.MustParse("2")},
		{ID: "silenced", Name: "Silenced", DurationType: condition.DurationRounds, DefaultDuration: 2, Silenced: true},
		{ID: "paralyzed", Name: "Paralyzed", DurationType: condition.DurationRounds, DefaultDuration: 1, Paralyzed: true},
		{ID: "asleep", Name: "Asleep", DurationType: condition.DurationRounds, DefaultDuration: 2, Asleep: true},
		{ID: "cursed", Name: "Cursed", DurationType: condition.DurationPermanent, Modifiers: condition.Modifiers{Accuracy: -2, Speed: -2}},
	} {
		reg.Register(d)
	}
	return reg
}

// Spells returns the fixture spell registry.
func Spells() *magic.Registry {
	reg := magic.NewRegistry()
	for _, s := range []*magic.Spell{
		{ID: "cure_light", Name: "Cure Light Wounds", School: magic.SchoolCleric, Tier: 1, SPCost: 2, Context: magic.ContextAnytime, Target: magic.TargetSingleAlly, Heal: dice.MustParse("2d4+2")},
		{ID: "mass_cure", Name: "Mass Cure", School: magic.SchoolCleric, Tier: 3, SPCost: 6, Context: magic.ContextAnytime, Target: magic.TargetAllAllies, Heal: dice.MustParse("1d8")},
		{ID: "recall", Name: "Word of Recall", School: magic.SchoolCleric, Tier: 1, SPCost: 1, Context: magic.ContextNonCombatOnly, Target: magic.TargetSelf, Heal: dice.MustParse("1")},
		{ID: "fire_bolt", Name: "Fire Bolt", School: magic.SchoolSorcerer, Tier: 1, SPCost: 3, Context: magic.ContextAnytime, Target: magic.TargetSingleEnemy, Damage: dice.MustParse("2d6"), Element: "fire"},
		{ID: "fireball", Name: "Fireball", School: magic.SchoolSorcerer, Tier: 2, SPCost: 6, GemCost: 1, Context: magic.ContextCombatOnly, Target: magic.TargetAllEnemies, Damage: dice.MustParse("3d6"), Element: "fire", SavingThrow: true},
		{ID: "sunburst", Name: "Sunburst", School: magic.SchoolSorcerer, Tier: 1, SPCost: 2, Context: magic.ContextOutdoorOnly, Target: magic.TargetSingleEnemy, Damage: dice.MustParse("1d6")},
		{ID: "hush", Name: "Hush", School: magic.SchoolSorcerer, Tier: 1, SPCost: 2, Context: magic.ContextCombatOnly, Target: magic.TargetSingleEnemy, Condition: "silenced", ConditionDuration: 2},
		{ID: "venom", Name: "Venom", School: magic.SchoolSorcerer, Tier: 1, SPCost: 2, Context: magic.ContextCombatOnly, Target: magic.TargetSingleEnemy, Condition: "poisoned", Magnitude: 2},
	} {
		if err := reg.Register(s); err != nil {
			panic(err)
		}
	}
	return reg
}

// Items returns the fixture item registry.
func Items() *inventory.Registry {
	reg := inventory.NewRegistry()
	for _, d := range []*inventory.ItemDef{
		{ID: "healing_potion", Name: "Healing Potion", CombatUsable: true, Target: magic.TargetSingleAlly, Value: 25,
			Effect: inventory.Effect{Kind: inventory.EffectHealHP, Amount: dice.MustParse("10")}},
		{ID: "mana_potion", Name: "Mana Potion", CombatUsable: true, Target: magic.TargetSelf, Value: 40,
			Effect: inventory.Effect{Kind: inventory.EffectRestoreSP, Amount: dice.MustParse("5")}},
		{ID: "antidote", Name: "Antidote", CombatUsable: true, Target: magic.TargetSingleAlly, Value: 10,
			Effect: inventory.Effect{Kind: inventory.EffectCureCondition, Condition: "poisoned"}},
		{ID: "phoenix_feather", Name: "Phoenix Feather", CombatUsable: true, Target: magic.TargetSingleAlly, Value: 200,
			Effect: inventory.Effect{Kind: inventory.EffectRevive, Amount: dice.MustParse("5")}},
		{ID: "fire_wand", Name: "Wand of Fire", CombatUsable: true, Charges: 2, Target: magic.TargetSingleEnemy, Tags: []string{"arcane"}, Value: 150,
			Effect: inventory.Effect{Kind: inventory.EffectDamage, Amount: dice.MustParse("4"), Element: "fire"}},
		{ID: "staff_of_sleep", Name: "Staff of Sleep", CombatUsable: true, Charges: 1, Rechargeable: true, Target: magic.TargetAllEnemies, Value: 300,
			Effect: inventory.Effect{Kind: inventory.EffectApplyCondition, Condition: "asleep", Duration: 1}},
		{ID: "holy_water", Name: "Holy Water", CombatUsable: true, Target: magic.TargetSingleEnemy, Tags: []string{"holy"}, Value: 15,
			Effect: inventory.Effect{Kind: inventory.EffectDamage, Amount: dice.MustParse("6")}},
		{ID: "lantern", Name: "Lantern", Value: 5},
	} {
		if err := reg.RegisterItem(d); err != nil {
			panic(err)
		}
	}
	return reg
}

// Classes returns the fixture class and race registry. Paladins cast cleric
// spells from level 3; dwarves may not use arcane items; sorcerers may not use
// holy items.
func Classes() *ruleset.Registry {
	reg := ruleset.NewRegistry()
	reg.RegisterClass(&ruleset.Class{ID: "fighter", Name: "Fighter", HitPointsPerLevel: 10, WeaponDamage: dice.MustParse("1d8")})
	reg.RegisterClass(&ruleset.Class{ID: "cleric", Name: "Cleric", SpellSchool: magic.SchoolCleric, HitPointsPerLevel: 6, SpellPointsPerLevel: 3, WeaponDamage: dice.MustParse("1d6")})
	reg.RegisterClass(&ruleset.Class{ID: "paladin", Name: "Paladin", SpellSchool: magic.SchoolCleric, SpellAccessLevel: 3, HitPointsPerLevel: 8, SpellPointsPerLevel: 1, WeaponDamage: dice.MustParse("1d8")})
	reg.RegisterClass(&ruleset.Class{ID: "sorcerer", Name: "Sorcerer", SpellSchool: magic.SchoolSorcerer, HitPointsPerLevel: 4, SpellPointsPerLevel: 4, ForbiddenTags: []string{"holy"}})
	reg.RegisterRace(&ruleset.Race{ID: "human", Name: "Human"})
	reg.RegisterRace(&ruleset.Race{ID: "elf", Name: "Elf", Modifiers: map[string]int{"speed": 2, "evasion": 1}})
	reg.RegisterRace(&ruleset.Race{ID: "dwarf", Name: "Dwarf", Modifiers: map[string]int{"might": 2, "speed": -1}, ForbiddenTags: []string{"arcane"}, Immunities: []string{"poison"}})
	return reg
}

// Rules returns a complete fixture rule set without a script hook.
func Rules() *combat.Rules {
	return &combat.Rules{
		Conditions: Conditions(),
		Spells:     Spells(),
		Items:      Items(),
		Classes:    Classes(),
	}
}

// Member returns a party member with base stats adjusted for race, hp max HP,
// sp max SP and no items.
func Member(name, race, class string, level, hp, sp int) character.Character {
	stats := ruleset.BaseStats
	if r, ok := Classes().Race(race); ok {
		stats = stats.Apply(r.Modifiers)
	}
	return character.Character{
		Name:  name,
		Race:  race,
		Class: class,
		Level: level,
		Stats: stats,
		MaxHP: hp,
		MaxSP: sp,
	}
}

// Party wraps members in a snapshot.
func Party(members ...character.Character) character.PartySnapshot {
	return character.PartySnapshot{Members: members}
}

// Monster returns a simple monster template with one attack.
func Monster(id string, level, hp, speed int, attack string) *npc.Template {
	return &npc.Template{
		ID:         id,
		Name:       id,
		Level:      level,
		MaxHP:      hp,
		Stats:      ruleset.Stats{Speed: speed, Might: 10, Luck: 10},
		Attacks:    []npc.Attack{{Name: "claw", Damage: dice.MustParse(attack)}},
		Experience: 10 * level,
	}
}

// Goblin is a weak, slow monster.
func Goblin() *npc.Template {
	t := Monster("goblin", 1, 6, 8, "1d4")
	t.Name = "Goblin"
	t.Loot = &npc.LootTable{Currency: &npc.CurrencyDrop{Min: 1, Max: 10}}
	return t
}

// Shaman is a defensive caster carrying a healing potion.
func Shaman() *npc.Template {
	t := Monster("shaman", 2, 10, 9, "1d4")
	t.Name = "Goblin Shaman"
	t.MaxSP = 10
	t.Strategy = "defensive"
	t.Spells = []string{"venom", "cure_light"}
	t.Items = []npc.ItemStack{{ItemID: "healing_potion", Quantity: 1}}
	return t
}

// Troll regenerates and sometimes bites with poison.
func Troll() *npc.Template {
	t := Monster("troll", 4, 30, 7, "1d8")
	t.Name = "Troll"
	t.Regenerates = 3
	t.SpecialAttack = &npc.Attack{Name: "bite", Damage: dice.MustParse("2d6"), Condition: "poisoned", ConditionDuration: 2}
	t.SpecialAttackChance = 25
	return t
}
