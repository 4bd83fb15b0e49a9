package character_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

func makeRace(mods map[string]int) *ruleset.Race {
	return &ruleset.Race{ID: "human", Name: "Human", Modifiers: mods}
}

func makeClass(school string, hpPerLevel, spPerLevel int) *ruleset.Class {
	return &ruleset.Class{ID: "test_class", Name: "Test", SpellSchool: school,
		HitPointsPerLevel: hpPerLevel, SpellPointsPerLevel: spPerLevel}
}

func TestBuild_AppliesRaceModifiers(t *testing.T) {
	c, err := character.Build("Ayla", makeRace(map[string]int{"might": 4, "speed": 2}), makeClass("", 10, 0), 2)
	require.NoError(t, err)
	assert.Equal(t, 14, c.Stats.Might)
	assert.Equal(t, 12, c.Stats.Speed)
	assert.Equal(t, 24, c.MaxHP, "2 * (10 + 2)")
	assert.Equal(t, 24, c.HP())
	assert.Equal(t, 0, c.MaxSP, "non-casters have no SP")
	assert.NoError(t, c.Validate())
}

func TestBuild_CasterGetsSP(t *testing.T) {
	c, err := character.Build("Mira", makeRace(nil), makeClass("sorcerer", 4, 5), 3)
	require.NoError(t, err)
	assert.Equal(t, 15, c.MaxSP)
	assert.Equal(t, 15, c.SP())
}

func TestBuild_RejectsBadInput(t *testing.T) {
	cases := map[string]func() (*character.Character, error){
		"no name":  func() (*character.Character, error) { return character.Build("", makeRace(nil), makeClass("", 8, 0), 1) },
		"no race":  func() (*character.Character, error) { return character.Build("x", nil, makeClass("", 8, 0), 1) },
		"no class": func() (*character.Character, error) { return character.Build("x", makeRace(nil), nil, 1) },
		"level 0":  func() (*character.Character, error) { return character.Build("x", makeRace(nil), makeClass("", 8, 0), 0) },
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := build()
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestBuild_HPAlwaysPositive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		might := rapid.IntRange(-20, 20).Draw(rt, "might")
		hp := rapid.IntRange(0, 12).Draw(rt, "hp")
		level := rapid.IntRange(1, 20).Draw(rt, "level")
		c, err := character.Build("x", makeRace(map[string]int{"might": might}), makeClass("", hp, 0), level)
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, c.MaxHP, 1)
	})
}

func TestCharacter_Validate_PoolBounds(t *testing.T) {
	over := 50
	c := character.Character{Name: "x", Race: "human", Class: "knight", Level: 1, MaxHP: 10, CurrentHP: &over}
	assert.Error(t, c.Validate())

	zero := 0
	c.CurrentHP = &zero
	assert.NoError(t, c.Validate(), "an unconscious member is a valid snapshot")
}

func TestLoadParty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "party.yaml")
	content := `
members:
  - name: Sir Roland
    race: human
    class: paladin
    level: 3
    max_hp: 30
    hp: 22
    max_sp: 6
    gems: 2
    stats: {accuracy: 2, speed: 11, might: 14, evasion: 3, luck: 10}
    items:
      - {item: healing_potion, quantity: 2}
  - name: Mira
    race: elf
    class: sorcerer
    level: 2
    max_hp: 12
    max_sp: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	p, err := character.LoadParty(path, ruleset.NewRegistry())
	require.NoError(t, err)
	require.Len(t, p.Members, 2)
	assert.Equal(t, 22, p.Members[0].HP())
	assert.Equal(t, 12, p.Members[1].HP())
	assert.Equal(t, 10, p.Members[1].SP())
	assert.Equal(t, 14, p.Members[0].Stats.Might)
}

func TestPartySnapshot_Validate_Size(t *testing.T) {
	assert.Error(t, character.PartySnapshot{}.Validate())
	member := character.Character{Name: "x", Race: "human", Class: "knight", Level: 1, MaxHP: 5}
	big := character.PartySnapshot{}
	for i := 0; i < character.MaxPartySize+1; i++ {
		big.Members = append(big.Members, member)
	}
	assert.Error(t, big.Validate())
}

func testRules() *ruleset.Registry {
	rules := ruleset.NewRegistry()
	rules.RegisterRace(makeRace(map[string]int{"might": 2}))
	rules.RegisterClass(makeClass("sorcerer", 4, 5))
	return rules
}

func TestPartySnapshot_Complete(t *testing.T) {
	p := character.PartySnapshot{Members: []character.Character{
		{Name: "Mira", Race: "human", Class: "test_class", Level: 2},
		{Name: "Kept", Race: "human", Class: "test_class", Level: 2, MaxHP: 7, Stats: ruleset.Stats{Might: 18}},
		{Name: "Own stats", Race: "human", Class: "test_class", Level: 1, Stats: ruleset.Stats{Speed: 15}},
	}}
	require.NoError(t, p.Complete(testRules()))

	assert.Equal(t, 12, p.Members[0].Stats.Might)
	assert.Equal(t, 10, p.Members[0].MaxHP, "2 * (4 + 1)")
	assert.Equal(t, 10, p.Members[0].MaxSP)
	assert.Equal(t, 7, p.Members[1].MaxHP)
	assert.Equal(t, 18, p.Members[1].Stats.Might)
	assert.Equal(t, ruleset.Stats{Speed: 15}, p.Members[2].Stats)
	assert.Equal(t, 5, p.Members[2].MaxHP)
	assert.NoError(t, p.Validate())
}

func TestPartySnapshot_Complete_UnknownContent(t *testing.T) {
	cases := map[string]character.Character{
		"race":  {Name: "x", Race: "orc", Class: "test_class", Level: 1},
		"class": {Name: "x", Race: "human", Class: "bard", Level: 1},
	}
	for name, member := range cases {
		t.Run(name, func(t *testing.T) {
			p := character.PartySnapshot{Members: []character.Character{member}}
			assert.ErrorContains(t, p.Complete(testRules()), "unknown "+name)
		})
	}
}

func TestLoadParty_DerivesOmittedPools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "party.yaml")
	require.NoError(t, os.WriteFile(path, []byte("members:\n  - {name: Mira, race: human, class: test_class, level: 3}\n"), 0644))
	p, err := character.LoadParty(path, testRules())
	require.NoError(t, err)
	assert.Equal(t, 15, p.Members[0].MaxHP)
	assert.Equal(t, 15, p.Members[0].SP())

	_, err = character.LoadParty(path, ruleset.NewRegistry())
	assert.ErrorContains(t, err, "unknown race")
}
