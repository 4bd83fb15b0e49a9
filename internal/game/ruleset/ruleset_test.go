package ruleset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_ParsesClassesAndRaces(t *testing.T) {
	classDir, raceDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(classDir, "paladin.yaml"), `
id: paladin
name: Paladin
spell_school: cleric
spell_access_level: 3
weapon_damage: 1d8
`)
	writeFile(t, filepath.Join(classDir, "knight.yml"), `
id: knight
name: Knight
`)
	writeFile(t, filepath.Join(raceDir, "dwarf.yaml"), `
id: dwarf
name: Dwarf
forbidden_item_tags: [elven]
`)
	reg, err := ruleset.Load(classDir, raceDir)
	require.NoError(t, err)

	paladin, ok := reg.Class("paladin")
	require.True(t, ok)
	assert.True(t, paladin.CanCast("cleric"))
	assert.False(t, paladin.CanCast("sorcerer"))
	assert.Equal(t, 8, paladin.Weapon().Sides)

	knight, ok := reg.Class("knight")
	require.True(t, ok)
	assert.False(t, knight.CanCast(""))
	assert.Equal(t, ruleset.DefaultWeaponDamage, knight.Weapon())

	dwarf, ok := reg.Race("dwarf")
	require.True(t, ok)
	assert.Equal(t, "", ruleset.ForbiddenTag(knight, dwarf, []string{"blunt"}))
}

func TestForbiddenTag(t *testing.T) {
	class := &ruleset.Class{ForbiddenTags: []string{"holy"}}
	race := &ruleset.Race{ForbiddenTags: []string{"elven"}}
	cases := []struct {
		name  string
		class *ruleset.Class
		race  *ruleset.Race
		tags  []string
		want  string
	}{
		{"race forbids", nil, race, []string{"blunt", "elven"}, "elven"},
		{"class forbids", class, nil, []string{"holy"}, "holy"},
		{"first tag wins", class, race, []string{"elven", "holy"}, "elven"},
		{"nothing forbidden", class, race, []string{"blunt"}, ""},
		{"no tags", class, race, nil, ""},
		{"no restrictions", nil, nil, []string{"holy"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ruleset.ForbiddenTag(tc.class, tc.race, tc.tags))
		})
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name         string
		class, race  string
		want         string
		missingRaces bool
	}{
		{name: "nameless class", class: "id: x\n", want: "class file a.yaml"},
		{name: "negative hit points", class: "id: x\nname: X\nhit_points_per_level: -1\n", want: "hit_points_per_level must be >= 0"},
		{name: "spell points without school", class: "id: x\nname: X\nspell_points_per_level: 2\n", want: "without a spell_school"},
		{name: "nameless race", race: "id: x\n", want: "race file a.yaml"},
		{name: "bad yaml", race: "id: [\n", want: "parsing race file a.yaml"},
		{name: "duplicate class", class: "id: x\nname: X\n", want: `class "x" defined twice`},
		{name: "missing race dir", missingRaces: true, want: "reading race directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classDir, raceDir := t.TempDir(), t.TempDir()
			if tc.class != "" {
				writeFile(t, filepath.Join(classDir, "a.yaml"), tc.class)
			}
			if tc.name == "duplicate class" {
				writeFile(t, filepath.Join(classDir, "b.yml"), tc.class)
			}
			if tc.race != "" {
				writeFile(t, filepath.Join(raceDir, "a.yaml"), tc.race)
			}
			if tc.missingRaces {
				raceDir = filepath.Join(raceDir, "missing")
			}
			_, err := ruleset.Load(classDir, raceDir)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestClass_RequiredLevel_IsMax(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		access := rapid.IntRange(0, 20).Draw(rt, "access")
		spell := rapid.IntRange(1, 13).Draw(rt, "spell")
		c := &ruleset.Class{ID: "c", Name: "C", SpellAccessLevel: access}
		got := c.RequiredLevel(spell)
		assert.GreaterOrEqual(rt, got, access)
		assert.GreaterOrEqual(rt, got, spell)
		assert.True(rt, got == access || got == spell)
	})
}

func TestRegistry_RegisterPanicsOnEmptyID(t *testing.T) {
	reg := ruleset.NewRegistry()
	assert.Panics(t, func() { reg.RegisterClass(&ruleset.Class{}) })
	assert.Panics(t, func() { reg.RegisterRace(nil) })
}

func TestScoreBonus(t *testing.T) {
	cases := map[int]int{10: 0, 11: 0, 12: 1, 18: 4, 9: -1, 8: -1, 7: -2, 3: -4}
	for score, want := range cases {
		assert.Equal(t, want, ruleset.ScoreBonus(score), "score %d", score)
	}
}

func TestStats_Apply(t *testing.T) {
	s := ruleset.BaseStats.Apply(map[string]int{"might": 2, "speed": -1, "charm": 5})
	assert.Equal(t, 12, s.Might)
	assert.Equal(t, 9, s.Speed)
	assert.Equal(t, 10, s.Luck)
}
