package condition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

func TestRegistry(t *testing.T) {
	reg := condition.NewRegistry()
	_, ok := reg.Get("silenced")
	assert.False(t, ok)

	first := &condition.Definition{ID: "silenced", Name: "Silenced", DurationType: condition.DurationPermanent}
	reg.Register(&condition.Definition{ID: "blessed", Name: "Blessed", DurationType: condition.DurationPermanent})
	reg.Register(first)
	got, ok := reg.Get("silenced")
	require.True(t, ok)
	assert.Same(t, first, got)

	replacement := &condition.Definition{ID: "silenced", Name: "Hushed", DurationType: condition.DurationPermanent}
	reg.Register(replacement)
	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "blessed", all[0].ID)
	assert.Same(t, replacement, all[1])
}

func TestDefinition_Validate(t *testing.T) {
	cases := []struct {
		name string
		def  condition.Definition
		ok   bool
	}{
		{"rounds", condition.Definition{ID: "poison", Name: "Poison", DurationType: condition.DurationRounds, DefaultDuration: 3}, true},
		{"permanent", condition.Definition{ID: "cursed", Name: "Cursed", DurationType: condition.DurationPermanent}, true},
		{"rounds without duration", condition.Definition{ID: "poison", Name: "Poison", DurationType: condition.DurationRounds}, false},
		{"unknown duration type", condition.Definition{ID: "x", Name: "X", DurationType: "until_save"}, false},
		{"empty", condition.Definition{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadDirectory_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
id: poisoned
name: Poisoned
description: "Venom burns in your veins."
duration_type: rounds
default_duration: 3
modifiers:
  accuracy: -1
damage_over_time: 1d4
element: poison
lua_on_tick: venom_surge
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "poisoned.yaml"), []byte(yaml), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	reg, err := condition.LoadDirectory(dir)
	require.NoError(t, err)
	def, ok := reg.Get("poisoned")
	require.True(t, ok)
	assert.Equal(t, "Poisoned", def.Name)
	assert.Equal(t, 3, def.DefaultDuration)
	assert.Equal(t, -1, def.Modifiers.Accuracy)
	assert.Equal(t, 1, def.DamageOverTime.Count)
	assert.Equal(t, 4, def.DamageOverTime.Sides)
	assert.True(t, def.HealOverTime.IsZero())
	assert.Equal(t, "venom_surge", def.LuaOnTick)
}

func TestLoadDirectory_Rejects(t *testing.T) {
	cases := map[string]struct {
		files map[string]string
		want  string
	}{
		"unknown field": {files: map[string]string{"x.yaml": "id: x\nname: X\nduration_type: permanent\nmax_stacks: 3\n"}, want: "max_stacks"},
		"invalid":       {files: map[string]string{"x.yaml": "id: x\nname: X\nduration_type: rounds\n"}, want: "x.yaml"},
		"duplicate id": {
			files: map[string]string{
				"a.yaml": "id: x\nname: X\nduration_type: permanent\n",
				"b.yaml": "id: x\nname: Y\nduration_type: permanent\n",
			},
			want: "defined in both a.yaml and b.yaml",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for file, body := range tc.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0644))
			}
			_, err := condition.LoadDirectory(dir)
			assert.ErrorContains(t, err, tc.want)
		})
	}
	_, err := condition.LoadDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
