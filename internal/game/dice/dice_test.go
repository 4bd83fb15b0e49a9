package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

func TestRollResult_String(t *testing.T) {
	cases := []struct {
		roll dice.RollResult
		want string
	}{
		{dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}, "2d6+3: 4+5 +3 = 12"},
		{dice.RollResult{Expression: "1d8-2", Dice: []int{1}, Modifier: -2}, "1d8-2: 1 -2 = -1"},
		{dice.RollResult{Expression: "d20", Dice: []int{17}}, "d20: 17 = 17"},
		{dice.RollResult{Expression: "4", Modifier: 4}, "4: +4 = 4"},
		{dice.RollResult{Dice: []int{2}}, "?: 2 = 2"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.roll.String())
	}
}

func TestProperty_RollResult_Total(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rolled := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		mod := rapid.IntRange(-1000, 1000).Draw(rt, "modifier")
		want := mod
		for _, d := range rolled {
			want += d
		}
		assert.Equal(rt, want, dice.RollResult{Dice: rolled, Modifier: mod}.Total())
	})
}

func TestRollResult_MarshalLogObject(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, dice.RollResult{Expression: "2d4", Dice: []int{1, 3}}.MarshalLogObject(enc))
	assert.Equal(t, "2d4", enc.Fields["expression"])
	assert.EqualValues(t, 4, enc.Fields["total"])
	assert.Len(t, enc.Fields["dice"], 2)
}

func TestD20AndPercent_Ranges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		d := dice.D20(src)
		p := dice.Percent(src)
		assert.True(rt, d >= 1 && d <= 20, "d20=%d", d)
		assert.True(rt, p >= 1 && p <= 100, "d100=%d", p)
		assert.Equal(rt, uint64(2), src.Draws())
	})
}

func TestSeededSource_Intn(t *testing.T) {
	src := dice.NewSeededSource(7)
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v := src.Intn(6)
		require.True(t, v >= 0 && v < 6, "got %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, 6)
	assert.Equal(t, uint64(600), src.Draws())
	assert.Panics(t, func() { src.Intn(0) })
}

func TestProperty_SeededSource_Replays(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		n := rapid.IntRange(1, 1000).Draw(rt, "n")
		a, b := dice.NewSeededSource(seed), dice.NewSeededSource(seed)
		for i := 0; i < 20; i++ {
			require.Equal(rt, a.Intn(n), b.Intn(n))
		}
		assert.Equal(rt, seed, a.Seed())
	})
}

func TestNewSeed(t *testing.T) {
	a, err := dice.NewSeed()
	require.NoError(t, err)
	b, err := dice.NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
