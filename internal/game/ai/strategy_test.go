package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func fighterAt(name string, hp int) character.Character {
	c := testutil.Member(name, "human", "fighter", 1, 50, 0)
	c.CurrentHP = &hp
	return c
}

func monsterFirst(t require.TestingT, party character.PartySnapshot, monster *npc.Template, seed int64) (*combat.State, *combat.Rules) {
	rules := testutil.Rules()
	s, _, err := combat.NewState(party, []*npc.Template{monster}, combat.Options{
		Handicap: combat.HandicapMonsterAdvantage,
		Seed:     seed,
	}, rules)
	require.NoError(t, err)
	c, ok := s.CurrentActor()
	require.True(t, ok)
	require.Equal(t, combat.MonsterID(0), c.ID)
	return s, rules
}

func TestAggressive_PicksLowestHP(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30), fighterAt("B", 5), fighterAt("C", 50))
	s, rules := monsterFirst(t, party, testutil.Goblin(), 1)

	got := ai.SelectAction(s, rules, s.Monsters[0], ai.Aggressive{})
	assert.Equal(t, combat.Attack{Target: combat.PlayerID(1)}, got)
}

func TestProperty_Aggressive_AlwaysPicksLowestHP(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hps := rapid.SliceOfN(rapid.IntRange(1, 50), 1, 6).Draw(rt, "hps")
		var members []character.Character
		for i, hp := range hps {
			members = append(members, fighterAt(string(rune('A'+i)), hp))
		}
		s, rules := monsterFirst(rt, testutil.Party(members...), testutil.Goblin(), rapid.Int64().Draw(rt, "seed"))

		want := 0
		for i, hp := range hps {
			if hp < hps[want] {
				want = i
			}
		}
		got := ai.SelectAction(s, rules, s.Monsters[0], ai.Aggressive{})
		require.Equal(rt, combat.Attack{Target: combat.PlayerID(want)}, got)
	})
}

func TestAggressive_SkipsDownedEnemies(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30), fighterAt("B", 0), fighterAt("C", 50))
	s, rules := monsterFirst(t, party, testutil.Goblin(), 1)
	assert.Equal(t, combat.Attack{Target: combat.PlayerID(0)}, ai.SelectAction(s, rules, s.Monsters[0], ai.Aggressive{}))
}

func TestDefensive(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30), fighterAt("B", 20))

	t.Run("heals with a spell when badly hurt", func(t *testing.T) {
		s, rules := monsterFirst(t, party, testutil.Shaman(), 1)
		s.Monsters[0].ApplyDamage(8)
		got := ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive())
		assert.Equal(t, combat.CastSpell{SpellID: "cure_light", Target: combat.MonsterID(0)}, got)
	})

	t.Run("falls back to a potion without sp", func(t *testing.T) {
		s, rules := monsterFirst(t, party, testutil.Shaman(), 1)
		s.Monsters[0].ApplyDamage(8)
		require.NoError(t, s.Monsters[0].DeductSP(10))
		got := ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive())
		assert.Equal(t, combat.UseItem{ItemID: "healing_potion", Target: combat.MonsterID(0)}, got)
	})

	t.Run("defends when nothing heals", func(t *testing.T) {
		s, rules := monsterFirst(t, party, testutil.Goblin(), 1)
		s.Monsters[0].ApplyDamage(5)
		assert.Equal(t, combat.Defend{}, ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive()))
	})

	t.Run("defends when hurt", func(t *testing.T) {
		s, rules := monsterFirst(t, party, testutil.Shaman(), 1)
		s.Monsters[0].ApplyDamage(6)
		assert.Equal(t, combat.Defend{}, ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive()))
	})

	t.Run("attacks the first enemy when nobody has dealt damage", func(t *testing.T) {
		s, rules := monsterFirst(t, party, testutil.Shaman(), 1)
		assert.Equal(t, combat.Attack{Target: combat.PlayerID(0)}, ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive()))
	})
}

func TestDefensive_AttacksHighestThreat(t *testing.T) {
	wand := testutil.Member("Aria", "human", "sorcerer", 1, 8, 10)
	wand.Items = []character.ItemStack{{ItemID: "fire_wand", Quantity: 1}}
	party := testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0), wand)
	rules := testutil.Rules()
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Shaman()}, combat.Options{Handicap: combat.HandicapPartyAdvantage}, rules)
	require.NoError(t, err)

	_, err = combat.Act(s, rules, combat.PlayerID(0), combat.Defend{})
	require.NoError(t, err)
	_, err = combat.Act(s, rules, combat.PlayerID(1), combat.UseItem{ItemID: "fire_wand", Target: combat.MonsterID(0)})
	require.NoError(t, err)
	require.Equal(t, 4, s.DamageDealt(combat.PlayerID(1)))

	got := ai.SelectAction(s, rules, s.Monsters[0], ai.NewDefensive())
	assert.Equal(t, combat.Attack{Target: combat.PlayerID(1)}, got)
}

func TestRandom_IsLegalAndReproducible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		party := testutil.Party(fighterAt("A", 30), fighterAt("B", 0), fighterAt("C", 50))
		s1, rules := monsterFirst(rt, party, testutil.Shaman(), seed)
		s2, _ := monsterFirst(rt, party, testutil.Shaman(), seed)

		a1 := ai.SelectAction(s1, rules, s1.Monsters[0], ai.Random{})
		a2 := ai.SelectAction(s2, rules, s2.Monsters[0], ai.Random{})
		require.Equal(rt, a1, a2)
		_, err := combat.Validate(s1, rules, combat.MonsterID(0), a1)
		require.NoError(rt, err)
	})
}

func TestLegalActions_ExcludesFleeAndIllegalTargets(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30), fighterAt("B", 0))
	rules := testutil.Rules()
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Shaman()}, combat.Options{
		CanFlee:  true,
		Handicap: combat.HandicapMonsterAdvantage,
	}, rules)
	require.NoError(t, err)

	legal := ai.LegalActions(s, rules, s.Monsters[0])
	assert.Contains(t, legal, combat.TurnAction(combat.Attack{Target: combat.PlayerID(0)}))
	assert.NotContains(t, legal, combat.TurnAction(combat.Attack{Target: combat.PlayerID(1)}))
	assert.Contains(t, legal, combat.TurnAction(combat.CastSpell{SpellID: "venom", Target: combat.PlayerID(0)}))
	assert.Contains(t, legal, combat.TurnAction(combat.CastSpell{SpellID: "cure_light", Target: combat.MonsterID(0)}))
	assert.Contains(t, legal, combat.TurnAction(combat.UseItem{ItemID: "healing_potion", Target: combat.MonsterID(0)}))
	assert.NotContains(t, legal, combat.TurnAction(combat.Flee{}))
	assert.Equal(t, combat.TurnAction(combat.Defend{}), legal[len(legal)-1])
}

func TestSelectAction_DefendsOutOfTurn(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30))
	rules := testutil.Rules()
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Goblin()}, combat.Options{Handicap: combat.HandicapPartyAdvantage}, rules)
	require.NoError(t, err)
	assert.Equal(t, combat.Defend{}, ai.SelectAction(s, rules, s.Monsters[0], ai.Aggressive{}))
}

func TestScripted_FollowsPlanThenValidates(t *testing.T) {
	party := testutil.Party(fighterAt("A", 30), fighterAt("B", 12))
	s, rules := monsterFirst(t, party, testutil.Shaman(), 1)

	strategy := ai.NewScripted(ai.NewPlanner(shamanDomain(), &stubCaller{result: lua.LTrue}))
	got := ai.SelectAction(s, rules, s.Monsters[0], strategy)
	assert.Equal(t, combat.CastSpell{SpellID: "venom", Target: combat.PlayerID(0)}, got)

	require.NoError(t, s.Monsters[0].DeductSP(10))
	got = ai.SelectAction(s, rules, s.Monsters[0], strategy)
	assert.Equal(t, combat.Attack{Target: combat.PlayerID(1)}, got, "unaffordable spell falls through to the next planned action")
}
