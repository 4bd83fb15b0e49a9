package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func TestRound_PartyWipedOutIsDefeat(t *testing.T) {
	ogre := testutil.Monster("ogre", 5, 200, 5, "3d6")
	ogre.Stats.Accuracy = 20
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 1, 0)), []*npc.Template{ogre}, combat.Options{Seed: 3})

	for i := 0; i < 200 && s.Status == combat.InProgress; i++ {
		c := actor(t, s)
		target := combat.MonsterID(0)
		if !c.IsPlayer() {
			target = combat.PlayerID(0)
		}
		_, err := combat.Act(s, rules, c.ID, combat.Attack{Target: target})
		require.NoError(t, err)
	}
	require.Equal(t, combat.Defeat, s.Status)
	assert.Equal(t, combat.Defeat, combat.Detect(s))
	assert.Equal(t, combat.Unconscious, s.Party[0].Lifecycle)
	assert.Equal(t, combat.Finished, s.Phase)

	before := s.Snapshot()
	for _, id := range []combat.CombatantID{combat.PlayerID(0), combat.MonsterID(0)} {
		_, err := combat.Act(s, rules, id, combat.Defend{})
		assert.ErrorIs(t, err, combat.ErrEncounterOver)
	}
	assert.Equal(t, before, s.Snapshot())
}

func TestRound_IncapacitatedTurnIsSkipped(t *testing.T) {
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0)), []*npc.Template{testutil.Goblin()}, combat.Options{Handicap: combat.HandicapPartyAdvantage})
	paralyzed, _ := rules.Conditions.Get("paralyzed")
	require.NoError(t, s.Monsters[0].AddCondition(paralyzed, 0, 1))

	res := passTurn(t, s, rules)
	assert.Equal(t, []combat.EventKind{
		combat.EventDefendStance,
		combat.EventTurnSkipped,
		combat.EventConditionExpired, // paralyzed
		combat.EventRoundStarted,
		combat.EventConditionExpired, // Bron's stance, on his next turn
	}, kinds(res.Events))
	skipped, _ := firstEvent(res.Events, combat.EventTurnSkipped)
	assert.Equal(t, combat.MonsterID(0), skipped.Actor)
	assert.Equal(t, 1, skipped.Round)
	assert.Equal(t, 2, s.Round)
	assert.True(t, s.Monsters[0].CanAct())
}

func TestRound_MonsterRegenerates(t *testing.T) {
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0)), []*npc.Template{testutil.Troll()}, combat.Options{})
	troll := s.Monsters[0]
	troll.ApplyDamage(10)
	paralyzed, _ := rules.Conditions.Get("paralyzed")
	require.NoError(t, troll.AddCondition(paralyzed, 0, 1))

	res := passTurn(t, s, rules)
	assert.Equal(t, 23, troll.HP.Current)
	healed, ok := firstEvent(res.Events, combat.EventHealed)
	require.True(t, ok)
	assert.Equal(t, 3, healed.Amount)
	assert.Equal(t, combat.MonsterID(0), healed.Target)
}

func TestRound_PoisonTicksAtRoundEnd(t *testing.T) {
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0)), []*npc.Template{testutil.Goblin()}, combat.Options{Seed: 11})
	poisoned, _ := rules.Conditions.Get("poisoned")
	require.NoError(t, s.Party[0].AddCondition(poisoned, 0, 1))

	passTurn(t, s, rules)
	require.Equal(t, 20, s.Party[0].HP.Current, "no tick before the round ends")
	res := passTurn(t, s, rules) // goblin defends; round ends
	tick, ok := firstEvent(res.Events, combat.EventConditionTriggered)
	require.True(t, ok)
	assert.Equal(t, "poisoned", tick.Condition)
	assert.GreaterOrEqual(t, tick.Amount, 1)
	assert.LessOrEqual(t, tick.Amount, 4)
	assert.Equal(t, 20-tick.Amount, s.Party[0].HP.Current)
	ac, _ := s.Party[0].Conditions.Get("poisoned")
	assert.Equal(t, 2, ac.Remaining)
}

func TestRound_PoisonCanWinTheFight(t *testing.T) {
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0)), []*npc.Template{testutil.Goblin()}, combat.Options{})
	poisoned, _ := rules.Conditions.Get("poisoned")
	require.NoError(t, s.Monsters[0].AddCondition(poisoned, 0, 10))

	passTurn(t, s, rules)
	res := passTurn(t, s, rules)
	assert.Equal(t, combat.Dead, s.Monsters[0].Lifecycle)
	assert.Equal(t, combat.Victory, s.Status)
	kk := kinds(res.Events)
	assert.Contains(t, kk, combat.EventCombatantDied)
	assert.Equal(t, combat.EventEncounterResolved, kk[len(kk)-1])
}

type stubHook struct {
	result int
	err    error
	calls  int
}

func (h *stubHook) OnTick(hook, combatant string, hp, maxHP, round int) (int, error) {
	h.calls++
	return h.result, h.err
}

func hookedState(t *testing.T, hook *stubHook) (*combat.State, *combat.Rules) {
	rules := testutil.Rules()
	rules.Hook = hook
	rules.Conditions.Register(&condition.Definition{
		ID:              "hexed",
		Name:            "Hexed",
		DurationType:    condition.DurationRounds,
		DefaultDuration: 3,
		LuaOnTick:       "hex_tick",
	})
	party := testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0))
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Goblin()}, combat.Options{}, rules)
	require.NoError(t, err)
	hexed, _ := rules.Conditions.Get("hexed")
	require.NoError(t, s.Party[0].AddCondition(hexed, 0, 1))
	return s, rules
}

func TestRound_TickHookDamage(t *testing.T) {
	hook := &stubHook{result: 3}
	s, rules := hookedState(t, hook)
	passTurn(t, s, rules)
	res := passTurn(t, s, rules)
	assert.Equal(t, 1, hook.calls)
	assert.Equal(t, 17, s.Party[0].HP.Current)
	tick, ok := firstEvent(res.Events, combat.EventConditionTriggered)
	require.True(t, ok)
	assert.Equal(t, 3, tick.Amount)
}

func TestRound_TickHookFailureAbortsEncounter(t *testing.T) {
	s, rules := hookedState(t, &stubHook{err: errors.New("script exploded")})
	passTurn(t, s, rules)

	res, err := combat.Act(s, rules, combat.MonsterID(0), combat.Defend{})
	var re *combat.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "round_end", re.Op)
	assert.ErrorContains(t, err, "script exploded")
	assert.Equal(t, combat.Aborted, s.Status)
	assert.Equal(t, combat.Finished, s.Phase)
	assert.NotEmpty(t, s.Diagnostic)
	require.NotNil(t, res)
	last := res.Events[len(res.Events)-1]
	assert.Equal(t, combat.EventEncounterResolved, last.Kind)
	assert.Equal(t, combat.Aborted, last.Status)
	assert.Equal(t, combat.Aborted, combat.Detect(s))

	_, err = combat.Act(s, rules, combat.PlayerID(0), combat.Defend{})
	assert.ErrorIs(t, err, combat.ErrEncounterOver)
}

// brokenSpell costs SP but names a condition no registry holds, so it fails
// halfway through resolution.
func brokenSpell() *magic.Spell {
	return &magic.Spell{
		ID: "badbolt", Name: "Bad Bolt", School: magic.SchoolSorcerer, Tier: 1, SPCost: 3,
		Context: magic.ContextAnytime, Target: magic.TargetSingleEnemy,
		Damage: dice.MustParse("1d4"), Condition: "missing",
	}
}

func TestAct_ResolveFailureKeepsPartialResult(t *testing.T) {
	rules := testutil.Rules()
	require.NoError(t, rules.Spells.Register(brokenSpell()))
	party := testutil.Party(testutil.Member("Mira", "human", "sorcerer", 1, 12, 10))
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Goblin()}, combat.Options{Handicap: combat.HandicapPartyAdvantage}, rules)
	require.NoError(t, err)

	res, err := combat.Act(s, rules, combat.PlayerID(0), combat.CastSpell{SpellID: "badbolt", Target: combat.MonsterID(0)})
	var re *combat.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "cast", re.Op)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.SPSpent)
	assert.Equal(t, 7, s.Party[0].SP.Current)

	kk := kinds(res.Events)
	assert.Equal(t, []combat.EventKind{combat.EventSpellCast, combat.EventEncounterResolved}, kk)
	last := res.Events[len(res.Events)-1]
	assert.Equal(t, combat.Aborted, last.Status)
	assert.Equal(t, combat.Aborted, s.Status)
	assert.Equal(t, combat.Finished, s.Phase)
}

func TestRound_PermanentParalysisIsFatal(t *testing.T) {
	rules := testutil.Rules()
	rules.Conditions.Register(&condition.Definition{ID: "petrified", Name: "Petrified", DurationType: condition.DurationPermanent, Paralyzed: true})
	party := testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0))
	s, _, err := combat.NewState(party, []*npc.Template{testutil.Goblin()}, combat.Options{}, rules)
	require.NoError(t, err)
	petrified, _ := rules.Conditions.Get("petrified")
	require.NoError(t, s.Monsters[0].AddCondition(petrified, 0, 1))

	// The fighter turns to stone mid-turn; nobody can act ever again.
	require.NoError(t, s.Party[0].AddCondition(petrified, 0, 1))
	_, err = combat.Act(s, rules, combat.PlayerID(0), combat.Defend{})
	var re *combat.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, combat.Aborted, s.Status)
}

func TestDetect(t *testing.T) {
	party := testutil.Party(
		testutil.Member("Bron", "human", "fighter", 1, 20, 0),
		testutil.Member("Cid", "human", "cleric", 1, 10, 3),
	)
	monsters := []*npc.Template{testutil.Goblin(), testutil.Goblin()}

	s, _ := newState(t, party, monsters, combat.Options{})
	assert.Equal(t, combat.InProgress, combat.Detect(s))

	s.Monsters[0].ApplyDamage(100)
	assert.Equal(t, combat.InProgress, combat.Detect(s))
	s.Monsters[1].Lifecycle = combat.Fled
	assert.Equal(t, combat.Victory, combat.Detect(s))

	s, _ = newState(t, party, monsters, combat.Options{})
	s.Party[0].ApplyDamage(100)
	s.Party[1].ApplyDamage(100)
	assert.Equal(t, combat.Defeat, combat.Detect(s))
	assert.Equal(t, combat.Defeat, combat.Detect(s))

	s, _ = newState(t, party, monsters, combat.Options{})
	s.Party[0].Lifecycle = combat.Fled
	s.Party[1].ApplyDamage(100)
	assert.Equal(t, combat.FledSuccessfully, combat.Detect(s))
}

func TestCombatant_TickConditionsMagnitude(t *testing.T) {
	s, rules := newState(t, testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 40, 0)), []*npc.Template{testutil.Goblin()}, combat.Options{})
	c := s.Party[0]
	poisoned, _ := rules.Conditions.Get("poisoned")
	require.NoError(t, c.AddCondition(poisoned, 1, 2))

	roller := dice.NewLoggedRoller(dice.NewSeededSource(5), zap.NewNop())
	ticks, err := c.TickConditions(roller, nil, 1)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, "poisoned", ticks[0].ConditionID)
	assert.Zero(t, ticks[0].Damage%2, "damage is doubled")
	assert.GreaterOrEqual(t, ticks[0].Damage, 2)
	assert.LessOrEqual(t, ticks[0].Damage, 8)
	assert.True(t, ticks[1].Expired)
	assert.Equal(t, 40-ticks[0].Damage, c.HP.Current)
}
