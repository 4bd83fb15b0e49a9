package encounter_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/reward"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func newManager(logger *zap.Logger) *encounter.Manager {
	return encounter.NewManager(testutil.Rules(), ai.NewRegistry(ai.NewDefensive()), logger)
}

func party() character.PartySnapshot {
	return testutil.Party(
		testutil.Member("Bron", "dwarf", "fighter", 3, 30, 0),
		testutil.Member("Ilse", "human", "cleric", 3, 20, 12),
	)
}

// play attacks the first living monster on every party turn until the encounter ends.
func play(t require.TestingT, sess *encounter.Session) {
	for i := 0; i < 500; i++ {
		if sess.Status().Terminal() {
			return
		}
		_, err := sess.RunMonsters()
		require.NoError(t, err)
		id, ok := sess.Current()
		if !ok {
			return
		}
		target := combat.MonsterID(0)
		for _, m := range sess.State().Monsters {
			if m.Lifecycle == combat.Active {
				target = m.ID
				break
			}
		}
		_, err = sess.Submit(id, combat.Attack{Target: target})
		require.NoError(t, err)
	}
	require.Fail(t, "encounter did not end")
}

func TestManager_Start_RejectsUnknownStrategy(t *testing.T) {
	m := newManager(nil)
	tmpl := testutil.Goblin()
	tmpl.Strategy = "berserk"
	_, err := m.Start(party(), []*npc.Template{tmpl}, combat.Options{})
	assert.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestManager_Start_AssignsSeed(t *testing.T) {
	m := newManager(nil)
	sess, err := m.Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{})
	require.NoError(t, err)
	assert.NotZero(t, sess.State().Seed)
	got, ok := m.Get(sess.ID())
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestSession_PlaysToCompletion(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rec := encounter.NewRecorder()
		m := newManager(nil)
		m.AddSink(rec)
		monsters := []*npc.Template{testutil.Goblin(), testutil.Shaman()}
		sess, err := m.Start(party(), monsters, combat.Options{Seed: rapid.Int64Min(1).Draw(rt, "seed")})
		require.NoError(rt, err)

		play(rt, sess)

		events := sess.Events()
		require.NotEmpty(rt, events)
		assert.Equal(rt, events, rec.Events(sess.ID()))
		last := events[len(events)-1]
		assert.Equal(rt, combat.EventEncounterResolved, last.Kind)
		assert.Equal(rt, sess.Status(), last.Status)

		b, err := sess.Rewards()
		if sess.Status() == combat.Victory {
			require.NoError(rt, err)
			assert.Equal(rt, 30, b.Experience())
		} else {
			assert.ErrorIs(rt, err, reward.ErrNoRewards)
		}
	})
}

func TestSession_SameSeedSameEncounter(t *testing.T) {
	run := func() []combat.Event {
		sess, err := newManager(nil).Start(party(), []*npc.Template{testutil.Troll()}, combat.Options{Seed: 77})
		require.NoError(t, err)
		play(t, sess)
		return sess.Events()
	}
	assert.Equal(t, run(), run())
}

func TestSession_Step_AwaitsPlayer(t *testing.T) {
	sess, err := newManager(nil).Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{
		Seed:     1,
		Handicap: combat.HandicapPartyAdvantage,
	})
	require.NoError(t, err)
	_, err = sess.Step()
	assert.ErrorIs(t, err, encounter.ErrAwaitingPlayer)

	results, err := sess.RunMonsters()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSession_Step_ResolvesMonsterTurn(t *testing.T) {
	sess, err := newManager(nil).Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{
		Seed:     1,
		Handicap: combat.HandicapMonsterAdvantage,
	})
	require.NoError(t, err)
	res, err := sess.Step()
	require.NoError(t, err)
	assert.Equal(t, combat.MonsterID(0), res.Actor)
	assert.IsType(t, combat.Attack{}, res.Action)

	id, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, combat.SidePlayer, id.Side)
}

func TestSession_Submit_Rejections(t *testing.T) {
	sess, err := newManager(nil).Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{
		Seed:     1,
		Handicap: combat.HandicapPartyAdvantage,
	})
	require.NoError(t, err)
	before := sess.State()
	// Ilse the human cleric is faster than Bron the dwarf.
	current, ok := sess.Current()
	require.True(t, ok)
	require.Equal(t, combat.PlayerID(1), current)

	_, err = sess.Submit(combat.MonsterID(0), combat.Defend{})
	assert.ErrorIs(t, err, encounter.ErrMonsterActor)

	_, err = sess.Submit(current, combat.CastSpell{SpellID: "fireball"})
	assert.ErrorIs(t, err, combat.ErrWrongSchoolOrClass)

	_, err = sess.Submit(combat.PlayerID(0), combat.Defend{})
	assert.ErrorIs(t, err, combat.ErrNotYourTurn)

	assert.Equal(t, before, sess.State())
}

func TestSession_Abort(t *testing.T) {
	rec := encounter.NewRecorder()
	m := newManager(nil)
	m.AddSink(rec)
	sess, err := m.Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{Seed: 1})
	require.NoError(t, err)

	assert.True(t, sess.Abort("dragon arrived"))
	assert.False(t, sess.Abort("again"))
	assert.Equal(t, combat.FledSuccessfully, sess.Status())
	assert.Equal(t, "dragon arrived", sess.State().Diagnostic)

	events := rec.Events(sess.ID())
	assert.Equal(t, combat.EventEncounterResolved, events[len(events)-1].Kind)

	_, err = sess.Step()
	assert.ErrorIs(t, err, combat.ErrEncounterOver)
	_, err = sess.Rewards()
	assert.ErrorIs(t, err, reward.ErrNoRewards)
}

type hexer struct{}

func (hexer) Propose(*combat.State, *combat.Rules, *combat.Combatant) []combat.TurnAction {
	return []combat.TurnAction{combat.CastSpell{SpellID: "hexbolt", Target: combat.PlayerID(0)}}
}

type failingHook struct{}

func (failingHook) OnTick(string, string, int, int, int) (int, error) { return 0, assert.AnError }

func TestSession_ResolutionErrorAborts(t *testing.T) {
	rules := testutil.Rules()
	rules.Hook = failingHook{}
	rules.Conditions.Register(&condition.Definition{
		ID:              "hexed",
		Name:            "Hexed",
		DurationType:    condition.DurationRounds,
		DefaultDuration: 3,
		LuaOnTick:       "hex_tick",
	})
	require.NoError(t, rules.Spells.Register(&magic.Spell{
		ID: "hexbolt", Name: "Hexbolt", School: magic.SchoolSorcerer, Tier: 1, SPCost: 1,
		Context: magic.ContextCombatOnly, Target: magic.TargetSingleEnemy, Condition: "hexed",
	}))
	strategies := ai.NewRegistry(ai.NewDefensive())
	require.NoError(t, strategies.Register("hexer", hexer{}))
	witch := testutil.Monster("witch", 2, 10, 9, "1d4")
	witch.MaxSP = 5
	witch.Spells = []string{"hexbolt"}
	witch.Strategy = "hexer"

	rec := encounter.NewRecorder()
	m := encounter.NewManager(rules, strategies, nil)
	m.AddSink(rec)
	sess, err := m.Start(testutil.Party(testutil.Member("Bron", "human", "fighter", 1, 20, 0)), []*npc.Template{witch}, combat.Options{
		Seed:     1,
		Handicap: combat.HandicapMonsterAdvantage,
	})
	require.NoError(t, err)

	res, err := sess.Step()
	require.NoError(t, err)
	require.Len(t, res.Effects, 1)
	assert.Equal(t, "hexed", res.Effects[0].Condition)

	res, err = sess.Submit(combat.PlayerID(0), combat.Defend{})
	var re *combat.ResolutionError
	require.ErrorAs(t, err, &re)
	require.NotNil(t, res)
	assert.Equal(t, combat.Aborted, sess.Status())
	events := rec.Events(sess.ID())
	assert.Equal(t, combat.Aborted, events[len(events)-1].Status)

	_, err = sess.Submit(combat.PlayerID(0), combat.Defend{})
	assert.ErrorIs(t, err, combat.ErrEncounterOver)
}

func TestSession_FailedCastIsPublished(t *testing.T) {
	rules := testutil.Rules()
	require.NoError(t, rules.Spells.Register(&magic.Spell{
		ID: "badbolt", Name: "Bad Bolt", School: magic.SchoolSorcerer, Tier: 1, SPCost: 3,
		Context: magic.ContextAnytime, Target: magic.TargetSingleEnemy, Condition: "missing",
	}))
	rec := encounter.NewRecorder()
	m := encounter.NewManager(rules, ai.NewRegistry(ai.NewDefensive()), nil)
	m.AddSink(rec)
	sess, err := m.Start(testutil.Party(testutil.Member("Mira", "human", "sorcerer", 1, 12, 10)), []*npc.Template{testutil.Goblin()},
		combat.Options{Seed: 1, Handicap: combat.HandicapPartyAdvantage})
	require.NoError(t, err)

	res, err := sess.Submit(combat.PlayerID(0), combat.CastSpell{SpellID: "badbolt", Target: combat.MonsterID(0)})
	var re *combat.ResolutionError
	require.ErrorAs(t, err, &re)
	require.NotNil(t, res)
	assert.Equal(t, combat.Aborted, sess.Status())
	assert.Equal(t, 7, sess.State().Party[0].SP.Current)

	events := rec.Events(sess.ID())
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, combat.EventSpellCast, events[len(events)-2].Kind)
	assert.Equal(t, combat.EventEncounterResolved, events[len(events)-1].Kind)
	assert.Equal(t, combat.Aborted, events[len(events)-1].Status)
}

func TestManager_End(t *testing.T) {
	m := newManager(nil)
	sess, err := m.Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{Seed: 1})
	require.NoError(t, err)

	require.NoError(t, m.End(sess.ID()))
	assert.Zero(t, m.Len())
	assert.Equal(t, combat.FledSuccessfully, sess.Status())
	assert.ErrorIs(t, m.End(sess.ID()), encounter.ErrNotFound)
	assert.ErrorIs(t, m.End(uuid.New()), encounter.ErrNotFound)
}

func TestManager_ConcurrentStarts(t *testing.T) {
	m := newManager(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			sess, err := m.Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{Seed: seed})
			if assert.NoError(t, err) {
				_, _ = sess.RunMonsters()
			}
		}(int64(i + 1))
	}
	wg.Wait()
	assert.Equal(t, 16, m.Len())
}

func TestManager_LogsLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := newManager(zap.New(core))
	sess, err := m.Start(party(), []*npc.Template{testutil.Goblin()}, combat.Options{Seed: 5})
	require.NoError(t, err)
	play(t, sess)

	started := logs.FilterMessage("encounter started").All()
	require.Len(t, started, 1)
	assert.Equal(t, int64(5), started[0].ContextMap()["seed"])
	assert.Equal(t, sess.ID().String(), started[0].ContextMap()["encounter"])
	assert.Len(t, logs.FilterMessage("encounter resolved").All(), 1)
	assert.NotEmpty(t, logs.FilterMessage("action resolved").All())
}
