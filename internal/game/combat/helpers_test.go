package combat_test

import (
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func newState(t require.TestingT, party character.PartySnapshot, monsters []*npc.Template, opts combat.Options) (*combat.State, *combat.Rules) {
	rules := testutil.Rules()
	s, _, err := combat.NewState(party, monsters, opts, rules)
	require.NoError(t, err)
	return s, rules
}

func withHP(c character.Character, hp int) character.Character {
	c.CurrentHP = &hp
	return c
}

func withItems(c character.Character, ids ...string) character.Character {
	for _, id := range ids {
		c.Items = append(c.Items, character.ItemStack{ItemID: id, Quantity: 1})
	}
	return c
}

func kinds(events []combat.Event) []combat.EventKind {
	out := make([]combat.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func firstEvent(events []combat.Event, kind combat.EventKind) (combat.Event, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return combat.Event{}, false
}

// actor returns the combatant whose turn it is.
func actor(t require.TestingT, s *combat.State) *combat.Combatant {
	c, ok := s.CurrentActor()
	require.True(t, ok, "no current actor")
	return c
}

// passTurn has the current actor defend.
func passTurn(t require.TestingT, s *combat.State, rules *combat.Rules) *combat.ActionResult {
	res, err := combat.Act(s, rules, actor(t, s).ID, combat.Defend{})
	require.NoError(t, err)
	return res
}
