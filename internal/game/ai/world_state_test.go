package ai_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func monsterView() *ai.CombatantState {
	return &ai.CombatantState{ID: combat.MonsterID(0), Name: "Goblin", HP: 6, MaxHP: 6, Active: true}
}

func TestWorldState_Enemies_ReturnsOnlyLivingOpposition(t *testing.T) {
	self := monsterView()
	ws := &ai.WorldState{
		Self: self,
		Combatants: []*ai.CombatantState{
			{ID: combat.PlayerID(0), HP: 0, MaxHP: 20, Active: false},
			{ID: combat.PlayerID(1), HP: 20, MaxHP: 20, Active: true},
			self,
			{ID: combat.MonsterID(1), HP: 4, MaxHP: 6, Active: true},
		},
	}
	enemies := ws.Enemies()
	if len(enemies) != 1 || enemies[0].ID != combat.PlayerID(1) {
		t.Fatalf("expected only living player:1, got %v", enemies)
	}
	if allies := ws.Allies(); len(allies) != 2 {
		t.Fatalf("expected self and one ally, got %d", len(allies))
	}
}

func TestWorldState_WeakestEnemy_LowestHPFirstOnTie(t *testing.T) {
	self := monsterView()
	ws := &ai.WorldState{
		Self: self,
		Combatants: []*ai.CombatantState{
			{ID: combat.PlayerID(0), HP: 9, MaxHP: 10, Active: true},
			{ID: combat.PlayerID(1), HP: 5, MaxHP: 50, Active: true},
			{ID: combat.PlayerID(2), HP: 5, MaxHP: 5, Active: true},
			self,
		},
	}
	if got := ws.ResolveTarget("weakest_enemy"); got != combat.PlayerID(1) {
		t.Fatalf("expected player:1, got %s", got)
	}
}

func TestWorldState_ThreatEnemy(t *testing.T) {
	self := monsterView()
	ws := &ai.WorldState{
		Self: self,
		Combatants: []*ai.CombatantState{
			{ID: combat.PlayerID(0), HP: 10, MaxHP: 10, Active: true},
			{ID: combat.PlayerID(1), HP: 10, MaxHP: 10, Active: true, DamageDealt: 7},
			self,
		},
	}
	if got := ws.ResolveTarget("threat"); got != combat.PlayerID(1) {
		t.Fatalf("expected player:1, got %s", got)
	}
	ws.Combatants[1].DamageDealt = 0
	if got := ws.ResolveTarget("threat"); got != combat.PlayerID(0) {
		t.Fatalf("expected fallback to player:0, got %s", got)
	}
}

func TestWorldState_ResolveTarget_SelfAndUnknown(t *testing.T) {
	self := monsterView()
	ws := &ai.WorldState{Self: self, Combatants: []*ai.CombatantState{self}}
	if got := ws.ResolveTarget("self"); got != self.ID {
		t.Fatalf("expected self, got %s", got)
	}
	if got := ws.ResolveTarget("first_enemy"); !got.IsZero() {
		t.Fatalf("expected zero ID with no enemies, got %s", got)
	}
	if got := ws.ResolveTarget("nonsense"); !got.IsZero() {
		t.Fatalf("expected zero ID for unknown token, got %s", got)
	}
}

func TestProperty_WorldState_WeakestEnemyIsMinimal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		self := monsterView()
		ws := &ai.WorldState{Self: self}
		hps := rapid.SliceOfN(rapid.IntRange(0, 100), 1, 6).Draw(rt, "hps")
		for i, hp := range hps {
			ws.Combatants = append(ws.Combatants, &ai.CombatantState{ID: combat.PlayerID(i), HP: hp, MaxHP: 100, Active: hp > 0})
		}
		ws.Combatants = append(ws.Combatants, self)
		weakest := ws.WeakestEnemy()
		for _, e := range ws.Enemies() {
			if weakest == nil {
				rt.Fatal("expected a weakest enemy when enemies exist")
			}
			if e.HP < weakest.HP {
				rt.Fatalf("enemy %s has lower HP than chosen %s", e.ID, weakest.ID)
			}
		}
	})
}
