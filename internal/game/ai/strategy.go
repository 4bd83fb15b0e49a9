package ai

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
)

// Strategy names as they appear in monster templates.
const (
	StrategyAggressive = "aggressive"
	StrategyDefensive  = "defensive"
	StrategyRandom     = "random"
)

// Default thresholds for the defensive strategy.
const (
	DefaultHealBelow   = 0.30
	DefaultDefendBelow = 0.50
)

// Strategy proposes actions for a monster, most preferred first. Proposals need
// not be legal; SelectAction filters them through the validator.
type Strategy interface {
	Propose(s *combat.State, rules *combat.Rules, self *combat.Combatant) []combat.TurnAction
}

// SelectAction returns the first legal proposal of strategy for monster. Flee
// is never chosen. When nothing proposed is legal the monster defends.
//
// Precondition: it is monster's turn.
// Postcondition: the result passes combat.Validate, or is Defend.
func SelectAction(s *combat.State, rules *combat.Rules, monster *combat.Combatant, strategy Strategy) combat.TurnAction {
	if strategy == nil {
		strategy = Aggressive{}
	}
	for _, a := range strategy.Propose(s, rules, monster) {
		if _, flee := a.(combat.Flee); flee {
			continue
		}
		if _, err := combat.Validate(s, rules, monster.ID, a); err == nil {
			return a
		}
	}
	return combat.Defend{}
}

// Aggressive attacks the living enemy with the lowest HP.
type Aggressive struct{}

// Propose ranks attacks on every living enemy by ascending HP, roster order on ties.
func (Aggressive) Propose(s *combat.State, _ *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	ws := BuildWorldState(s, self)
	enemies := ws.Enemies()
	sort.SliceStable(enemies, func(i, j int) bool { return enemies[i].HP < enemies[j].HP })
	out := make([]combat.TurnAction, 0, len(enemies))
	for _, e := range enemies {
		out = append(out, combat.Attack{Target: e.ID})
	}
	return out
}

// Defensive heals itself when badly hurt, defends when hurt, and otherwise
// attacks whoever has dealt the most damage.
type Defensive struct {
	HealBelow   float64
	DefendBelow float64
}

// NewDefensive returns a Defensive strategy with the default thresholds.
func NewDefensive() Defensive {
	return Defensive{HealBelow: DefaultHealBelow, DefendBelow: DefaultDefendBelow}
}

// Propose implements Strategy.
func (d Defensive) Propose(s *combat.State, rules *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	ws := BuildWorldState(s, self)
	frac := ws.Self.HPFraction()
	var out []combat.TurnAction
	if frac < d.HealBelow {
		out = append(out, selfHeals(rules, self)...)
	}
	if frac < d.DefendBelow {
		return append(out, combat.Defend{})
	}
	if t := ws.ThreatEnemy(); t != nil {
		out = append(out, combat.Attack{Target: t.ID})
	}
	return out
}

// selfHeals lists the healing spells and items self could use on itself.
func selfHeals(rules *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	var out []combat.TurnAction
	for _, id := range self.Spells {
		sp, ok := rules.Spells.Get(id)
		if !ok || !sp.IsHealing() || magic.TargetsEnemies(sp.Target) {
			continue
		}
		out = append(out, combat.CastSpell{SpellID: id, Target: self.ID})
	}
	for _, slot := range self.Inventory.Slots() {
		def, ok := rules.Items.Item(slot.ItemDefID)
		if !ok || def.Effect.Kind != inventory.EffectHealHP || magic.TargetsEnemies(def.Target) {
			continue
		}
		out = append(out, combat.UseItem{ItemID: def.ID, Target: self.ID})
	}
	return out
}

// Random picks uniformly among every legal action using the encounter's seeded source.
type Random struct{}

// Propose implements Strategy.
func (Random) Propose(s *combat.State, rules *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	legal := LegalActions(s, rules, self)
	if len(legal) == 0 {
		return nil
	}
	return []combat.TurnAction{legal[s.Rand().Intn(len(legal))]}
}

// LegalActions enumerates every action self may take now, excluding Flee, in a
// deterministic order: attacks, spells, items, then Defend.
func LegalActions(s *combat.State, rules *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	var ids []combat.CombatantID
	for _, c := range s.All() {
		ids = append(ids, c.ID)
	}
	var candidates []combat.TurnAction
	for _, id := range ids {
		candidates = append(candidates, combat.Attack{Target: id})
	}
	for _, id := range self.Spells {
		sp, ok := rules.Spells.Get(id)
		if !ok {
			continue
		}
		for _, target := range targetsFor(sp.Target, ids) {
			candidates = append(candidates, combat.CastSpell{SpellID: id, Target: target})
		}
	}
	seen := make(map[string]bool)
	for _, slot := range self.Inventory.Slots() {
		def, ok := rules.Items.Item(slot.ItemDefID)
		if !ok || seen[def.ID] {
			continue
		}
		seen[def.ID] = true
		for _, target := range targetsFor(def.Target, ids) {
			candidates = append(candidates, combat.UseItem{ItemID: def.ID, Target: target})
		}
	}
	var legal []combat.TurnAction
	for _, a := range candidates {
		if _, err := combat.Validate(s, rules, self.ID, a); err == nil {
			legal = append(legal, a)
		}
	}
	return append(legal, combat.Defend{})
}

// targetsFor returns every explicit target for single-target kinds, or the
// zero ID for kinds that pick their own targets.
func targetsFor(kind string, ids []combat.CombatantID) []combat.CombatantID {
	if magic.NeedsExplicitTarget(kind) {
		return ids
	}
	return []combat.CombatantID{{}}
}
