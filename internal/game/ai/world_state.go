package ai

import "github.com/cory-johannsen/skirmish/internal/game/combat"

// CombatantState captures a combatant's combat-relevant state at planning time.
type CombatantState struct {
	ID          combat.CombatantID
	Name        string
	HP          int
	MaxHP       int
	DamageDealt int
	Active      bool
}

// HPFraction returns current HP as a fraction of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPFraction() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP)
}

// WorldState is the snapshot a strategy plans against for one monster.
//
// Invariant: Self must not be nil.
type WorldState struct {
	Self       *CombatantState
	Round      int
	Combatants []*CombatantState // roster order, party first
}

// BuildWorldState snapshots s from self's point of view.
//
// Precondition: s and self must not be nil.
// Postcondition: ws.Self.ID == self.ID; every combatant is represented.
func BuildWorldState(s *combat.State, self *combat.Combatant) *WorldState {
	ws := &WorldState{Round: s.Round}
	for _, c := range s.All() {
		cs := &CombatantState{
			ID:          c.ID,
			Name:        c.Name,
			HP:          c.HP.Current,
			MaxHP:       c.HP.Max,
			DamageDealt: s.DamageDealt(c.ID),
			Active:      c.IsActive(),
		}
		if c.ID == self.ID {
			ws.Self = cs
		}
		ws.Combatants = append(ws.Combatants, cs)
	}
	return ws
}

// Enemies returns all Active combatants on the other side, in roster order.
func (ws *WorldState) Enemies() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if c.Active && c.ID.Side != ws.Self.ID.Side {
			out = append(out, c)
		}
	}
	return out
}

// Allies returns all Active combatants on Self's side, including Self.
func (ws *WorldState) Allies() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if c.Active && c.ID.Side == ws.Self.ID.Side {
			out = append(out, c)
		}
	}
	return out
}

// WeakestEnemy returns the living enemy with the lowest current HP, or nil.
//
// Postcondition: ties are broken by roster order.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	var weakest *CombatantState
	for _, e := range ws.Enemies() {
		if weakest == nil || e.HP < weakest.HP {
			weakest = e
		}
	}
	return weakest
}

// ThreatEnemy returns the living enemy that has dealt the most damage, or nil.
//
// Postcondition: ties (including nobody having dealt damage) go to the first in roster order.
func (ws *WorldState) ThreatEnemy() *CombatantState {
	var threat *CombatantState
	for _, e := range ws.Enemies() {
		if threat == nil || e.DamageDealt > threat.DamageDealt {
			threat = e
		}
	}
	return threat
}

// WeakestAlly returns the living ally with the lowest HP fraction, or nil.
func (ws *WorldState) WeakestAlly() *CombatantState {
	var weakest *CombatantState
	for _, a := range ws.Allies() {
		if weakest == nil || a.HPFraction() < weakest.HPFraction() {
			weakest = a
		}
	}
	return weakest
}

// ResolveTarget maps a target token to a combatant ID.
//
// Postcondition: "weakest_enemy", "threat", "first_enemy", "weakest_ally" and
// "self" resolve against the snapshot; unknown tokens and empty
// selections return the zero ID.
func (ws *WorldState) ResolveTarget(token string) combat.CombatantID {
	var c *CombatantState
	switch token {
	case TargetWeakestEnemy:
		c = ws.WeakestEnemy()
	case TargetThreat:
		c = ws.ThreatEnemy()
	case TargetFirstEnemy:
		if e := ws.Enemies(); len(e) > 0 {
			c = e[0]
		}
	case TargetWeakestAlly:
		c = ws.WeakestAlly()
	case TargetSelf:
		c = ws.Self
	}
	if c == nil {
		return combat.CombatantID{}
	}
	return c.ID
}
