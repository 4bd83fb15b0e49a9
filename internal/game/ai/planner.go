package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ScriptCaller evaluates method preconditions. An undefined hook yields
// (LNil, nil).
type ScriptCaller interface {
	CallHook(hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Action string
	Target combat.CombatantID // zero for defend and area effects
	Spell  string
	Item   string
}

// TurnAction converts the planned action into an engine action.
func (p PlannedAction) TurnAction() combat.TurnAction {
	switch p.Action {
	case OpAttack:
		return combat.Attack{Target: p.Target}
	case OpCast:
		return combat.CastSpell{SpellID: p.Spell, Target: p.Target}
	case OpUseItem:
		return combat.UseItem{ItemID: p.Item, Target: p.Target}
	default:
		return combat.Defend{}
	}
}

// maxExpansions bounds how many tasks one Plan call may visit, so a domain
// whose methods recurse without reaching an operator still terminates.
const maxExpansions = 32

// Planner turns one monster's view of the fight into a plan by decomposing
// RootTask through its domain.
type Planner struct {
	domain *Domain
	caller ScriptCaller
}

// NewPlanner panics if either argument is nil.
func NewPlanner(domain *Domain, caller ScriptCaller) *Planner {
	switch {
	case domain == nil:
		panic("ai.NewPlanner: nil domain")
	case caller == nil:
		panic("ai.NewPlanner: nil script caller")
	}
	return &Planner{domain: domain, caller: caller}
}

// Domain returns the HTN domain the planner decomposes.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes RootTask depth first. Each task takes the first method whose
// precondition holds; a task with no such method contributes nothing. A
// precondition that errors counts as false.
//
// Postcondition: the result is non-nil, possibly empty.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, fmt.Errorf("ai: planning %s: no acting monster", p.domain.ID)
	}
	plan := planRun{p: p, state: state, out: []PlannedAction{}}
	plan.expand(RootTask)
	return plan.out, nil
}

type planRun struct {
	p       *Planner
	state   *WorldState
	visited int
	out     []PlannedAction
}

func (r *planRun) expand(task string) {
	if r.visited >= maxExpansions {
		return
	}
	r.visited++
	if op, ok := r.p.domain.OperatorByID(task); ok {
		r.out = append(r.out, PlannedAction{
			Action: op.Action,
			Target: r.state.ResolveTarget(op.Target),
			Spell:  op.Spell,
			Item:   op.Item,
		})
		return
	}
	m := r.p.method(task, r.state)
	if m == nil {
		return
	}
	for _, sub := range m.Subtasks {
		r.expand(sub)
	}
}

// method picks the first method for task, in declaration order, whose
// precondition passes. Hooks get the monster's ID, HP, max HP, the round
// and the number of living enemies.
func (p *Planner) method(task string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(task) {
		if m.Precondition == "" {
			return m
		}
		ok, err := p.caller.CallHook(m.Precondition,
			lua.LString(state.Self.ID.String()),
			lua.LNumber(state.Self.HP),
			lua.LNumber(state.Self.MaxHP),
			lua.LNumber(state.Round),
			lua.LNumber(len(state.Enemies())),
		)
		if err == nil && ok != nil && lua.LVAsBool(ok) {
			return m
		}
	}
	return nil
}

// Scripted is a Strategy backed by an HTN planner.
type Scripted struct {
	planner *Planner
}

// NewScripted wraps planner as a Strategy.
func NewScripted(planner *Planner) Scripted { return Scripted{planner: planner} }

// Propose returns the planned actions in plan order.
func (sc Scripted) Propose(s *combat.State, _ *combat.Rules, self *combat.Combatant) []combat.TurnAction {
	plan, err := sc.planner.Plan(BuildWorldState(s, self))
	if err != nil {
		return nil
	}
	out := make([]combat.TurnAction, 0, len(plan))
	for _, pa := range plan {
		out = append(out, pa.TurnAction())
	}
	return out
}
