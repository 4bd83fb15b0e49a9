// Package combat implements the turn-based party-versus-monsters combat engine:
// the combatant model, action validation and resolution, the turn scheduler and
// the resolution detector.
package combat

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// Side distinguishes party members from monsters. The zero value is invalid
// so that a zero CombatantID means "no target".
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideMonster
)

// String returns "player", "monster" or "none".
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideMonster:
		return "monster"
	default:
		return "none"
	}
}

// Opposing returns the other side.
func (s Side) Opposing() Side {
	switch s {
	case SidePlayer:
		return SideMonster
	case SideMonster:
		return SidePlayer
	default:
		return SideNone
	}
}

// CombatantID identifies a combatant by side and roster index. Unique per encounter.
type CombatantID struct {
	Side  Side
	Index int
}

// PlayerID returns the ID of the i-th party member.
func PlayerID(i int) CombatantID { return CombatantID{Side: SidePlayer, Index: i} }

// MonsterID returns the ID of the i-th monster.
func MonsterID(i int) CombatantID { return CombatantID{Side: SideMonster, Index: i} }

// IsZero reports whether id names no combatant.
func (id CombatantID) IsZero() bool { return id.Side == SideNone }

// String renders the ID as "player:0" or "monster:2".
func (id CombatantID) String() string {
	return fmt.Sprintf("%s:%d", id.Side, id.Index)
}

// Lifecycle is a combatant's participation state.
type Lifecycle int

const (
	Active Lifecycle = iota
	Unconscious
	Dead
	Fled
)

// String returns a lowercase label for the lifecycle.
func (l Lifecycle) String() string {
	switch l {
	case Active:
		return "active"
	case Unconscious:
		return "unconscious"
	case Dead:
		return "dead"
	case Fled:
		return "fled"
	default:
		return "unknown"
	}
}

// Pool is a bounded resource such as hit points or spell points.
//
// Invariant: 0 <= Current <= Max.
type Pool struct {
	Current int
	Max     int
}

// Fraction returns Current/Max, or 0 when Max is 0.
func (p Pool) Fraction() float64 {
	if p.Max <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Max)
}

func (p *Pool) add(n int) int {
	before := p.Current
	p.Current += n
	if p.Current > p.Max {
		p.Current = p.Max
	}
	if p.Current < 0 {
		p.Current = 0
	}
	return p.Current - before
}

// Combatant is one participant in an encounter. Combatants are built from party
// and monster data at encounter start and owned by the State.
type Combatant struct {
	ID         CombatantID
	Name       string
	TemplateID string // monsters only
	Class      string // players only
	Race       string // players only
	Level      int
	HP         Pool
	SP         Pool
	Gems       int
	Stats      ruleset.Stats
	// Weapon is the basic attack for players.
	Weapon dice.Expression
	// Attacks, SpecialAttack and SpecialAttackChance drive monster attacks.
	Attacks             []npc.Attack
	SpecialAttack       *npc.Attack
	SpecialAttackChance int
	Spells              []string // spells a monster knows
	Regenerates         int
	Strategy            string
	Immunities          []string // elements, from the race or template
	MagicResistance     int      // percent, monsters only
	Inventory           *inventory.Backpack
	Conditions          *condition.ActiveSet
	Lifecycle           Lifecycle
}

// IsPlayer reports whether this combatant belongs to the party.
func (c *Combatant) IsPlayer() bool { return c.ID.Side == SidePlayer }

// IsActive reports whether the combatant still takes part in the fight.
func (c *Combatant) IsActive() bool { return c.Lifecycle == Active }

// CanAct reports whether the combatant is Active and not prevented from acting by a condition.
func (c *Combatant) CanAct() bool {
	return c.IsActive() && condition.CanAct(c.Conditions)
}

// ImmuneTo reports whether damage and conditions of element have no effect on c.
// The empty element is never resisted.
func (c *Combatant) ImmuneTo(element string) bool {
	return element != "" && slices.Contains(c.Immunities, element)
}

// EffectiveStats returns Stats adjusted by active condition modifiers.
func (c *Combatant) EffectiveStats() ruleset.Stats {
	m := condition.Totals(c.Conditions)
	s := c.Stats
	s.Accuracy += m.Accuracy
	s.Evasion += m.Evasion
	s.Speed += m.Speed
	s.Might += m.Might
	return s
}

// DamageReduction returns the flat damage reduction granted by conditions, never negative.
func (c *Combatant) DamageReduction() int {
	dr := condition.Totals(c.Conditions).DamageReduction
	if dr < 0 {
		return 0
	}
	return dr
}

// ApplyDamage reduces HP by amount, flooring at zero. When this call takes HP
// from above zero to zero the combatant goes down: players become Unconscious,
// monsters become Dead.
//
// Precondition: amount >= 0.
// Postcondition: HP.Current >= 0; downed is true iff this call caused the transition.
func (c *Combatant) ApplyDamage(amount int) (newHP int, downed bool) {
	if amount < 0 {
		panic("combat: ApplyDamage called with negative amount")
	}
	before := c.HP.Current
	c.HP.add(-amount)
	if before > 0 && c.HP.Current == 0 && c.Lifecycle == Active {
		downed = true
		if c.IsPlayer() {
			c.Lifecycle = Unconscious
		} else {
			c.Lifecycle = Dead
		}
	}
	return c.HP.Current, downed
}

// Heal restores up to amount HP, clamped at Max. It is a no-op unless the
// combatant is Active; use Revive for unconscious party members.
//
// Postcondition: returns the HP actually restored.
func (c *Combatant) Heal(amount int) int {
	if c.Lifecycle != Active || amount <= 0 {
		return 0
	}
	return c.HP.add(amount)
}

// Revive returns an Unconscious combatant to Active with at least 1 HP.
//
// Postcondition: returns false and changes nothing unless the combatant was Unconscious.
func (c *Combatant) Revive(hp int) bool {
	if c.Lifecycle != Unconscious {
		return false
	}
	if hp < 1 {
		hp = 1
	}
	c.Lifecycle = Active
	c.HP.add(hp)
	return true
}

// RestoreSP restores up to amount SP, clamped at Max.
func (c *Combatant) RestoreSP(amount int) int {
	if c.Lifecycle != Active || amount <= 0 {
		return 0
	}
	return c.SP.add(amount)
}

// DeductSP removes amount SP.
//
// Postcondition: on shortfall returns an InsufficientResource *ValidationError and SP is unchanged.
func (c *Combatant) DeductSP(amount int) error {
	if amount > c.SP.Current {
		return insufficient("sp", amount, c.SP.Current)
	}
	c.SP.Current -= amount
	return nil
}

// DeductGems removes amount gems.
//
// Postcondition: on shortfall returns an InsufficientResource *ValidationError and Gems is unchanged.
func (c *Combatant) DeductGems(amount int) error {
	if amount > c.Gems {
		return insufficient("gems", amount, c.Gems)
	}
	c.Gems -= amount
	return nil
}

// AddCondition applies def for duration rounds (0 = definition default) at magnitude.
func (c *Combatant) AddCondition(def *condition.Definition, duration int, magnitude float64) error {
	return c.Conditions.Apply(def, duration, magnitude)
}

// ConditionTick records the round-end effect of one condition on one combatant.
type ConditionTick struct {
	ConditionID string
	Damage      int
	Healing     int
	Downed      bool
	Expired     bool
}

// TickConditions applies every active condition's damage-over-time and
// heal-over-time (base dice × magnitude, minimum 1), runs any lua_on_tick hook,
// then decrements durations and removes expired conditions. Damage-over-time of
// an element c is immune to is skipped.
//
// Precondition: roller must not be nil; hook may be nil.
// Postcondition: Triggered ticks come first in application order, followed by expiries.
func (c *Combatant) TickConditions(roller *dice.Roller, hook TickHook, round int) ([]ConditionTick, error) {
	var ticks []ConditionTick
	for _, ac := range c.Conditions.All() {
		dmg := 0
		if !c.ImmuneTo(ac.Def.Element) {
			dmg = scaled(roller, "damage over time", ac.Def.DamageOverTime, ac.Magnitude)
		}
		heal := scaled(roller, "heal over time", ac.Def.HealOverTime, ac.Magnitude)
		if hook != nil && ac.Def.LuaOnTick != "" {
			extra, err := hook.OnTick(ac.Def.LuaOnTick, c.ID.String(), c.HP.Current, c.HP.Max, round)
			if err != nil {
				return ticks, fmt.Errorf("condition %q hook %q on %s: %w", ac.Def.ID, ac.Def.LuaOnTick, c.ID, err)
			}
			if extra > 0 {
				dmg += extra
			} else {
				heal -= extra
			}
		}
		if dmg == 0 && heal == 0 {
			continue
		}
		t := ConditionTick{ConditionID: ac.Def.ID}
		if dmg > 0 {
			before := c.HP.Current
			_, t.Downed = c.ApplyDamage(dmg)
			t.Damage = before - c.HP.Current
		}
		t.Healing = c.Heal(heal)
		ticks = append(ticks, t)
	}
	for _, id := range c.Conditions.Tick() {
		ticks = append(ticks, ConditionTick{ConditionID: id, Expired: true})
	}
	return ticks, nil
}

func scaled(roller *dice.Roller, purpose string, expr dice.Expression, magnitude float64) int {
	if expr.IsZero() {
		return 0
	}
	v := int(float64(roller.Roll(purpose, expr).Total()) * magnitude)
	if v < 1 {
		v = 1
	}
	return v
}

// Clone returns a deep copy of the combatant. Definitions are shared.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	cp.Attacks = append([]npc.Attack(nil), c.Attacks...)
	cp.Spells = append([]string(nil), c.Spells...)
	cp.Immunities = append([]string(nil), c.Immunities...)
	if c.SpecialAttack != nil {
		sa := *c.SpecialAttack
		cp.SpecialAttack = &sa
	}
	cp.Inventory = c.Inventory.Clone()
	cp.Conditions = c.Conditions.Clone()
	return &cp
}
