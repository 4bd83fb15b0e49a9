package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// Resolve applies a validated action to s using the encounter's seeded source.
// It leaves the scheduler in the Resolving phase; Act advances it.
//
// Precondition: v was returned by Validate against the current state.
// Postcondition: a non-nil error is always a *ResolutionError and the encounter
// must be aborted. Once the actor is known the result is returned alongside the
// error, holding every event and effect applied before the failure.
func Resolve(s *State, rules *Rules, v ValidatedAction) (*ActionResult, error) {
	actor, ok := s.Get(v.actor)
	if !ok {
		return nil, corrupt("resolve", "actor %s does not exist", v.actor)
	}
	s.Phase = Resolving
	res := &ActionResult{Actor: v.actor, Action: v.action}

	var err error
	switch a := v.action.(type) {
	case Attack:
		err = resolveAttack(s, rules, actor, v.targets, res)
	case Defend:
		err = resolveDefend(s, rules, actor, res)
	case Flee:
		resolveFlee(s, actor, res)
	case CastSpell:
		if v.spell == nil || v.spell.ID != a.SpellID {
			return res, corrupt("resolve", "spell %q was not validated", a.SpellID)
		}
		err = resolveSpell(s, rules, actor, v.spell, v.targets, res)
	case UseItem:
		if v.item == nil || v.item.ID != a.ItemID {
			return res, corrupt("resolve", "item %q was not validated", a.ItemID)
		}
		err = resolveItem(s, rules, actor, v.item, v.targets, res)
	default:
		err = corrupt("resolve", "unsupported action %T", v.action)
	}
	return res, err
}

// attackThreshold is the d20 roll needed to hit.
func attackThreshold(attacker, target *Combatant) int {
	t := 10 + target.EffectiveStats().Evasion - attacker.EffectiveStats().Accuracy
	return clamp(t, 2, 20)
}

func resolveAttack(s *State, rules *Rules, actor *Combatant, targets []CombatantID, res *ActionResult) error {
	if len(targets) != 1 {
		return corrupt("attack", "expected one target, got %d", len(targets))
	}
	target, ok := s.Get(targets[0])
	if !ok {
		return corrupt("attack", "target %s does not exist", targets[0])
	}
	weapon, err := chooseAttack(s, actor)
	if err != nil {
		return err
	}
	roll := s.roller.D20("attack")
	eff := Effect{Target: target.ID}
	if roll != 20 && roll < attackThreshold(actor, target) {
		res.Effects = append(res.Effects, eff)
		res.emit(s, Event{
			Kind:    EventAttackMissed,
			Actor:   actor.ID,
			Target:  target.ID,
			Roll:    roll,
			Message: fmt.Sprintf("%s misses %s.", actor.Name, target.Name),
		})
		return nil
	}
	eff.Hit = true
	dmg := s.roller.Roll(weapon.Name, weapon.Damage).Total() + ruleset.ScoreBonus(actor.EffectiveStats().Might)
	if dmg < 1 {
		dmg = 1
	}
	dmg -= target.DamageReduction()
	if dmg < 0 {
		dmg = 0
	}
	res.emit(s, Event{
		Kind:    EventAttackHit,
		Actor:   actor.ID,
		Target:  target.ID,
		Roll:    roll,
		Message: fmt.Sprintf("%s hits %s with %s.", actor.Name, target.Name, weapon.Name),
	})
	if immune(s, actor, target, weapon.Element, res) {
		eff.Resisted = true
		dmg = 0
	}
	eff.Damage = damage(s, actor, target, dmg, res)
	if weapon.Condition != "" && target.IsActive() {
		def, ok := rules.Conditions.Get(weapon.Condition)
		if !ok {
			return corrupt("attack", "%s references unknown condition %q", weapon.Name, weapon.Condition)
		}
		if immune(s, actor, target, def.Element, res) {
			eff.Resisted = true
			res.Effects = append(res.Effects, eff)
			return nil
		}
		if err := target.AddCondition(def, weapon.ConditionDuration, 1); err != nil {
			return &ResolutionError{Op: "attack", Detail: "apply condition", Err: err}
		}
		eff.Condition = def.ID
		conditionApplied(s, actor, target, def.ID, res)
	}
	res.Effects = append(res.Effects, eff)
	return nil
}

// chooseAttack picks a monster's special attack by chance, otherwise its first
// attack. Players attack with their class weapon.
func chooseAttack(s *State, actor *Combatant) (npc.Attack, error) {
	if actor.IsPlayer() {
		return npc.Attack{Name: "weapon", Damage: actor.Weapon}, nil
	}
	if actor.SpecialAttack != nil && actor.SpecialAttackChance > 0 {
		if s.roller.Percent("special attack") <= actor.SpecialAttackChance {
			return *actor.SpecialAttack, nil
		}
	}
	if len(actor.Attacks) == 0 {
		return npc.Attack{}, corrupt("attack", "monster %s has no attacks", actor.ID)
	}
	return actor.Attacks[0], nil
}

// defendRounds outlasts the round-end tick that follows the stance; the
// defender's next turn removes it earlier (see dropStance).
const defendRounds = 2

func resolveDefend(s *State, rules *Rules, actor *Combatant, res *ActionResult) error {
	def := rules.defending()
	if err := actor.AddCondition(def, defendRounds, 1); err != nil {
		return &ResolutionError{Op: "defend", Detail: "apply defending", Err: err}
	}
	res.Effects = append(res.Effects, Effect{Target: actor.ID, Condition: def.ID})
	res.emit(s, Event{
		Kind:      EventDefendStance,
		Actor:     actor.ID,
		Target:    actor.ID,
		Condition: def.ID,
		Message:   fmt.Sprintf("%s takes a defensive stance.", actor.Name),
	})
	return nil
}

// FleeChance returns the percent chance that actor escapes: 50 plus 5 per point
// of speed over the average speed of the Active opposition, clamped to [5, 95].
func FleeChance(s *State, actor *Combatant) int {
	speed := actor.EffectiveStats().Speed
	opposing := s.ActiveOn(actor.ID.Side.Opposing())
	avg := speed
	if len(opposing) > 0 {
		sum := 0
		for _, c := range opposing {
			sum += c.EffectiveStats().Speed
		}
		avg = floorDiv(sum, len(opposing))
	}
	return clamp(50+5*(speed-avg), 5, 95)
}

func resolveFlee(s *State, actor *Combatant, res *ActionResult) {
	chance := FleeChance(s, actor)
	roll := s.roller.Percent("flee")
	res.emit(s, Event{
		Kind:    EventFleeAttempted,
		Actor:   actor.ID,
		Amount:  chance,
		Roll:    roll,
		Message: fmt.Sprintf("%s tries to flee.", actor.Name),
	})
	if roll > chance {
		res.emit(s, Event{
			Kind:    EventFleeFailed,
			Actor:   actor.ID,
			Roll:    roll,
			Message: fmt.Sprintf("%s could not get away!", actor.Name),
		})
		return
	}
	actor.Lifecycle = Fled
	removeFromOrder(s, actor.ID)
	if actor.IsPlayer() && s.Options.PartyFleeEndsEncounter {
		s.partyFled = true
	}
	res.Effects = append(res.Effects, Effect{Target: actor.ID})
	res.emit(s, Event{
		Kind:    EventFleeSucceeded,
		Actor:   actor.ID,
		Roll:    roll,
		Message: fmt.Sprintf("%s flees!", actor.Name),
	})
}

// removeFromOrder drops id from the initiative order, keeping Current on the
// same upcoming combatant.
func removeFromOrder(s *State, id CombatantID) {
	for i, o := range s.Order {
		if o != id {
			continue
		}
		s.Order = append(s.Order[:i], s.Order[i+1:]...)
		if i < s.Current {
			s.Current--
		}
		return
	}
}

// SaveTarget is the total a saving throw must reach against a spell of tier.
func SaveTarget(tier int) int { return 10 + 2*tier }

func savingThrow(s *State, target *Combatant, spell *magic.Spell) (bool, int) {
	roll := s.roller.D20("saving throw")
	total := roll + target.Level/2 + ruleset.ScoreBonus(target.EffectiveStats().Luck)
	return total >= SaveTarget(spell.Tier), roll
}

func resolveSpell(s *State, rules *Rules, caster *Combatant, spell *magic.Spell, targets []CombatantID, res *ActionResult) error {
	if err := caster.DeductSP(spell.SPCost); err != nil {
		return &ResolutionError{Op: "cast", Detail: "deduct sp", Err: err}
	}
	if err := caster.DeductGems(spell.GemCost); err != nil {
		return &ResolutionError{Op: "cast", Detail: "deduct gems", Err: err}
	}
	res.SPSpent, res.GemsSpent = spell.SPCost, spell.GemCost
	res.emit(s, Event{
		Kind:    EventSpellCast,
		Actor:   caster.ID,
		Spell:   spell.ID,
		Amount:  spell.SPCost,
		Message: fmt.Sprintf("%s casts %s.", caster.Name, spell.Name),
	})

	var def *condition.Definition
	if spell.Condition != "" {
		d, ok := rules.Conditions.Get(spell.Condition)
		if !ok {
			return corrupt("cast", "spell %q references unknown condition %q", spell.ID, spell.Condition)
		}
		def = d
	}
	for _, id := range targets {
		target, ok := s.Get(id)
		if !ok {
			return corrupt("cast", "target %s does not exist", id)
		}
		eff := Effect{Target: id}
		if !target.IsActive() {
			res.Effects = append(res.Effects, eff)
			continue
		}
		if magic.TargetsEnemies(spell.Target) && target.MagicResistance > 0 {
			if roll := s.roller.Percent("magic resistance"); roll <= target.MagicResistance {
				eff.Resisted = true
				res.Effects = append(res.Effects, eff)
				res.emit(s, Event{
					Kind:    EventResisted,
					Actor:   caster.ID,
					Target:  id,
					Spell:   spell.ID,
					Roll:    roll,
					Message: fmt.Sprintf("%s's magic resistance turns aside %s.", target.Name, spell.Name),
				})
				continue
			}
		}
		if spell.SavingThrow && magic.TargetsEnemies(spell.Target) {
			saved, roll := savingThrow(s, target, spell)
			if saved {
				eff.Saved = true
				res.emit(s, Event{
					Kind:    EventSaveSucceeded,
					Actor:   caster.ID,
					Target:  id,
					Spell:   spell.ID,
					Roll:    roll,
					Message: fmt.Sprintf("%s resists %s.", target.Name, spell.Name),
				})
			}
		}
		if !spell.Damage.IsZero() && immune(s, caster, target, spell.Element, res) {
			eff.Resisted = true
		} else if !spell.Damage.IsZero() {
			dmg := s.roller.Roll(spell.ID, spell.Damage).Total()
			if eff.Saved {
				dmg /= 2
			}
			eff.Damage = damage(s, caster, target, dmg, res)
		}
		if !spell.Heal.IsZero() {
			eff.Healing = heal(s, caster, target, s.roller.Roll(spell.ID, spell.Heal).Total(), res)
		}
		switch {
		case def == nil || eff.Saved || !target.IsActive():
		case immune(s, caster, target, def.Element, res):
			eff.Resisted = true
		default:
			if err := target.AddCondition(def, spell.ConditionDuration, spell.Magnitude); err != nil {
				return &ResolutionError{Op: "cast", Detail: "apply condition", Err: err}
			}
			eff.Condition = def.ID
			conditionApplied(s, caster, target, def.ID, res)
		}
		res.Effects = append(res.Effects, eff)
	}
	return nil
}

func resolveItem(s *State, rules *Rules, user *Combatant, item *inventory.ItemDef, targets []CombatantID, res *ActionResult) error {
	removed, err := user.Inventory.Consume(item)
	if err != nil {
		return &ResolutionError{Op: "use_item", Detail: "consume " + item.ID, Err: err}
	}
	res.ItemConsumed, res.ItemRemoved = item.ID, removed
	res.emit(s, Event{
		Kind:    EventItemUsed,
		Actor:   user.ID,
		Item:    item.ID,
		Message: fmt.Sprintf("%s uses %s.", user.Name, item.Name),
	})

	fx := item.Effect
	for _, id := range targets {
		target, ok := s.Get(id)
		if !ok {
			return corrupt("use_item", "target %s does not exist", id)
		}
		eff := Effect{Target: id}
		amount := rollAmount(s.roller, item.ID, fx.Amount)
		switch fx.Kind {
		case inventory.EffectHealHP:
			eff.Healing = heal(s, user, target, amount, res)
		case inventory.EffectRestoreSP:
			if n := target.RestoreSP(amount); n > 0 {
				res.emit(s, Event{
					Kind:    EventSPRestored,
					Actor:   user.ID,
					Target:  id,
					Amount:  n,
					Message: fmt.Sprintf("%s recovers %d spell points.", target.Name, n),
				})
			}
		case inventory.EffectCureCondition:
			if target.Conditions.Remove(fx.Condition) {
				eff.Cured = fx.Condition
				res.emit(s, Event{
					Kind:      EventConditionExpired,
					Actor:     user.ID,
					Target:    id,
					Condition: fx.Condition,
					Message:   fmt.Sprintf("%s is cured of %s.", target.Name, fx.Condition),
				})
			}
		case inventory.EffectApplyCondition:
			def, ok := rules.Conditions.Get(fx.Condition)
			if !ok {
				return corrupt("use_item", "item %q references unknown condition %q", item.ID, fx.Condition)
			}
			if !target.IsActive() {
				break
			}
			if immune(s, user, target, def.Element, res) {
				eff.Resisted = true
				break
			}
			if err := target.AddCondition(def, fx.Duration, fx.Magnitude); err != nil {
				return &ResolutionError{Op: "use_item", Detail: "apply condition", Err: err}
			}
			eff.Condition = def.ID
			conditionApplied(s, user, target, def.ID, res)
		case inventory.EffectDamage:
			if target.IsActive() && immune(s, user, target, fx.Element, res) {
				eff.Resisted = true
				break
			}
			eff.Damage = damage(s, user, target, amount, res)
		case inventory.EffectRevive:
			if target.Revive(amount) {
				eff.Revived = true
				eff.Healing = target.HP.Current
				res.emit(s, Event{
					Kind:    EventCombatantRevived,
					Actor:   user.ID,
					Target:  id,
					Amount:  target.HP.Current,
					Message: fmt.Sprintf("%s is revived!", target.Name),
				})
			}
		default:
			return corrupt("use_item", "item %q has unknown effect %q", item.ID, fx.Kind)
		}
		res.Effects = append(res.Effects, eff)
	}
	return nil
}

// damage applies amount to target, credits source in the damage ledger and
// emits the damage and any downed/died event. It returns the HP actually lost.
func damage(s *State, source, target *Combatant, amount int, res *ActionResult) int {
	if amount <= 0 || !target.IsActive() {
		return 0
	}
	before := target.HP.Current
	_, downed := target.ApplyDamage(amount)
	lost := before - target.HP.Current
	s.damageDealt[source.ID] += lost
	res.emit(s, Event{
		Kind:    EventDamageDealt,
		Actor:   source.ID,
		Target:  target.ID,
		Amount:  lost,
		Message: fmt.Sprintf("%s takes %d damage.", target.Name, lost),
	})
	if downed {
		res.emit(s, downedEvent(target, source.ID))
	}
	return lost
}

func heal(s *State, source, target *Combatant, amount int, res *ActionResult) int {
	n := target.Heal(amount)
	if n > 0 {
		res.emit(s, Event{
			Kind:    EventHealed,
			Actor:   source.ID,
			Target:  target.ID,
			Amount:  n,
			Message: fmt.Sprintf("%s recovers %d hit points.", target.Name, n),
		})
	}
	return n
}

// immune reports whether target is immune to element, emitting EventResisted
// when it is.
func immune(s *State, source, target *Combatant, element string, res *ActionResult) bool {
	if !target.ImmuneTo(element) {
		return false
	}
	res.emit(s, Event{
		Kind:    EventResisted,
		Actor:   source.ID,
		Target:  target.ID,
		Message: fmt.Sprintf("%s is immune to %s.", target.Name, element),
	})
	return true
}

func conditionApplied(s *State, source, target *Combatant, id string, res *ActionResult) {
	res.emit(s, Event{
		Kind:      EventConditionApplied,
		Actor:     source.ID,
		Target:    target.ID,
		Condition: id,
		Message:   fmt.Sprintf("%s is afflicted with %s.", target.Name, id),
	})
}

func downedEvent(target *Combatant, by CombatantID) Event {
	if target.IsPlayer() {
		return Event{
			Kind:    EventCombatantDowned,
			Actor:   by,
			Target:  target.ID,
			Message: fmt.Sprintf("%s falls unconscious!", target.Name),
		}
	}
	return Event{
		Kind:    EventCombatantDied,
		Actor:   by,
		Target:  target.ID,
		Message: fmt.Sprintf("%s is slain!", target.Name),
	}
}

func rollAmount(r *dice.Roller, purpose string, expr dice.Expression) int {
	if expr.IsZero() {
		return 0
	}
	return r.Roll(purpose, expr).Total()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
