package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/magic"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
)

// ValidatedAction is an action that passed Validate, with its targets resolved
// in left-to-right order. Only Validate constructs one.
type ValidatedAction struct {
	actor   CombatantID
	action  TurnAction
	targets []CombatantID
	spell   *magic.Spell
	item    *inventory.ItemDef
}

// Actor returns the acting combatant.
func (v ValidatedAction) Actor() CombatantID { return v.actor }

// Action returns the submitted action.
func (v ValidatedAction) Action() TurnAction { return v.action }

// Targets returns the resolved targets.
func (v ValidatedAction) Targets() []CombatantID {
	return append([]CombatantID(nil), v.targets...)
}

// Validate checks whether actor may perform action now. It never modifies s.
//
// Precondition: s and rules are non-nil.
// Postcondition: returns a *ValidationError on rejection.
func Validate(s *State, rules *Rules, actor CombatantID, action TurnAction) (ValidatedAction, error) {
	if s.Status.Terminal() {
		return ValidatedAction{}, reject(EncounterOver, "encounter ended with %s", s.Status)
	}
	cur, ok := s.CurrentActor()
	if !ok || s.Phase != AwaitingAction || cur.ID != actor {
		return ValidatedAction{}, reject(NotYourTurn, "%s may not act now", actor)
	}
	if !cur.IsActive() {
		return ValidatedAction{}, reject(NotYourTurn, "%s is %s", actor, cur.Lifecycle)
	}
	v := ValidatedAction{actor: actor, action: action}

	switch a := action.(type) {
	case Attack:
		target, err := singleTarget(s, cur, a.Target, true)
		if err != nil {
			return ValidatedAction{}, err
		}
		v.targets = []CombatantID{target.ID}

	case Defend:
		v.targets = []CombatantID{actor}

	case Flee:
		if !s.Options.CanFlee {
			return ValidatedAction{}, reject(InvalidContext, "there is no escape from this encounter")
		}
		v.targets = []CombatantID{actor}

	case CastSpell:
		spell, err := validateSpell(s, rules, cur, a)
		if err != nil {
			return ValidatedAction{}, err
		}
		targets, err := resolveTargets(s, cur, spell.Target, a.Target)
		if err != nil {
			return ValidatedAction{}, err
		}
		v.spell, v.targets = spell, targets

	case UseItem:
		def, targets, err := validateItem(s, rules, cur, a)
		if err != nil {
			return ValidatedAction{}, err
		}
		v.item, v.targets = def, targets

	default:
		return ValidatedAction{}, reject(InvalidContext, "unsupported action %T", action)
	}
	return v, nil
}

func validateSpell(s *State, rules *Rules, caster *Combatant, a CastSpell) (*magic.Spell, error) {
	if condition.IsSilenced(caster.Conditions) {
		return nil, reject(Silenced, "%s is silenced", caster.Name)
	}
	spell, ok := rules.Spells.Get(a.SpellID)
	if !ok {
		return nil, reject(UnknownSpell, "no spell %q", a.SpellID)
	}
	if caster.IsPlayer() {
		class, ok := rules.Classes.Class(caster.Class)
		if !ok || !class.CanCast(spell.School) {
			return nil, reject(WrongSchoolOrClass, "%s cannot cast %s spells", caster.Class, spell.School)
		}
		required := class.RequiredLevel(spell.RequiredLevel())
		if caster.Level < required {
			return nil, &ValidationError{
				Kind:     LevelTooLow,
				Level:    caster.Level,
				Required: required,
				Detail:   "level too low for " + spell.ID,
			}
		}
	} else if !knows(caster.Spells, spell.ID) {
		return nil, reject(UnknownSpell, "%s does not know %s", caster.Name, spell.ID)
	}
	if caster.SP.Current < spell.SPCost {
		return nil, insufficient("sp", spell.SPCost, caster.SP.Current)
	}
	if caster.Gems < spell.GemCost {
		return nil, insufficient("gems", spell.GemCost, caster.Gems)
	}
	if !spell.PermitsCombat() {
		return nil, reject(InvalidContext, "%s cannot be cast in combat", spell.ID)
	}
	if !spell.PermitsLocation(s.Options.Outdoors) {
		return nil, reject(InvalidContext, "%s cannot be cast here (context %s)", spell.ID, spell.Context)
	}
	return spell, nil
}

func validateItem(s *State, rules *Rules, user *Combatant, a UseItem) (*inventory.ItemDef, []CombatantID, error) {
	slot, ok := user.Inventory.Find(a.ItemID)
	if !ok {
		return nil, nil, reject(ItemNotFound, "%s is not carrying %q", user.Name, a.ItemID)
	}
	def, ok := rules.Items.Item(a.ItemID)
	if !ok {
		return nil, nil, reject(ItemNotFound, "no item definition %q", a.ItemID)
	}
	if !def.CombatUsable {
		return nil, nil, reject(InvalidContext, "%s cannot be used in combat", def.ID)
	}
	if def.ChargeBased() && slot.Charges <= 0 {
		return nil, nil, reject(NoChargesRemaining, "%s is drained", def.ID)
	}
	if user.IsPlayer() {
		class, _ := rules.Classes.Class(user.Class)
		race, _ := rules.Classes.Race(user.Race)
		if tag := ruleset.ForbiddenTag(class, race, def.Tags); tag != "" {
			return nil, nil, reject(ItemRestricted, "%s may not use %s items", user.Name, tag)
		}
	}
	if def.Revives() {
		if def.Target != magic.TargetSingleAlly {
			return nil, nil, reject(InvalidTarget, "%s must target a single ally", def.ID)
		}
		target, ok := s.Get(a.Target)
		if !ok || target.ID.Side != user.ID.Side || target.Lifecycle != Unconscious {
			return nil, nil, reject(InvalidTarget, "%s can only revive an unconscious ally", def.ID)
		}
		return def, []CombatantID{target.ID}, nil
	}
	targets, err := resolveTargets(s, user, def.Target, a.Target)
	if err != nil {
		return nil, nil, err
	}
	return def, targets, nil
}

// resolveTargets expands a target kind into concrete targets in roster order.
func resolveTargets(s *State, actor *Combatant, kind string, explicit CombatantID) ([]CombatantID, error) {
	switch kind {
	case magic.TargetSelf:
		return []CombatantID{actor.ID}, nil
	case magic.TargetSingleAlly:
		t, err := singleTarget(s, actor, explicit, false)
		if err != nil {
			return nil, err
		}
		return []CombatantID{t.ID}, nil
	case magic.TargetSingleEnemy:
		t, err := singleTarget(s, actor, explicit, true)
		if err != nil {
			return nil, err
		}
		return []CombatantID{t.ID}, nil
	case magic.TargetAllAllies, magic.TargetAllEnemies:
		side := actor.ID.Side
		if kind == magic.TargetAllEnemies {
			side = side.Opposing()
		}
		var ids []CombatantID
		for _, c := range s.ActiveOn(side) {
			ids = append(ids, c.ID)
		}
		if len(ids) == 0 {
			return nil, reject(InvalidTarget, "no living targets")
		}
		return ids, nil
	default:
		return nil, reject(InvalidTarget, "unknown target kind %q", kind)
	}
}

func singleTarget(s *State, actor *Combatant, id CombatantID, enemy bool) (*Combatant, error) {
	target, ok := s.Get(id)
	if !ok {
		return nil, reject(InvalidTarget, "no combatant %s", id)
	}
	if enemy && target.ID.Side == actor.ID.Side {
		return nil, reject(InvalidTarget, "%s is an ally", target.Name)
	}
	if !enemy && target.ID.Side != actor.ID.Side {
		return nil, reject(InvalidTarget, "%s is an enemy", target.Name)
	}
	if !target.IsActive() {
		return nil, reject(InvalidTarget, "%s is %s", target.Name, target.Lifecycle)
	}
	return target, nil
}

func knows(spells []string, id string) bool {
	for _, s := range spells {
		if s == id {
			return true
		}
	}
	return false
}
