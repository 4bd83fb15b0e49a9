package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// maxIdleRounds bounds consecutive rounds in which nobody can act.
const maxIdleRounds = 100

// Act validates and resolves action for actor, then advances the schedule to
// the next combatant able to act (ending rounds as needed).
//
// Postcondition: a *ValidationError leaves s untouched. A *ResolutionError marks
// the encounter Aborted and is returned together with the partial result.
func Act(s *State, rules *Rules, actor CombatantID, action TurnAction) (*ActionResult, error) {
	v, err := Validate(s, rules, actor, action)
	if err != nil {
		return nil, err
	}
	res, err := Resolve(s, rules, v)
	if err != nil {
		return res, abort(s, err, res)
	}
	events, err := advance(s, rules, actor)
	res.Events = append(res.Events, events...)
	if err != nil {
		return res, abort(s, err, res)
	}
	return res, nil
}

func abort(s *State, err error, res *ActionResult) error {
	s.Fail(err)
	if res != nil {
		res.emit(s, Event{Kind: EventEncounterResolved, Status: Aborted, Message: err.Error()})
	}
	return err
}

// begin starts round 1.
func begin(s *State, rules *Rules) ([]Event, error) {
	s.Round = 1
	s.Order = ComputeOrder(s)
	s.Current = 0
	s.Phase = AwaitingAction
	events := []Event{roundStarted(s)}
	if st := Detect(s); st.Terminal() {
		return append(events, finish(s, st)), nil
	}
	more, err := settle(s, rules)
	return append(events, more...), err
}

// advance moves past actor after its action was resolved.
func advance(s *State, rules *Rules, actor CombatantID) ([]Event, error) {
	if st := Detect(s); st.Terminal() {
		return []Event{finish(s, st)}, nil
	}
	// A fled actor was already removed, leaving Current on the next combatant.
	if s.Current < len(s.Order) && s.Order[s.Current] == actor {
		s.Current++
	}
	return settle(s, rules)
}

// settle moves Current forward to the next combatant able to act, skipping
// downed ones silently and emitting TurnSkipped for incapacitated ones. Rounds
// that run out are ended and the next begun. A defensive stance ends when its
// holder's turn comes up, whether or not the holder can act.
func settle(s *State, rules *Rules) ([]Event, error) {
	var events []Event
	for idle := 0; ; idle++ {
		if idle > maxIdleRounds {
			return events, corrupt("schedule", "no combatant could act for %d rounds", maxIdleRounds)
		}
		for s.Current < len(s.Order) {
			c, ok := s.Get(s.Order[s.Current])
			if !ok {
				return events, corrupt("schedule", "order names unknown combatant %s", s.Order[s.Current])
			}
			if !c.IsActive() {
				s.Current++
				continue
			}
			events = append(events, dropStance(s, c)...)
			if !c.CanAct() {
				events = append(events, Event{
					Kind:    EventTurnSkipped,
					Round:   s.Round,
					Actor:   c.ID,
					Message: fmt.Sprintf("%s cannot act.", c.Name),
				})
				s.Current++
				continue
			}
			s.Phase = AwaitingAction
			return events, nil
		}
		more, err := endRound(s, rules)
		events = append(events, more...)
		if err != nil || s.Status.Terminal() {
			return events, err
		}
	}
}

// endRound ticks conditions, regenerates monsters, re-rolls the initiative order
// and, unless the encounter ended, starts the next round.
func endRound(s *State, rules *Rules) ([]Event, error) {
	s.Phase = RoundEnd
	var events []Event
	for _, c := range s.All() {
		if c.Lifecycle == Dead || c.Lifecycle == Fled {
			continue
		}
		ticks, err := c.TickConditions(s.roller, rules.Hook, s.Round)
		if err != nil {
			return events, &ResolutionError{Op: "round_end", Detail: "condition tick", Err: err}
		}
		for _, t := range ticks {
			events = append(events, tickEvents(s, c, t)...)
		}
	}
	for _, m := range s.Monsters {
		if m.Regenerates <= 0 {
			continue
		}
		if n := m.Heal(m.Regenerates); n > 0 {
			events = append(events, Event{
				Kind:    EventHealed,
				Round:   s.Round,
				Actor:   m.ID,
				Target:  m.ID,
				Amount:  n,
				Message: fmt.Sprintf("%s regenerates %d hit points.", m.Name, n),
			})
		}
	}
	s.Order = ComputeOrder(s)
	s.Current = 0
	if st := Detect(s); st.Terminal() {
		return append(events, finish(s, st)), nil
	}
	s.Round++
	s.Phase = AwaitingAction
	return append(events, roundStarted(s)), nil
}

// dropStance removes c's defending condition at the start of its turn.
func dropStance(s *State, c *Combatant) []Event {
	if !c.Conditions.Remove(condition.Defending) {
		return nil
	}
	return []Event{{
		Kind:      EventConditionExpired,
		Round:     s.Round,
		Target:    c.ID,
		Condition: condition.Defending,
		Message:   fmt.Sprintf("%s lowers their guard.", c.Name),
	}}
}

func tickEvents(s *State, c *Combatant, t ConditionTick) []Event {
	if t.Expired {
		return []Event{{
			Kind:      EventConditionExpired,
			Round:     s.Round,
			Target:    c.ID,
			Condition: t.ConditionID,
			Message:   fmt.Sprintf("%s is no longer affected by %s.", c.Name, t.ConditionID),
		}}
	}
	msg := fmt.Sprintf("%s is affected by %s.", c.Name, t.ConditionID)
	if t.Damage > 0 {
		msg = fmt.Sprintf("%s suffers %d damage from %s.", c.Name, t.Damage, t.ConditionID)
	}
	events := []Event{{
		Kind:      EventConditionTriggered,
		Round:     s.Round,
		Target:    c.ID,
		Condition: t.ConditionID,
		Amount:    t.Damage,
		Message:   msg,
	}}
	if t.Healing > 0 {
		events = append(events, Event{
			Kind:      EventHealed,
			Round:     s.Round,
			Target:    c.ID,
			Condition: t.ConditionID,
			Amount:    t.Healing,
			Message:   fmt.Sprintf("%s recovers %d hit points from %s.", c.Name, t.Healing, t.ConditionID),
		})
	}
	if t.Downed {
		e := downedEvent(c, CombatantID{})
		e.Round = s.Round
		e.Condition = t.ConditionID
		events = append(events, e)
	}
	return events
}

func finish(s *State, st Status) Event {
	s.Status = st
	s.Phase = Finished
	return Event{
		Kind:    EventEncounterResolved,
		Round:   s.Round,
		Status:  st,
		Message: fmt.Sprintf("The encounter ends: %s.", st),
	}
}

func roundStarted(s *State) Event {
	return Event{
		Kind:    EventRoundStarted,
		Round:   s.Round,
		Message: fmt.Sprintf("Round %d begins.", s.Round),
	}
}
