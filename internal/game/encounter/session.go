package encounter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/reward"
)

// Session is one running encounter. Its methods are safe for concurrent use but
// actions are applied strictly one at a time.
type Session struct {
	mu         sync.Mutex
	id         uuid.UUID
	state      *combat.State
	rules      *combat.Rules
	strategies *ai.Registry
	templates  reward.TemplateSet
	rewards    *reward.Bundle
	rewardErr  error
	log        []combat.Event
	logger     *zap.Logger
	sinks      []EventSink
}

// ID returns the encounter ID.
func (s *Session) ID() uuid.UUID { return s.id }

// Submit resolves a party member's action.
//
// Precondition: actor is the current actor and is a party member.
// Postcondition: a *combat.ValidationError leaves the encounter unchanged. A
// *combat.ResolutionError aborts the encounter; the partial result is returned
// with it.
func (s *Session) Submit(actor combat.CombatantID, action combat.TurnAction) (*combat.ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor.Side != combat.SidePlayer {
		return nil, ErrMonsterActor
	}
	return s.act(actor, action)
}

// Step resolves one monster turn chosen by the monster's strategy.
//
// Postcondition: returns ErrAwaitingPlayer when a party member is up, and an
// error matching combat.ErrEncounterOver once the encounter has ended.
func (s *Session) Step() (*combat.ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

// RunMonsters steps until a party member is up or the encounter ends.
//
// Postcondition: returns every result produced, in order.
func (s *Session) RunMonsters() ([]*combat.ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*combat.ActionResult
	for !s.state.Status.Terminal() {
		res, err := s.step()
		if errors.Is(err, ErrAwaitingPlayer) {
			return out, nil
		}
		if res != nil {
			out = append(out, res)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Session) step() (*combat.ActionResult, error) {
	actor, ok := s.state.CurrentActor()
	if !ok {
		return nil, fmt.Errorf("encounter %s: %w", s.id, combat.ErrEncounterOver)
	}
	if actor.IsPlayer() {
		return nil, ErrAwaitingPlayer
	}
	strategy, _ := s.strategies.Get(actor.Strategy)
	action := ai.SelectAction(s.state, s.rules, actor, strategy)
	return s.act(actor.ID, action)
}

func (s *Session) act(actor combat.CombatantID, action combat.TurnAction) (*combat.ActionResult, error) {
	res, err := combat.Act(s.state, s.rules, actor, action)
	var verr *combat.ValidationError
	if errors.As(err, &verr) {
		s.logger.Debug("action rejected",
			zap.Stringer("actor", actor),
			zap.String("action", action.Kind()),
			zap.String("reason", verr.Message()),
		)
		return nil, err
	}
	if res != nil {
		s.logger.Info("action resolved",
			zap.Stringer("actor", actor),
			zap.String("action", action.Kind()),
			zap.Int("round", s.state.Round),
			zap.Int("events", len(res.Events)),
		)
		s.publish(res.Events)
	}
	if err != nil {
		s.logger.Error("encounter aborted", zap.Error(err))
		return res, err
	}
	if s.state.Status.Terminal() {
		s.resolved()
	}
	return res, nil
}

// resolved computes rewards once, on the action that ended the encounter.
func (s *Session) resolved() {
	s.logger.Info("encounter resolved",
		zap.Stringer("status", s.state.Status),
		zap.Int("rounds", s.state.Round),
	)
	if s.state.Status != combat.Victory || s.rewards != nil || s.rewardErr != nil {
		return
	}
	b, err := reward.Calculate(s.state, s.templates, s.state.Rand())
	if err != nil {
		s.logger.Error("calculating rewards", zap.Error(err))
		s.rewardErr = fmt.Errorf("encounter: calculating rewards: %w", err)
		return
	}
	s.rewards = b
	s.logger.Info("rewards",
		zap.Int("experience", b.Experience()),
		zap.Int("currency", b.Currency()),
		zap.Int("gems", b.Gems()),
		zap.Int("items", len(b.Items())),
	)
}

// Abort force-ends the encounter as FledSuccessfully.
//
// Postcondition: returns false when the encounter had already ended.
func (s *Session) Abort(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Abort(reason) {
		return false
	}
	s.logger.Warn("encounter aborted by caller", zap.String("reason", reason))
	s.publish([]combat.Event{{
		Kind:    combat.EventEncounterResolved,
		Round:   s.state.Round,
		Status:  s.state.Status,
		Message: reason,
	}})
	return true
}

// Rewards returns the bundle earned by a victorious party.
//
// Postcondition: returns reward.ErrNoRewards unless the encounter ended in Victory,
// or the reward calculation error when a victory could not be paid out.
func (s *Session) Rewards() (*reward.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rewardErr != nil {
		return nil, s.rewardErr
	}
	if s.rewards == nil {
		return nil, reward.ErrNoRewards
	}
	return s.rewards, nil
}

// State returns a deep copy of the encounter state.
func (s *Session) State() combat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Status returns the current outcome.
func (s *Session) Status() combat.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

// Current returns the ID of the combatant whose turn it is.
func (s *Session) Current() (combat.CombatantID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.CurrentActor()
	if !ok {
		return combat.CombatantID{}, false
	}
	return c.ID, true
}

// Events returns a copy of every event produced so far.
func (s *Session) Events() []combat.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]combat.Event(nil), s.log...)
}

// FleeChance reports actor's current chance to escape, in percent.
func (s *Session) FleeChance(actor combat.CombatantID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.Get(actor)
	if !ok {
		return 0, false
	}
	return combat.FleeChance(s.state, c), true
}

func (s *Session) publish(events []combat.Event) {
	if len(events) == 0 {
		return
	}
	s.log = append(s.log, events...)
	for _, sink := range s.sinks {
		sink.Publish(s.id, events)
	}
}
