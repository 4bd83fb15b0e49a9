// Package encounter runs combat encounters on behalf of a caller: it owns the
// live state, drives monster turns through the AI, fans events out to sinks and
// computes rewards once the party wins.
package encounter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
	"github.com/cory-johannsen/skirmish/internal/game/reward"
)

var (
	// ErrAwaitingPlayer is returned by Step when the current actor is a party member.
	ErrAwaitingPlayer = errors.New("encounter: awaiting a player action")
	// ErrMonsterActor is returned by Submit when the submitted actor is a
	// monster, whoever holds the turn.
	ErrMonsterActor = errors.New("encounter: monsters act through Step")
	// ErrNotFound is returned for unknown encounter IDs.
	ErrNotFound = errors.New("encounter: not found")
)

// Manager tracks every running encounter, keyed by ID.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	rules      *combat.Rules
	strategies *ai.Registry
	logger     *zap.Logger
	sinks      []EventSink
}

// NewManager creates an empty Manager.
//
// Precondition: rules and strategies must not be nil.
// Postcondition: Returns a non-nil Manager ready for use.
func NewManager(rules *combat.Rules, strategies *ai.Registry, logger *zap.Logger) *Manager {
	if rules == nil || strategies == nil {
		panic("encounter.NewManager: rules and strategies must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:   make(map[uuid.UUID]*Session),
		rules:      rules,
		strategies: strategies,
		logger:     logger,
	}
}

// AddSink registers sink for every encounter started afterwards.
func (m *Manager) AddSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Start begins a new encounter. A zero seed is replaced with a fresh random one;
// the chosen seed is reported in the snapshot.
//
// Precondition: every monster strategy is registered with the Manager's ai.Registry.
// Postcondition: the returned Session is tracked until End is called. Opening
// events have already been delivered to the sinks.
func (m *Manager) Start(party character.PartySnapshot, monsters []*npc.Template, opts combat.Options) (*Session, error) {
	for _, tmpl := range monsters {
		if tmpl == nil {
			return nil, fmt.Errorf("encounter: nil monster template")
		}
		if _, ok := m.strategies.Get(tmpl.Strategy); !ok {
			return nil, fmt.Errorf("encounter: monster %q uses unknown strategy %q", tmpl.ID, tmpl.Strategy)
		}
	}
	if opts.Seed == 0 {
		seed, err := dice.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("encounter: %w", err)
		}
		opts.Seed = seed
	}
	id := uuid.New()
	logger := m.logger.With(zap.String("encounter", id.String()))
	if opts.Logger == nil {
		opts.Logger = logger.Named("dice")
	}
	s, opening, err := combat.NewState(party, monsters, opts, m.rules)
	if err != nil {
		return nil, fmt.Errorf("encounter: starting: %w", err)
	}

	m.mu.Lock()
	sess := &Session{
		id:         id,
		state:      s,
		rules:      m.rules,
		strategies: m.strategies,
		templates:  reward.IndexTemplates(monsters),
		logger:     logger,
		sinks:      append([]EventSink(nil), m.sinks...),
	}
	m.sessions[id] = sess
	m.mu.Unlock()

	logger.Info("encounter started",
		zap.Int64("seed", opts.Seed),
		zap.Int("party", len(s.Party)),
		zap.Int("monsters", len(s.Monsters)),
		zap.String("handicap", string(opts.Handicap)),
	)
	sess.mu.Lock()
	sess.publish(opening)
	sess.mu.Unlock()
	return sess, nil
}

// Get returns the session for id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// End stops tracking id. A session still in progress is aborted first.
//
// Postcondition: returns ErrNotFound when id is not tracked.
func (m *Manager) End(id uuid.UUID) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.Abort("ended")
	return nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
