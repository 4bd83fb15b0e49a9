package encounter

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// EventSink receives every event an encounter produces, in order.
type EventSink interface {
	Publish(id uuid.UUID, events []combat.Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(id uuid.UUID, events []combat.Event)

// Publish implements EventSink.
func (f SinkFunc) Publish(id uuid.UUID, events []combat.Event) { f(id, events) }

// Recorder is an EventSink that keeps every event per encounter.
type Recorder struct {
	mu     sync.Mutex
	events map[uuid.UUID][]combat.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: make(map[uuid.UUID][]combat.Event)}
}

// Publish implements EventSink.
func (r *Recorder) Publish(id uuid.UUID, events []combat.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id] = append(r.events[id], events...)
}

// Events returns a copy of everything recorded for id.
func (r *Recorder) Events(id uuid.UUID) []combat.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]combat.Event(nil), r.events[id]...)
}
