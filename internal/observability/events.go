package observability

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// EventLogger writes every encounter event to a zap logger. It satisfies
// encounter.EventSink.
type EventLogger struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewEventLogger logs events at level.
//
// Precondition: logger must not be nil.
func NewEventLogger(logger *zap.Logger, level zapcore.Level) *EventLogger {
	return &EventLogger{logger: logger.Named("events"), level: level}
}

// Publish logs each event with its non-empty fields.
func (l *EventLogger) Publish(id uuid.UUID, events []combat.Event) {
	if ce := l.logger.Check(l.level, "combat event"); ce == nil {
		return
	}
	for _, e := range events {
		fields := []zap.Field{
			zap.String("encounter", id.String()),
			zap.String("kind", string(e.Kind)),
			zap.Int("round", e.Round),
		}
		if !e.Actor.IsZero() {
			fields = append(fields, zap.Stringer("actor", e.Actor))
		}
		if !e.Target.IsZero() {
			fields = append(fields, zap.Stringer("target", e.Target))
		}
		if e.Amount != 0 {
			fields = append(fields, zap.Int("amount", e.Amount))
		}
		if e.Roll != 0 {
			fields = append(fields, zap.Int("roll", e.Roll))
		}
		for _, kv := range [...][2]string{{"condition", e.Condition}, {"spell", e.Spell}, {"item", e.Item}} {
			if kv[1] != "" {
				fields = append(fields, zap.String(kv[0], kv[1]))
			}
		}
		if e.Kind == combat.EventEncounterResolved {
			fields = append(fields, zap.Stringer("status", e.Status))
		}
		if ce := l.logger.Check(l.level, e.Message); ce != nil {
			ce.Write(fields...)
		}
	}
}
