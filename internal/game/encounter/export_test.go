package encounter

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/reward"
)

// ResolveForTest builds a bare Session around s and runs resolved on it, so
// external tests can reach the unexported resolution path.
func ResolveForTest(s *combat.State, templates reward.TemplateSet, logger *zap.Logger) *Session {
	sess := &Session{state: s, templates: templates, logger: logger}
	sess.resolved()
	return sess
}
