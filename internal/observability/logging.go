// Package observability builds the zap logger and logs encounter events.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// formats maps a configured log format to its base zap configuration.
var formats = map[string]func() zap.Config{
	"json":    zap.NewProductionConfig,
	"console": consoleConfig,
}

func consoleConfig() zap.Config {
	c := zap.NewDevelopmentConfig()
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	c.DisableStacktrace = true
	return c
}

// NewLogger builds the process logger described by cfg.
//
// Sampling is off; every encounter event line is written.
//
// Precondition: cfg.Level is a zap level name and cfg.Format is "json" or "console".
// Postcondition: Returns a logger named "skirmish" or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	base, ok := formats[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	zc := base()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named("skirmish"), nil
}
