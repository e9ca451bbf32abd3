// Package obslog wraps zap for the pipeline's structured logging. The
// teacher plugin logs through p.API.LogDebug/LogError, a Mattermost-only
// surface; this service has no such host, so it logs to its own
// zap.Logger instead, keeping the same "named component + key/value
// fields" shape the teacher's call sites use.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the process-wide logger. JSON is suited to log
// aggregation in production; Console is easier to read during development.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New builds the root *zap.Logger per cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

// Component returns a child logger tagged with "component", the pattern
// used throughout internal/ to identify which piece of the pipeline a log
// line came from (orchestrator, parser, publish/<provider>, etc.).
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("component", name))
}
