// Package observability provides logging utilities shared by the relay and
// participant processes.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/targeted-damage/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
// Every entry carries a "process" field naming the binary that emitted it.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, process string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if process != "" {
		zapCfg.InitialFields = map[string]interface{}{"process": process}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ForParticipant returns a child logger tagged with the participant's id and role.
func ForParticipant(logger *zap.Logger, p config.ParticipantConfig) *zap.Logger {
	return logger.With(
		zap.String("participant_id", p.ID),
		zap.String("role", p.Role),
	)
}
