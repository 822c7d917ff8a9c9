// Package observability provides structured logging for the editor and its
// command-line tools.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/mudmapper/internal/config"
	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// NewLogger creates a structured logger from the given logging configuration.
// Logs go to stderr so command output on stdout stays clean.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
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
		zapCfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// EditLog is a mapper.Hooks that records graph changes and notices as
// structured log entries.
type EditLog struct {
	logger *zap.Logger
}

// NewEditLog creates an EditLog writing to logger.
//
// Precondition: logger must be non-nil.
func NewEditLog(logger *zap.Logger) *EditLog {
	return &EditLog{logger: logger.Named("edits")}
}

var _ mapper.Hooks = (*EditLog)(nil)

// RoomCreated logs a new room.
func (l *EditLog) RoomCreated(r *mapper.Room) {
	l.logger.Debug("room created", zap.Int("vnum", r.ID), zap.Stringer("position", r.Position()))
}

// RoomRemoved logs a deleted room.
func (l *EditLog) RoomRemoved(id int) {
	l.logger.Debug("room removed", zap.Int("vnum", id))
}

// RoomMoved logs a relocated room.
func (l *EditLog) RoomMoved(r *mapper.Room) {
	l.logger.Debug("room moved", zap.Int("vnum", r.ID), zap.Stringer("position", r.Position()))
}

// LinkCreated logs a new link.
func (l *EditLog) LinkCreated(link mapper.Link) {
	l.logger.Debug("link created", zap.Int("a", link.A), zap.Int("b", link.B))
}

// LinkRemoved logs a removed link.
func (l *EditLog) LinkRemoved(link mapper.Link) {
	l.logger.Debug("link removed", zap.Int("a", link.A), zap.Int("b", link.B))
}

// GraphReplaced logs a wholesale graph replacement.
func (l *EditLog) GraphReplaced() {
	l.logger.Debug("graph replaced")
}

// Notice logs a user-visible notice at warn level.
func (l *EditLog) Notice(err *mapper.Error) {
	fields := []zap.Field{zap.String("code", err.Code.String()), zap.String("message", err.Message)}
	for k, v := range err.Meta {
		fields = append(fields, zap.Any(k, v))
	}
	l.logger.Warn("notice", fields...)
}
