package log

import (
	"context"
	"log/slog"
)

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.l.Error(msg, normalizeFields(fields)...) }

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.l.With(normalizeFields(fields)...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}
