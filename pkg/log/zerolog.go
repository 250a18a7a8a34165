package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger creates a human readable logger on stderr, used by the examples.
func NewConsoleLogger(level Level) *ZerologLogger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return NewZerologLogger(w, level)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

func (z *ZerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{zl: z.zl.With().Fields(normalizeFields(fields)).Logger()}
}

func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.zl.GetLevel() <= toZerologLevel(level)
}

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(normalizeFields(fields))
	}
	e.Msg(msg)
}

// RouteWarnings sends warnings raised through errors.Warn to logger. Warnings
// that know how to marshal themselves are attached as a structured object when
// the logger is zerolog-backed.
func RouteWarnings(logger Logger) {
	errors.SetZerologWarnFunc(func(w error) {
		if z, ok := logger.(*ZerologLogger); ok {
			if m, ok := w.(zerolog.LogObjectMarshaler); ok {
				z.zl.Warn().Object("warning", m).Msg(w.Error())
				return
			}
		}
		logger.Warn(w.Error())
	})
}
