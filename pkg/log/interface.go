// Package log provides the structured logging interface used across creditgroup.
//
// The interface is slog-compatible so that the backend can be switched
// (zerolog by default, log/slog via SetupLogger, an in-memory TestLogger in
// tests) without touching call sites. Fields are passed as alternating
// key/value pairs; the standard keys live in attributes.go.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("preprocessing").With(
//	    log.OperationKey, log.OperationDetect,
//	)
//	logger.Debug("column typed",
//	    log.ColumnKey, "Age",
//	    log.SchemaTypeKey, "numeric",
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
type Logger interface {
	// Debug logs a debug-level message with optional key/value fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key/value fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key/value fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error it
	// is recorded under ErrAttrKey.
	//
	//   logger.Error("load failed", err, log.ComponentKey, "datasets")
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
