package log

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger function setup logger.
// It installs a CloudLogging-formatted JSON handler as the slog default and
// routes the package-level logger through it.
func SetupLogger(loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	sl := slog.New(errFmtHandler)
	slog.SetDefault(sl)
	SetLogger(NewSlogLogger(sl))
	return nil
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level :%s", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// normalizeFields moves a leading error value under ErrAttrKey so that
// Error("msg", err, "k", v) works with every backend.
func normalizeFields(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields)+1)
		out = append(out, ErrAttrKey, err)
		return append(out, fields[1:]...)
	}
	return fields
}
