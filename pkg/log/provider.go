package log

import (
	"io"
	"os"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// GetLogger returns the process-wide logger. It defaults to a zerolog JSON
// logger on stderr at info level.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// GetLoggerWithName returns the process-wide logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide logger. A nil logger discards output.
func SetLogger(l Logger) {
	if l == nil {
		l = NewZerologLogger(io.Discard, LevelError)
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}
