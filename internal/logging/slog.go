// Package logging holds the operational slog logger shared by the cache
// facade, the store backends and the CLI, plus the run report written by
// workload replays.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	opLogger.Store(slog.New(handler))
}

// Op returns the operational logger.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetOp replaces the operational logger. A nil logger
// is ignored.
func SetOp(l *slog.Logger) {
	if l != nil {
		opLogger.Store(l)
	}
}

// SetLevel changes the log level for the operational logger.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// Level returns the current operational log level.
func Level() slog.Level {
	return logLevel.Level()
}

// ParseLevel converts "debug", "info", "warn"/"warning" or "error"
// (any case) into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// SetLevelFromString sets the log level from a string. Unknown values
// leave the level unchanged.
func SetLevelFromString(level string) {
	if l, err := ParseLevel(level); err == nil {
		logLevel.Set(l)
	}
}
