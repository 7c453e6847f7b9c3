package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps LOG_LEVEL to a slog level; unknown values mean INFO.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(logLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger creates a logger writing text to stderr and, when logFile is
// set, JSON to that file. The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	if logFile == "" {
		return newLogger(os.Stderr, nil, level), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		// Fall back to stderr-only if file fails
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return newLogger(os.Stderr, nil, level), func() error { return nil }
	}
	return newLogger(os.Stderr, file, level), file.Close
}

// newLogger fans out to a text handler on console and, if file is non-nil, a
// JSON handler on file.
func newLogger(console, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	consoleHandler := slog.NewTextHandler(console, opts)
	if file == nil {
		return slog.New(consoleHandler)
	}
	return slog.New(slogmulti.Fanout(consoleHandler, slog.NewJSONHandler(file, opts)))
}
