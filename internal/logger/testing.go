// Package logger provides test helpers for structured logging.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// By default, uses WARN level to keep test output quiet.
// Set TEST_DEBUG environment variable to enable debug logging in tests.
func NewTestLogger() *slog.Logger {
	return NewTestLoggerTo(os.Stdout)
}

// NewTestLoggerTo is NewTestLogger writing to w, so tests can assert on emitted records.
func NewTestLoggerTo(w io.Writer) *slog.Logger {
	level := slog.LevelWarn // Quiet by default

	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
