// Package logger builds the process-wide structured logger. Every service
// receives it via a WithLogger functional option (see internal/session,
// internal/otp, etc.), mirroring the teacher's own construction pattern.
package logger

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger using a text handler for local development and a
// JSON handler when LOG_FORMAT=json, matching typical ops tooling that
// expects line-delimited JSON in production.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
