package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON output so log aggregation can
// index the structured fields handlers and services attach.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
