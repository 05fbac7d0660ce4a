package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog.
func New(environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if environment == "development" {
		opts.Level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With("service", "physioflow")
}
