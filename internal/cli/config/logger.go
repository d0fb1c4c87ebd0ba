package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the CLI logger. verbose forces debug level.
func NewLogger(w io.Writer, cfg LogConfig, verbose bool) *slog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
