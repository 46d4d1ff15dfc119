// Package logging provides structured logging for the estore CLI.
//
// All components log through zerolog with a shared configuration: a console
// writer for interactive runs, an optional append-mode log file, and a
// per-invocation trace ID so a single command's log lines can be correlated.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit ("trace" through "fatal").
	// Invalid or empty values fall back to "info".
	Level string

	// Format selects the output encoding: "console" (default) or "json".
	Format string

	// File, when non-empty, is a path that receives a copy of all log
	// output in append mode.
	File string
}

// NewLogger builds a zerolog.Logger from cfg.
//
// When cfg.File cannot be opened the logger falls back to console-only
// output; the caller can detect this through the returned fallback error
// and warn the user, but the logger is always usable.
func NewLogger(cfg Config) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if strings.EqualFold(cfg.Format, "json") {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	var fileErr error
	if cfg.File != "" {
		f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if openErr != nil {
			fileErr = openErr
		} else {
			writers = append(writers, f)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return logger, fileErr
}

// ComponentLogger returns a child logger tagged with a component name.
// Components use this so every line identifies its origin ("engine",
// "api", "cli", ...).
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger attached to ctx, or a disabled logger
// when none was attached. It never returns nil.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
