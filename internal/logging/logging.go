// Package logging configures the frontend's structured logger. For
// derives a child logger tagged With("component", name); the engine
// passes the root logger from New to every subsystem as is.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New builds the root logger from a level name ("debug", "info",
// "warn", "error") and a format ("text" or "json"). Unknown levels
// fall back to info, matching the teacher's lenient env-var parsing.
func New(level, format string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(log.JSONFormatter)
	}

	return logger
}

// For returns a child logger tagged with its owning component. A nil
// base falls back to log.Default().
func For(base *log.Logger, component string) *log.Logger {
	if base == nil {
		base = log.Default()
	}
	return base.With("component", component)
}
