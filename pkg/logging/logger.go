// Package logging configures structured logging for the caching engine
// using zerolog.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to output: "debug", "info", "warn",
	// "error". Unknown values fall back to info.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the log destination (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns the production defaults: info level, JSON, stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// NewLogger derives a component-scoped logger from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level guidelines for the caching engine:
//
// Debug: cache operations (hit/miss, key, TTL), health probe outcomes,
// warm-up progress, invalidated keys.
//
// Info: manager initialize/shutdown, store recovery, server start/stop.
//
// Warn: contained cache errors (store, serialization, compression),
// failover to the fallback store, failed invalidations.
//
// Error: configuration errors and listener failures, conditions that
// prevent the process from serving.
//
// Common fields: component, operation, key, namespace, ttl, error.
