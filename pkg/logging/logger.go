// Package logging configures the process-wide zerolog logger and hands out
// component loggers tagged for the search tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel names a minimum severity accepted from configuration.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// consoleTimeFormat keeps pretty output short enough for a terminal.
const consoleTimeFormat = "15:04:05"

// Config selects severity and encoding of the process log.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console encoding.
	Pretty bool

	// Output defaults to os.Stderr so CSV on stdout stays clean.
	Output io.Writer
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup installs cfg as the global logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.Level.zerologLevel())

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// ParseLogLevel validates a level name from configuration. An empty name
// selects LevelInfo.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level %q (want debug, info, warn or error)", name)
	}
}

// zerologLevel maps l onto zerolog's levels. Unknown names fall back to info.
func (l LogLevel) zerologLevel() zerolog.Level {
	parsed, err := ParseLogLevel(string(l))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch parsed {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger derives a logger tagged with the emitting component from the
// global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForSession is NewLogger plus the search session id, so every line of one
// search can be grepped together.
func ForSession(component, sessionID string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("session_id", sessionID).
		Logger()
}

// Levels as used across the tool:
//
// Debug: request URLs and query strings, empty result pages, failure streak
// updates.
//
// Info: search start and finish, processed pages, CSV written, metrics
// server lifecycle.
//
// Warn: non-200 responses, page retries and skips, skipped listings,
// throttling while a failure streak is open.
//
// Error: transport failures, malformed envelopes, Redis errors, bad
// configuration.
//
// Common fields: component, session_id, page, attempt, status_code,
// duration, error_class, failure_streak.
