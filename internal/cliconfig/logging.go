package cliconfig

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds the process logger. Output always goes to stderr so
// stdout stays free for PCM. An unknown level falls back to info.
func Logger(level, format string) zerolog.Logger {
	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.SetGlobalLevel(ParseLevel(level))
	return logger.With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
