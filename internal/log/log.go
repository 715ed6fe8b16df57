// Package log provides structured logging for the application.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	// Console writer for human-readable output
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}

	logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()

	// Set global log level from environment or default to Warn so
	// normal CLI output stays clean
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if lvl := os.Getenv("SHIELDCTL_LOG_LEVEL"); lvl != "" {
		if level, err := zerolog.ParseLevel(lvl); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

// ErrorWithErr logs an error with the error object
func ErrorWithErr(err error, msg string) {
	logger.Error().Err(err).Msg(msg)
}
