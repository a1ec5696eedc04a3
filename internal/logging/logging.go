// Package logging provides structured logging for annals using zerolog.
// Console output is used on a terminal, JSON otherwise (or when LOG_FORMAT
// is set to "json").
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var defaultLogger zerolog.Logger

// Nop discards all output; useful in tests.
var Nop = zerolog.Nop()

func init() {
	defaultLogger = newDefaultLogger()
}

func newDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr

	if isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	return zerolog.New(writer).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Logger()
}

func levelFromEnv() zerolog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Default returns the global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
}

// SetVerbose lowers the global level to debug.
func SetVerbose() {
	defaultLogger = defaultLogger.Level(zerolog.DebugLevel)
}

// New creates a logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(defaultLogger.GetLevel()).
		With().
		Timestamp().
		Logger()
}
