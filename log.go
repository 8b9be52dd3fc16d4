package flipdot

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = newLogger()

func newLogger() zerolog.Logger {
	if os.Getenv("FLIPDOT_DEBUG") == "" {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("pkg", "flipdot").
		Logger()
}

// SetLogger replaces the package logger. By default nothing is logged unless
// the FLIPDOT_DEBUG environment variable is set.
func SetLogger(l zerolog.Logger) {
	logger = l
}
