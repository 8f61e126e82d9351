// Package logging builds the zerolog loggers that are injected into every component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures logger construction.
type Options struct {
	Level  string    // debug, info, warn, error (default info)
	Pretty bool      // human-readable console output instead of JSON
	Out    io.Writer // defaults to os.Stderr
}

// New returns a logger configured from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
