package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New returns a JSON line logger writing to w with timestamps in loc.
func New(w io.Writer, loc *time.Location) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	return zerolog.New(w).Hook(tsHook{loc: loc})
}

// Default writes to stdout and honours the LOG_LEVEL environment variable.
func Default(loc *time.Location) zerolog.Logger {
	return New(os.Stdout, loc).Level(ParseLevel(os.Getenv("LOG_LEVEL")))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to a zerolog level.
// Unknown strings default to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Location loads the named time zone, falling back to UTC.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type tsHook struct {
	loc *time.Location
}

func (h tsHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(zerolog.TimestampFieldName, time.Now().In(h.loc).Format(time.RFC3339Nano))
}
