package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "penportal-api"

// New creates a zerolog logger writing to stdout. format "pretty" (or
// ENV=development) switches to the console writer.
func New(level, format string) zerolog.Logger {
	var out io.Writer = os.Stdout
	pretty := format == "pretty" || os.Getenv("ENV") == "development"
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level, pretty)
}

// NewWithWriter is New with an explicit sink, used by tests
func NewWithWriter(out io.Writer, level string, withCaller bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	ctx := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", ServiceName)
	if withCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
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
