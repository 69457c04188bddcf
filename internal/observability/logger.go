package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogFormat selects the encoding of log lines.
type LogFormat string

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON LogFormat = "json"
	// FormatConsole writes human-readable, optionally coloured lines.
	FormatConsole LogFormat = "console"
)

// NewLogger creates a structured logger tagged with service, version and host.
// An unknown level falls back to info.
func NewLogger(service, version string, output io.Writer, level string, format LogFormat) zerolog.Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if format == FormatConsole {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Empty or unknown names
// yield info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
