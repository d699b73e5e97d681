// Package logging provides structured logging with credential redaction.
package logging

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// Field names whose values never reach the log output.
var secretFields = regexp.MustCompile(`("(?i:session-token|authorization|password|token)"\s*:\s*)"[^"]*"`)

// RedactingWriter wraps an io.Writer and masks credential values in JSON
// log lines.
type RedactingWriter struct {
	inner io.Writer
}

// NewRedactingWriter creates a writer that redacts credential values.
func NewRedactingWriter(inner io.Writer) *RedactingWriter {
	return &RedactingWriter{inner: inner}
}

func (rw *RedactingWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '"') < 0 {
		return rw.inner.Write(p)
	}
	redacted := secretFields.ReplaceAll(p, []byte(`${1}"[REDACTED]"`))
	if _, err := rw.inner.Write(redacted); err != nil {
		return 0, err
	}
	return len(p), nil
}

// NewLogger creates a human-readable logger on stderr.
func NewLogger(level string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	// The console writer parses JSON, so redact before it sees the event.
	return zerolog.New(NewRedactingWriter(writer)).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", "cdsconsole").
		Logger()
}

// NewJSONLogger creates a JSON-formatted logger for machine consumption.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(NewRedactingWriter(w)).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", "cdsconsole").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.WarnLevel
	}
	return lvl
}
