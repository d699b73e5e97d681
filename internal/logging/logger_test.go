package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestJSONLoggerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "debug")

	logger.Debug().
		Str("Session-Token", "abc.def.ghi").
		Str("password", "hunter2").
		Str("path", "/project/KEY").
		Msg("request")

	out := buf.String()
	for _, secret := range []string{"abc.def.ghi", "hunter2"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output contains %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "/project/KEY") {
		t.Errorf("log output lost non-secret field: %s", out)
	}
	if !strings.Contains(out, `"component":"cdsconsole"`) {
		t.Errorf("log output missing component field: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "debug"},
		{"error", "error"},
		{"", "warn"},
		{"bogus", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLevel(tt.level).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
