package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConsoleNotify(t *testing.T) {
	var out, logs bytes.Buffer
	c := NewConsole(&out, zerolog.New(&logs))

	c.Notify(Error, "Error", "API is unreachable")
	c.Notify(Success, "", "saved")

	want := "✗ Error: API is unreachable\n✓ saved\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), `"level_ui":"error"`) {
		t.Errorf("error notification not logged as a warning: %s", logs.String())
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(Warning, "t", "m")

	got := r.Notifications()
	if len(got) != 1 || got[0] != (Notification{Level: Warning, Title: "t", Message: "m"}) {
		t.Fatalf("Notifications() = %+v", got)
	}
	got[0].Message = "changed"
	if r.Notifications()[0].Message != "m" {
		t.Error("Notifications() exposed the recorder's slice")
	}
}

func TestMessagesFor(t *testing.T) {
	if MessagesFor("fr").ErrorTitle != "Erreur" {
		t.Error("French messages not selected")
	}
	if MessagesFor("de") != MessagesFor("en") {
		t.Error("unknown language did not fall back to English")
	}
	if MessagesFor("").SessionExpired == "" {
		t.Error("empty language has no messages")
	}
}
