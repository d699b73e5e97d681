package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morrisclay/cds-console/internal/event"
	"github.com/morrisclay/cds-console/internal/model"
)

func TestEventFilter(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		warnings bool
		event    model.Event
		want     bool
	}{
		{
			name:  "no filter",
			event: model.Event{Type: model.EventProjectUpdate, ProjectKey: "PRJ"},
			want:  true,
		},
		{
			name:  "selected project",
			keys:  []string{"PRJ"},
			event: model.Event{Type: model.EventApplicationUpdate, ProjectKey: "PRJ", ApplicationName: "api"},
			want:  true,
		},
		{
			name:  "other project",
			keys:  []string{"PRJ"},
			event: model.Event{Type: model.EventProjectUpdate, ProjectKey: "OTHER"},
			want:  false,
		},
		{
			name:  "global broadcast",
			keys:  []string{"PRJ"},
			event: model.Event{Type: model.EventBroadcastAdd},
			want:  true,
		},
		{
			name:  "broadcast of another project",
			keys:  []string{"PRJ"},
			event: model.Event{Type: model.EventBroadcastAdd, ProjectKey: "OTHER"},
			want:  false,
		},
		{
			name:     "warnings only drops changes",
			warnings: true,
			event:    model.Event{Type: model.EventPipelineUpdate, ProjectKey: "PRJ"},
			want:     false,
		},
		{
			name:     "warnings only keeps warnings",
			keys:     []string{"PRJ"},
			warnings: true,
			event:    model.Event{Type: model.EventWarningAdd, ProjectKey: "PRJ"},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEventFilter(tt.keys, tt.warnings)
			if got := f.match(tt.event); got != tt.want {
				t.Errorf("match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventSummary(t *testing.T) {
	tests := []struct {
		event model.Event
		want  string
	}{
		{model.Event{ProjectKey: "PRJ", Username: "alice"}, "PRJ by alice"},
		{model.Event{ProjectKey: "PRJ", ApplicationName: "api"}, "PRJ/api"},
		{model.Event{ProjectKey: "PRJ", PipelineName: "build"}, "PRJ/build"},
		{model.Event{ProjectKey: "PRJ", EnvironmentName: "prod", Username: "bob"}, "PRJ env prod by bob"},
		{model.Event{Username: "admin"}, "by admin"},
	}

	for _, tt := range tests {
		if got := eventSummary(tt.event); got != tt.want {
			t.Errorf("eventSummary(%+v) = %q, want %q", tt.event, got, tt.want)
		}
	}

	if got := eventLabel(model.EventProjectVariableAdd); got != "PROJECTVARIABLEADD" {
		t.Errorf("eventLabel() = %q", got)
	}
}

func TestWatchResult(t *testing.T) {
	ctx, stop := context.WithCancelCause(context.Background())
	stop(errSessionEnded)
	if err := watchResult(ctx, context.Canceled); !errors.Is(err, errLoginRequired) {
		t.Errorf("ended session: got %v, want errLoginRequired", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := watchResult(ctx, context.Canceled); err != nil {
		t.Errorf("interrupted: got %v, want nil", err)
	}

	rejected := fmt.Errorf("%w: handshake 401", event.ErrUnauthorized)
	if err := watchResult(context.Background(), rejected); !errors.Is(err, errLoginRequired) {
		t.Errorf("rejected credentials: got %v, want errLoginRequired", err)
	}

	boom := errors.New("boom")
	if err := watchResult(context.Background(), boom); !errors.Is(err, boom) {
		t.Errorf("failure: got %v, want boom", err)
	}
}

func TestWatchModelPause(t *testing.T) {
	var m tea.Model = newWatchModel(newEventFilter(nil, false), "sse")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m, _ = m.Update(eventMsg{e: model.Event{Type: model.EventProjectUpdate, ProjectKey: "PRJ"}})
	m, _ = m.Update(eventMsg{e: model.Event{Type: model.EventWarningAdd, ProjectKey: "PRJ"}})

	wm := m.(watchModel)
	if !wm.paused || wm.pending != 2 || wm.eventCount != 2 {
		t.Fatalf("paused=%v pending=%d count=%d", wm.paused, wm.pending, wm.eventCount)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	wm = m.(watchModel)
	if wm.paused || wm.pending != 0 {
		t.Errorf("resume: paused=%v pending=%d", wm.paused, wm.pending)
	}

	m, _ = m.Update(connectionMsg(true))
	if !m.(watchModel).connected {
		t.Error("connection state not applied")
	}

	_, cmd := m.Update(listenerDoneMsg{err: errors.New("closed")})
	if cmd == nil {
		t.Fatal("listener end did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("listener end did not quit")
	}
}

func TestValidators(t *testing.T) {
	for _, e := range []string{"session", "daily", "persistent"} {
		if !validExpiration(e) {
			t.Errorf("validExpiration(%q) = false", e)
		}
	}
	if validExpiration("forever") {
		t.Error("validExpiration(forever) = true")
	}

	if !validLevel(model.BroadcastInfo) || !validLevel(model.BroadcastWarning) || validLevel("critical") {
		t.Error("validLevel accepted or rejected the wrong levels")
	}

	tests := []struct {
		w    model.Warning
		want string
	}{
		{model.Warning{ApplicationName: "api"}, "application api"},
		{model.Warning{PipelineName: "build"}, "pipeline build"},
		{model.Warning{EnvironmentName: "prod"}, "environment prod"},
		{model.Warning{}, "project"},
	}
	for _, tt := range tests {
		if got := warningElement(tt.w); got != tt.want {
			t.Errorf("warningElement(%+v) = %q, want %q", tt.w, got, tt.want)
		}
	}

	for _, f := range []string{"table", "json", "yaml"} {
		if !validFormat(f) {
			t.Errorf("validFormat(%q) = false", f)
		}
	}
	if validFormat("xml") {
		t.Error("validFormat(xml) = true")
	}
}
