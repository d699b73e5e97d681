package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/model"
)

func TestLocation(t *testing.T) {
	root := newRootCmd()
	show, _, err := root.Find([]string{"project", "show"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	loc := location(show, []string{"PRJ"})
	if loc != "/project/show/PRJ" {
		t.Errorf("location() = %q, want /project/show/PRJ", loc)
	}
	if got := commandLine(loc); got != "project show PRJ" {
		t.Errorf("commandLine(%q) = %q", loc, got)
	}

	loc = location(show, []string{"a b/c"})
	if got := commandLine(loc); got != "project show a b/c" {
		t.Errorf("escaped arguments did not round-trip: %q -> %q", loc, got)
	}
}

func TestLevelOf(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		path []string
		want guard.Level
	}{
		{[]string{"login"}, guard.Public},
		{[]string{"version"}, guard.Public},
		{[]string{"project", "list"}, guard.Authenticated},
		{[]string{"admin", "migration", "list"}, guard.Admin},
		{[]string{"action", "create"}, guard.Admin},
		{[]string{"action", "list"}, guard.Authenticated},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.path, " "), func(t *testing.T) {
			cmd, _, err := root.Find(tt.path)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got := levelOf(cmd); got != tt.want {
				t.Errorf("levelOf() = %v, want %v", got, tt.want)
			}
		})
	}

	orphan := &cobra.Command{Use: "orphan"}
	if got := levelOf(orphan); got != guard.Authenticated {
		t.Errorf("levelOf(unannotated) = %v, want authenticated", got)
	}
}

// newTestApp installs an app talking to host, with the given user logged in
// when user is not nil.
func newTestApp(t *testing.T, host string, user *model.User) *bytes.Buffer {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvHost, "")

	slots := map[string]string{}
	if user != nil {
		data, err := json.Marshal(model.Identity{User: user})
		if err != nil {
			t.Fatal(err)
		}
		slots[config.SlotUser] = string(data)
		slots[config.SlotSessionToken] = "test-token"
	}

	var out bytes.Buffer
	a, err := newApp(context.Background(), appOptions{
		host:      host,
		format:    formatTable,
		logFormat: "json",
		out:       &out,
		errOut:    io.Discard,
		storage:   config.NewMemoryStorage(slots),
	})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	console = a
	t.Cleanup(func() { console = nil })
	return &out
}

func TestRunProjectList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/navbar" {
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Session-Token"); got != "test-token" {
			t.Errorf("Session-Token = %q, want test-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"key":"PRJ","name":"Project","application_names":["api","web"]}]`))
	}))
	defer server.Close()

	out := newTestApp(t, server.URL, &model.User{Username: "alice"})

	var errOut bytes.Buffer
	if err := run(context.Background(), newRootCmd(), []string{"project", "list"}, &errOut); err != nil {
		t.Fatalf("run() error = %v (%s)", err, errOut.String())
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[2], "PRJ") || !strings.Contains(lines[2], "Project") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestRunRedirectsToLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer server.Close()

	newTestApp(t, server.URL, nil)

	var errOut bytes.Buffer
	err := run(context.Background(), newRootCmd(), []string{"project", "show", "PRJ"}, &errOut)
	if !errors.Is(err, errLoginRequired) {
		t.Fatalf("run() error = %v, want errLoginRequired", err)
	}
	if !strings.Contains(errOut.String(), "cdsconsole login --redirect /project/show/PRJ") {
		t.Errorf("missing login hint:\n%s", errOut.String())
	}
}

func TestRunAdminRequiresRing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer server.Close()

	newTestApp(t, server.URL, &model.User{Username: "bob", Ring: "USER"})

	var errOut bytes.Buffer
	err := run(context.Background(), newRootCmd(), []string{"admin", "migration", "list"}, &errOut)
	if err == nil || !strings.Contains(err.Error(), "requires administrative rights") {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRunUnauthorizedLogsOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	newTestApp(t, server.URL, &model.User{Username: "alice"})

	var errOut bytes.Buffer
	if err := run(context.Background(), newRootCmd(), []string{"project", "list"}, &errOut); err == nil {
		t.Fatal("run() error = nil, want an API error")
	}
	if console.session.IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
	if !strings.Contains(errOut.String(), "--redirect /project/list") {
		t.Errorf("missing login hint:\n%s", errOut.String())
	}
}
