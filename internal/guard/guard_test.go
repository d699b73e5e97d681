package guard

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/notify"
	"github.com/morrisclay/cds-console/internal/session"
)

func loggedIn(t *testing.T, ring string) *session.Store {
	t.Helper()
	s := session.New(config.NewMemoryStorage(nil))
	err := s.Login(model.Identity{
		User: &model.User{Username: "alice", Ring: ring},
	}, "tok", true)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return s
}

func TestGuardLevels(t *testing.T) {
	tests := []struct {
		name    string
		ring    string
		anon    bool
		level   Level
		allowed bool
	}{
		{"public anonymous", "", true, Public, true},
		{"authenticated anonymous", "", true, Authenticated, false},
		{"authenticated user", model.RingUser, false, Authenticated, true},
		{"admin user", model.RingUser, false, Admin, false},
		{"admin admin", model.RingAdmin, false, Admin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *session.Store
			if tt.anon {
				s = session.New(config.NewMemoryStorage(nil))
			} else {
				s = loggedIn(t, tt.ring)
			}
			rec := &Recorder{}
			g := New(s, rec)

			if got := g.Enter(tt.level, "/project/PRJ"); got != tt.allowed {
				t.Errorf("Enter() = %v, want %v", got, tt.allowed)
			}

			nav, navigated := rec.Last()
			if navigated == tt.allowed {
				t.Fatalf("navigated = %v, want %v", navigated, !tt.allowed)
			}
			if navigated && nav.URL() != "/account/login?redirect=%2Fproject%2FPRJ" {
				t.Errorf("navigation = %v", nav.URL())
			}
		})
	}
}

func TestUnauthorizedResponseLogsOutAndRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid session"}`))
	}))
	defer server.Close()

	s := loggedIn(t, model.RingUser)
	rec := &Recorder{}
	g := New(s, rec)

	if !g.Authenticated("/project/PRJ/application/web") {
		t.Fatal("Authenticated() = false before the request")
	}

	notes := &notify.Recorder{}
	ic := api.NewInterceptor(s, notes)
	ic.OnUnauthorized = g.Unauthorized
	client := api.NewClient(server.URL, api.WithInterceptor(ic))

	_, err := client.GetProject(context.Background(), "PRJ")
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("error = %v, want 401", err)
	}

	if s.IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
	nav, ok := rec.Last()
	if !ok {
		t.Fatal("no navigation after 401")
	}
	if nav.Route != LoginRoute {
		t.Errorf("Route = %v, want %v", nav.Route, LoginRoute)
	}
	if got := nav.Query.Get(RedirectParam); got != "/project/PRJ/application/web" {
		t.Errorf("redirect = %v, want /project/PRJ/application/web", got)
	}
	if n := len(notes.Notifications()); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}

type failingLogout struct{ authenticated bool }

func (f *failingLogout) IsAuthenticated() bool { return f.authenticated }
func (f *failingLogout) IsAdmin() bool         { return false }
func (f *failingLogout) Logout() error {
	f.authenticated = false
	return errors.New("storage is read-only")
}

func TestUnauthorizedLogsStorageFailure(t *testing.T) {
	var logs bytes.Buffer
	s := &failingLogout{authenticated: true}
	rec := &Recorder{}
	g := New(s, rec, WithLogger(zerolog.New(&logs)))
	g.Authenticated("/group")

	g.Unauthorized()

	if nav, ok := rec.Last(); !ok || nav.Route != LoginRoute {
		t.Errorf("navigation = %+v, want login", nav)
	}
	if !strings.Contains(logs.String(), "storage is read-only") {
		t.Errorf("logout failure not logged: %q", logs.String())
	}
}
