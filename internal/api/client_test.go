package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/notify"
)

type staticCreds struct {
	token      string
	user, pass string
}

func (s staticCreds) SessionToken() string { return s.token }

func (s staticCreds) BasicCredentials() (string, string, bool) {
	return s.user, s.pass, s.user != ""
}

func newTestClient(t *testing.T, h http.HandlerFunc, creds CredentialSource) (*Client, *notify.Recorder, *Interceptor) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	rec := &notify.Recorder{}
	ic := NewInterceptor(creds, rec)
	return NewClient(server.URL, WithInterceptor(ic)), rec, ic
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://cds.example.com/")

	if client.Host() != "https://cds.example.com" {
		t.Errorf("Host() = %v, want %v", client.Host(), "https://cds.example.com")
	}
}

func TestClientURLs(t *testing.T) {
	tests := []struct {
		host   string
		stream string
		ws     string
	}{
		{"https://cds.example.com", "https://cds.example.com/events", "wss://cds.example.com/ws"},
		{"http://localhost:8081", "http://localhost:8081/events", "ws://localhost:8081/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			c := NewClient(tt.host)
			if got := c.StreamURL(); got != tt.stream {
				t.Errorf("StreamURL() = %v, want %v", got, tt.stream)
			}
			if got := c.WebSocketURL(); got != tt.ws {
				t.Errorf("WebSocketURL() = %v, want %v", got, tt.ws)
			}
		})
	}
}

func TestGetProject(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %v, want GET", r.Method)
		}
		if r.URL.Path != "/project/PRJ" {
			t.Errorf("Path = %v, want /project/PRJ", r.URL.Path)
		}
		if r.URL.Query().Get("withVariables") != "true" {
			t.Errorf("withVariables = %q, want true", r.URL.Query().Get("withVariables"))
		}
		json.NewEncoder(w).Encode(model.Project{Key: "PRJ", Name: "Project"})
	}, nil)

	p, err := client.GetProject(context.Background(), "PRJ", "withVariables")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if p.Key != "PRJ" || p.Name != "Project" {
		t.Errorf("GetProject() = %+v", p)
	}
}

func TestListNavProjectsWrapped(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"projects": []model.NavProject{{Key: "A"}, {Key: "B"}},
		})
	}, nil)

	nav, err := client.ListNavProjects(context.Background())
	if err != nil {
		t.Fatalf("ListNavProjects() error = %v", err)
	}
	if len(nav) != 2 || nav[1].Key != "B" {
		t.Errorf("ListNavProjects() = %+v", nav)
	}
}

func TestAddProjectVariable(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/project/PRJ/variable/foo" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var v model.Variable
		json.NewDecoder(r.Body).Decode(&v)
		if v.Value != "bar" {
			t.Errorf("variable value = %q, want bar", v.Value)
		}
		json.NewEncoder(w).Encode(model.Project{Key: "PRJ", Variables: []model.Variable{v}})
	}, nil)

	p, err := client.AddProjectVariable(context.Background(), "PRJ", model.Variable{Name: "foo", Type: "string", Value: "bar"})
	if err != nil {
		t.Fatalf("AddProjectVariable() error = %v", err)
	}
	if len(p.Variables) != 1 {
		t.Errorf("Variables = %+v", p.Variables)
	}
}

func TestPathSegmentsEscaped(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/project/PRJ/application/my%20app" {
			t.Errorf("EscapedPath = %v", r.URL.EscapedPath())
		}
		json.NewEncoder(w).Encode(model.Application{Name: "my app"})
	}, nil)

	if _, err := client.GetApplication(context.Background(), "PRJ", "my app"); err != nil {
		t.Fatalf("GetApplication() error = %v", err)
	}
}

func TestSessionTokenPreferredOverBasic(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(HeaderSessionToken); got != "tok" {
			t.Errorf("Session-Token = %q, want tok", got)
		}
		if got := r.Header.Get(HeaderAuthorization); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Error("Request-ID header missing")
		}
		w.Write([]byte(`[]`))
	}, staticCreds{token: "tok", user: "alice", pass: "secret"})

	if _, err := client.ListGroups(context.Background()); err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
}

func TestBasicCredentialsWithoutToken(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			t.Errorf("BasicAuth() = %q, %q, %v", user, pass, ok)
		}
		w.Write([]byte(`[]`))
	}, staticCreds{user: "alice", pass: "secret"})

	if _, err := client.ListActions(context.Background()); err != nil {
		t.Fatalf("ListActions() error = %v", err)
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", 400, `{"message":"invalid project key"}`, "invalid project key"},
		{"error field", 409, `{"error":"project already exists"}`, "project already exists"},
		{"unparseable", 500, `oops`, "An error has occurred"},
		{"empty", 502, ``, "An error has occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := client.GetGroup(context.Background(), "g")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %v, want %v", apiErr.StatusCode, tt.status)
			}

			notes := rec.Notifications()
			if len(notes) != 1 {
				t.Fatalf("notifications = %d, want 1", len(notes))
			}
			if notes[0].Message != tt.wantMsg {
				t.Errorf("notification = %q, want %q", notes[0].Message, tt.wantMsg)
			}
			if notes[0].Level != notify.Error {
				t.Errorf("level = %v, want error", notes[0].Level)
			}
		})
	}
}

func TestUnauthorizedCallsHook(t *testing.T) {
	client, rec, ic := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, staticCreds{token: "expired"})

	calls := 0
	ic.OnUnauthorized = func() { calls++ }

	_, err := client.Me(context.Background())
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("error = %v, want 401", err)
	}
	if calls != 1 {
		t.Errorf("OnUnauthorized calls = %d, want 1", calls)
	}
	notes := rec.Notifications()
	if len(notes) != 1 || notes[0].Message != ic.Messages.SessionExpired {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestUnreachableAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &notify.Recorder{}
	client := NewClient(url, WithInterceptor(NewInterceptor(nil, rec)))

	_, err := client.ListProjects(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsUnreachable() {
		t.Fatalf("error = %v, want unreachable *APIError", err)
	}
	notes := rec.Notifications()
	if len(notes) != 1 || notes[0].Message != "API is unreachable" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestCancelledRequestNotNotified(t *testing.T) {
	client, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListBroadcasts(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if n := len(rec.Notifications()); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
}

func TestLocalizedMessages(t *testing.T) {
	client, rec, ic := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)
	ic.Messages = notify.MessagesFor("fr")

	client.ListWorkerModels(context.Background())

	notes := rec.Notifications()
	if len(notes) != 1 || notes[0].Title != "Erreur" || !strings.HasPrefix(notes[0].Message, "Une erreur") {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		wantMsg string
	}{
		{"with message", &APIError{StatusCode: 404, Message: "project not found"}, "API error (404): project not found"},
		{"without message", &APIError{StatusCode: 500}, "API error: status 500"},
		{"unreachable", &APIError{}, "API unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}

func TestAPIErrorHelpers(t *testing.T) {
	tests := []struct {
		status        int
		isNotFound    bool
		isUnauth      bool
		isForbidden   bool
		isConflict    bool
		isUnreachable bool
	}{
		{404, true, false, false, false, false},
		{401, false, true, false, false, false},
		{403, false, false, true, false, false},
		{409, false, false, false, true, false},
		{0, false, false, false, false, true},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status}
		if err.IsNotFound() != tt.isNotFound {
			t.Errorf("status %d: IsNotFound() = %v", tt.status, err.IsNotFound())
		}
		if err.IsUnauthorized() != tt.isUnauth {
			t.Errorf("status %d: IsUnauthorized() = %v", tt.status, err.IsUnauthorized())
		}
		if err.IsForbidden() != tt.isForbidden {
			t.Errorf("status %d: IsForbidden() = %v", tt.status, err.IsForbidden())
		}
		if err.IsConflict() != tt.isConflict {
			t.Errorf("status %d: IsConflict() = %v", tt.status, err.IsConflict())
		}
		if err.IsUnreachable() != tt.isUnreachable {
			t.Errorf("status %d: IsUnreachable() = %v", tt.status, err.IsUnreachable())
		}
	}
}

func TestInterceptorHeader(t *testing.T) {
	i := NewInterceptor(staticCreds{user: "alice", pass: "secret"}, nil)
	h := i.Header()

	if got := h.Get(HeaderAuthorization); got != "Basic YWxpY2U6c2VjcmV0" {
		t.Errorf("Authorization = %q", got)
	}
	if h.Get(HeaderRequestID) == "" {
		t.Error("missing Request-ID")
	}

	i.Credentials = staticCreds{token: "tok"}
	if got := i.Header().Get(HeaderSessionToken); got != "tok" {
		t.Errorf("Session-Token = %q", got)
	}
}
