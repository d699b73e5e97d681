package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/model"
)

func adminIdentity(supportMFA, mfa bool) model.Identity {
	return model.Identity{
		User:     &model.User{ID: "1", Username: "admin", Ring: model.RingAdmin},
		Consumer: &model.AuthConsumer{ID: "c1", Type: "local", SupportMFA: supportMFA},
		Session:  &model.AuthSession{ID: "s1", ConsumerID: "c1", MFA: mfa},
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name       string
		ring       string
		supportMFA bool
		mfa        bool
		want       bool
	}{
		{"mfa required and missing", model.RingAdmin, true, false, false},
		{"mfa not supported", model.RingAdmin, false, false, true},
		{"mfa required and present", model.RingAdmin, true, true, true},
		{"not admin ring", model.RingUser, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.NewMemoryStorage(nil))
			id := adminIdentity(tt.supportMFA, tt.mfa)
			id.User.Ring = tt.ring

			if err := s.Login(id, "token", true); err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if got := s.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnonymousPredicates(t *testing.T) {
	s := New(config.NewMemoryStorage(nil))

	if s.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false")
	}
	if s.IsAdmin() {
		t.Error("IsAdmin() = true, want false")
	}
	if s.IsMFAPresent() {
		t.Error("IsMFAPresent() = true, want false")
	}
	if s.Current() != nil {
		t.Errorf("Current() = %+v, want nil", s.Current())
	}
}

func TestLoginPersistsSlots(t *testing.T) {
	storage := config.NewMemoryStorage(nil)
	s := New(storage)

	if err := s.Login(adminIdentity(false, false), "tok", true); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	raw, err := storage.Get(config.SlotUser)
	if err != nil {
		t.Fatalf("Get(user) error = %v", err)
	}
	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		t.Fatalf("stored identity: %v", err)
	}
	if id.User.Username != "admin" {
		t.Errorf("stored username = %v, want admin", id.User.Username)
	}

	tok, err := storage.Get(config.SlotSessionToken)
	if err != nil || tok != "tok" {
		t.Errorf("Get(token) = %q, %v; want tok", tok, err)
	}
	if s.SessionToken() != "tok" {
		t.Errorf("SessionToken() = %q, want tok", s.SessionToken())
	}
}

func TestLoginBasicCredentials(t *testing.T) {
	storage := config.NewMemoryStorage(map[string]string{config.SlotSessionToken: "old"})
	s := New(storage)

	if err := s.Login(adminIdentity(false, false), "secret", false); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := storage.Get(config.SlotSessionToken); err != config.ErrSlotNotFound {
		t.Errorf("token slot err = %v, want ErrSlotNotFound", err)
	}
	if s.SessionToken() != "" {
		t.Errorf("SessionToken() = %q, want empty", s.SessionToken())
	}
	user, pass, ok := s.BasicCredentials()
	if !ok || user != "admin" || pass != "secret" {
		t.Errorf("BasicCredentials() = %q, %q, %v", user, pass, ok)
	}
}

func TestLogoutClearsSlotsAndPublishesNil(t *testing.T) {
	storage := config.NewMemoryStorage(nil)
	s := New(storage)
	s.Login(adminIdentity(false, false), "tok", true)

	var got []*Context
	cancel := s.Subscribe(func(c *Context) { got = append(got, c) })
	defer cancel()

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	if got[0] == nil || got[1] != nil {
		t.Errorf("deliveries = %+v, want [identity, nil]", got)
	}
	for _, slot := range []string{config.SlotUser, config.SlotSessionToken} {
		if _, err := storage.Get(slot); err != config.ErrSlotNotFound {
			t.Errorf("slot %s err = %v, want ErrSlotNotFound", slot, err)
		}
	}
	if s.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after logout")
	}
}

func TestHydrateFromStorage(t *testing.T) {
	data, _ := json.Marshal(adminIdentity(true, true))
	storage := config.NewMemoryStorage(map[string]string{
		config.SlotUser:         string(data),
		config.SlotSessionToken: "tok",
	})

	s := New(storage)

	if !s.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false, want true")
	}
	if !s.IsAdmin() {
		t.Error("IsAdmin() = false, want true")
	}
	if s.SessionToken() != "tok" {
		t.Errorf("SessionToken() = %q, want tok", s.SessionToken())
	}
}

func TestHydrateMalformedIdentity(t *testing.T) {
	storage := config.NewMemoryStorage(map[string]string{config.SlotUser: "{not json"})

	s := New(storage)

	if s.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false")
	}
}

func TestReload(t *testing.T) {
	storage := config.NewMemoryStorage(nil)
	s := New(storage)

	deliveries := 0
	cancel := s.Subscribe(func(*Context) { deliveries++ })
	defer cancel()

	data, _ := json.Marshal(adminIdentity(false, false))
	storage.Set(config.SlotUser, string(data))
	s.Reload()

	if !s.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after reload")
	}

	// Unchanged storage does not republish.
	s.Reload()
	if deliveries != 2 {
		t.Errorf("deliveries = %d, want 2", deliveries)
	}
}

func TestTokenClaimsCompleteSession(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		SessionID:        "sess-42",
		MFA:              true,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	id := adminIdentity(true, false)
	id.Session = nil

	now := exp.Add(time.Hour)
	s := New(config.NewMemoryStorage(nil), WithClock(func() time.Time { return now }))
	if err := s.Login(id, token, true); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	c := s.Current()
	if c.Session == nil {
		t.Fatal("Session = nil, want one built from claims")
	}
	if c.Session.ID != "sess-42" {
		t.Errorf("Session.ID = %v, want sess-42", c.Session.ID)
	}
	if !c.Session.ExpireAt.Equal(exp) {
		t.Errorf("Session.ExpireAt = %v, want %v", c.Session.ExpireAt, exp)
	}
	if !s.IsMFAPresent() {
		t.Error("IsMFAPresent() = false, want true")
	}
	if !s.Expired() {
		t.Error("Expired() = false, want true")
	}
}

func TestParseTokenOpaque(t *testing.T) {
	if _, ok := ParseToken("not-a-jwt"); ok {
		t.Error("ParseToken() ok = true for opaque token")
	}
}

func TestReloadKeepsSessionWhileFileIsRewritten(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	storage := config.NewFileStorage("https://cds.example.com")
	s := New(storage)
	if err := s.Login(adminIdentity(false, false), "tok", true); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	path := filepath.Join(home, ".cdsconsole", "storage.json")
	if err := os.Truncate(path, 0); err != nil {
		t.Fatal(err)
	}
	s.Reload()
	if !s.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after reading a truncated file")
	}

	// A removed file is a logout from another process.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	s.Reload()
	if s.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after the storage file was removed")
	}
}
