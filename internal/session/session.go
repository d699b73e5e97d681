// Package session holds the identity of the user driving the console.
//
// The Store is either Anonymous or Authenticated. It is hydrated from
// durable storage when created, without contacting the API: a stale
// credential is only discovered when the server rejects a request.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/cell"
	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/model"
)

// Context is an immutable snapshot of the session. Components receive it
// explicitly instead of reading shared state.
type Context struct {
	User     *model.User
	Consumer *model.AuthConsumer
	Session  *model.AuthSession
	// Token is the session token, empty for Basic credentials.
	Token    string
	Password string
}

// IsAuthenticated reports whether the snapshot carries an identity.
func (c *Context) IsAuthenticated() bool {
	return c != nil && c.User != nil
}

// IsMFAPresent reports whether the active session was opened with a second
// factor.
func (c *Context) IsMFAPresent() bool {
	return c.IsAuthenticated() && c.Session != nil && c.Session.MFA
}

// IsAdmin reports whether the identity may use administrative features. A
// consumer that supports MFA only grants admin rights to MFA sessions.
func (c *Context) IsAdmin() bool {
	if !c.IsAuthenticated() || !c.User.IsAdmin() {
		return false
	}
	if c.Consumer != nil && c.Consumer.SupportMFA {
		return c.IsMFAPresent()
	}
	return true
}

// Username returns the username, or "" when anonymous.
func (c *Context) Username() string {
	if !c.IsAuthenticated() {
		return ""
	}
	return c.User.Username
}

// Store is the session state of the console.
type Store struct {
	storage config.Storage
	state   *cell.Cell[*Context]
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store hydrated from storage.
func New(storage config.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	ctx, err := s.hydrate()
	if err != nil {
		s.logger.Warn().Err(err).Msg("read identity")
	}
	s.state = cell.New(ctx)
	return s
}

// hydrate reads the durable slots. An empty slot or a malformed identity
// means anonymous; err is set only when storage itself could not be read.
func (s *Store) hydrate() (*Context, error) {
	raw, err := s.storage.Get(config.SlotUser)
	if err != nil {
		if errors.Is(err, config.ErrSlotNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.User == nil {
		s.logger.Warn().Err(err).Msg("ignoring malformed stored identity")
		return nil, nil
	}

	ctx := &Context{
		User:     id.User,
		Consumer: id.Consumer,
		Session:  id.Session,
		Password: id.Password,
	}
	if tok, err := s.storage.Get(config.SlotSessionToken); err == nil {
		ctx.Token = tok
		ctx.Session = completeSession(ctx.Session, tok)
	}
	s.logger.Debug().Str("user", ctx.Username()).Msg("session restored")
	return ctx, nil
}

// Reload re-reads durable storage and publishes the result if it differs
// from the current state. It is used when another process logs in or out.
// Unreadable storage keeps the current state.
func (s *Store) Reload() {
	next, err := s.hydrate()
	if err != nil {
		s.logger.Debug().Err(err).Msg("storage unreadable, session kept")
		return
	}
	if sameIdentity(s.Current(), next) {
		return
	}
	s.logger.Debug().Str("user", next.Username()).Msg("session changed in storage")
	s.state.Publish(next)
}

func sameIdentity(a, b *Context) bool {
	if !a.IsAuthenticated() || !b.IsAuthenticated() {
		return a.IsAuthenticated() == b.IsAuthenticated()
	}
	return a.User.Username == b.User.Username && a.Token == b.Token && a.Password == b.Password
}

// Login persists id and makes it the active identity. When isSessionToken
// is true, token is a session token stored in its own slot; otherwise it is
// the password sent with Basic credentials.
func (s *Store) Login(id model.Identity, token string, isSessionToken bool) error {
	if id.User == nil {
		return errors.New("login: identity has no user")
	}

	ctx := &Context{User: id.User, Consumer: id.Consumer, Session: id.Session}
	if isSessionToken {
		ctx.Token = token
		ctx.Session = completeSession(ctx.Session, token)
		id.Password = ""
	} else {
		ctx.Password = token
		id.Password = token
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.storage.Set(config.SlotUser, string(data)); err != nil {
		return fmt.Errorf("login: persist identity: %w", err)
	}
	if isSessionToken {
		if err := s.storage.Set(config.SlotSessionToken, token); err != nil {
			return fmt.Errorf("login: persist session token: %w", err)
		}
	} else if err := s.storage.Remove(config.SlotSessionToken); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s.logger.Info().Str("user", ctx.Username()).Bool("session_token", isSessionToken).Msg("logged in")
	s.state.Publish(ctx)
	return nil
}

// Logout clears both durable slots and publishes nil. The in-memory state
// is reset even if storage cannot be cleared.
func (s *Store) Logout() error {
	errUser := s.storage.Remove(config.SlotUser)
	errToken := s.storage.Remove(config.SlotSessionToken)

	if cur, _ := s.state.Value(); cur.IsAuthenticated() {
		s.logger.Info().Str("user", cur.Username()).Msg("logged out")
	}
	s.state.Publish(nil)

	if err := errors.Join(errUser, errToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current returns the current snapshot, nil when anonymous.
func (s *Store) Current() *Context {
	c, _ := s.state.Value()
	return c
}

// IsAuthenticated reports whether an identity is active.
func (s *Store) IsAuthenticated() bool {
	return s.Current().IsAuthenticated()
}

// IsAdmin reports whether the active identity has administrative rights.
func (s *Store) IsAdmin() bool {
	return s.Current().IsAdmin()
}

// IsMFAPresent reports whether the active session carries the MFA flag.
func (s *Store) IsMFAPresent() bool {
	return s.Current().IsMFAPresent()
}

// Expired reports whether the active session has a known expiry in the
// past.
func (s *Store) Expired() bool {
	c := s.Current()
	return c.IsAuthenticated() && c.Session.Expired(s.now())
}

// Subscribe calls fn with the current snapshot and every later change.
func (s *Store) Subscribe(fn func(*Context)) (cancel func()) {
	return s.state.Subscribe(fn)
}

// SessionToken implements api.CredentialSource.
func (s *Store) SessionToken() string {
	if c := s.Current(); c.IsAuthenticated() {
		return c.Token
	}
	return ""
}

// BasicCredentials implements api.CredentialSource.
func (s *Store) BasicCredentials() (string, string, bool) {
	c := s.Current()
	if !c.IsAuthenticated() || c.Password == "" {
		return "", "", false
	}
	return c.User.Username, c.Password, true
}
