// Package guard protects routes behind session predicates.
package guard

import (
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/session"
)

// LoginRoute is where denied navigations are sent.
const LoginRoute = "/account/login"

// RedirectParam carries the originally requested location.
const RedirectParam = "redirect"

// Level is the access level a route requires.
type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

func (l Level) String() string {
	switch l {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return "public"
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string, query url.Values)
}

// Session is the part of the session store the guard consults.
type Session interface {
	IsAuthenticated() bool
	IsAdmin() bool
	Logout() error
}

var _ Session = (*session.Store)(nil)

// Guard checks routes against the session and redirects denied ones to the
// login route.
type Guard struct {
	session Session
	nav     Navigator
	logger  zerolog.Logger

	mu      sync.Mutex
	current string
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New creates a guard.
func New(s Session, nav Navigator, opts ...Option) *Guard {
	g := &Guard{session: s, nav: nav, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticated allows location when a user is logged in.
func (g *Guard) Authenticated(location string) bool {
	return g.Enter(Authenticated, location)
}

// Admin allows location when the user has administrative rights.
func (g *Guard) Admin(location string) bool {
	return g.Enter(Admin, location)
}

// Enter checks location against level. An allowed location becomes the
// current one; a denied one redirects to the login route.
func (g *Guard) Enter(level Level, location string) bool {
	ok := true
	switch level {
	case Authenticated:
		ok = g.session.IsAuthenticated()
	case Admin:
		ok = g.session.IsAdmin()
	}
	if !ok {
		g.redirect(location)
		return false
	}

	g.mu.Lock()
	g.current = location
	g.mu.Unlock()
	return true
}

// Current returns the last location allowed by the guard.
func (g *Guard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Unauthorized logs out and sends the user to the login route, carrying the
// current location. It is meant to be called when the API rejects the
// credentials.
func (g *Guard) Unauthorized() {
	// The in-memory session is anonymous even when storage fails.
	if err := g.session.Logout(); err != nil {
		g.logger.Warn().Err(err).Msg("clear stored credentials")
	}
	g.redirect(g.Current())
}

func (g *Guard) redirect(location string) {
	q := url.Values{}
	if location != "" {
		q.Set(RedirectParam, location)
	}
	g.nav.Navigate(LoginRoute, q)
}

// Navigation is one recorded navigation.
type Navigation struct {
	Route string
	Query url.Values
}

// URL returns the navigation as a relative URL.
func (n Navigation) URL() string {
	if len(n.Query) == 0 {
		return n.Route
	}
	return n.Route + "?" + n.Query.Encode()
}

// Recorder is a Navigator that remembers navigations.
type Recorder struct {
	mu   sync.Mutex
	navs []Navigation
}

// Navigate implements Navigator.
func (r *Recorder) Navigate(route string, query url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, Navigation{Route: route, Query: query})
}

// Last returns the latest navigation, ok is false when none happened.
func (r *Recorder) Last() (Navigation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.navs) == 0 {
		return Navigation{}, false
	}
	return r.navs[len(r.navs)-1], true
}

// Navigations returns every recorded navigation.
func (r *Recorder) Navigations() []Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Navigation(nil), r.navs...)
}
