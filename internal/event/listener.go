// Package event listens to the API push channel and keeps the stores in step
// with changes made elsewhere.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/cell"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/stream"
	"github.com/morrisclay/cds-console/internal/ws"
)

// Transports of the push channel.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// HeaderClientID identifies the listener to the server.
const HeaderClientID = "Client-ID"

// Source is one connection to the push channel.
type Source interface {
	Connect(ctx context.Context) error
	Close() error
	Done() <-chan struct{}
}

// Dialer builds a Source identified by clientID, delivering raw messages to
// onMessage.
type Dialer func(clientID string, onMessage func([]byte), onError func(error)) Source

// NewDialer returns a Dialer for the given transport. SSE requests go through
// the API client, interceptor included; the WebSocket handshake carries the
// interceptor's credential headers.
func NewDialer(transport string, client *api.Client, i *api.Interceptor) (Dialer, error) {
	switch transport {
	case TransportSSE, "":
		return func(clientID string, onMessage func([]byte), onError func(error)) Source {
			header := http.Header{}
			header.Set(HeaderClientID, clientID)
			c := stream.NewClient(client.StreamURL(), client.HTTPClient(), header)
			c.OnMessage = onMessage
			c.OnError = onError
			return c
		}, nil
	case TransportWebSocket:
		return func(clientID string, onMessage func([]byte), onError func(error)) Source {
			header := http.Header{}
			if i != nil {
				header = i.Header()
			}
			header.Set(HeaderClientID, clientID)
			c := ws.NewClient(client.WebSocketURL(), header)
			c.OnMessage = onMessage
			c.OnError = onError
			return &wsSource{Client: c, interceptor: i}
		}, nil
	}
	return nil, fmt.Errorf("unknown event transport %q (want %s or %s)", transport, TransportSSE, TransportWebSocket)
}

// wsSource routes a rejected WebSocket handshake to the interceptor, which
// never sees it otherwise.
type wsSource struct {
	*ws.Client
	interceptor *api.Interceptor
}

func (s *wsSource) Connect(ctx context.Context) error {
	err := s.Client.Connect(ctx)
	if isUnauthorized(err) && s.interceptor != nil {
		s.interceptor.Unauthorized()
	}
	return err
}

// ErrUnauthorized is returned by Run when the server rejects the
// credentials; reconnecting cannot succeed until the user signs in again.
var ErrUnauthorized = errors.New("push channel: credentials rejected")

func isUnauthorized(err error) bool {
	var hs *ws.HandshakeError
	if errors.As(err, &hs) {
		return hs.StatusCode == http.StatusUnauthorized
	}
	var st *stream.StatusError
	if errors.As(err, &st) {
		return st.StatusCode == http.StatusUnauthorized
	}
	return api.IsStatus(err, http.StatusUnauthorized)
}

// ProjectMarker records projects changed by someone else.
type ProjectMarker interface {
	MarkExternallyChanged(key string)
}

// WarningLoader reloads the warnings of a project.
type WarningLoader interface {
	Load(ctx context.Context, key string) ([]model.Warning, error)
}

// BroadcastRefresher reloads the broadcast list.
type BroadcastRefresher interface {
	Loaded() bool
	Refresh(ctx context.Context) ([]model.Broadcast, error)
}

// Targets are the stores an event is dispatched to. Nil targets are skipped.
type Targets struct {
	Projects   ProjectMarker
	Warnings   WarningLoader
	Broadcasts BroadcastRefresher
	// Username returns the signed-in user; their own events are not
	// external changes.
	Username func() string
}

// Listener consumes the push channel.
type Listener struct {
	dial     Dialer
	targets  Targets
	events   *cell.Cell[model.Event]
	state    *cell.Cell[bool]
	logger   zerolog.Logger
	clientID string

	// MinBackoff and MaxBackoff bound the delay between reconnections.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewListener creates a listener. The client ID is generated once and kept
// across reconnections.
func NewListener(dial Dialer, targets Targets, logger zerolog.Logger) *Listener {
	return &Listener{
		dial:       dial,
		targets:    targets,
		events:     cell.Empty[model.Event](),
		state:      cell.New(false),
		logger:     logger.With().Str("component", "event").Logger(),
		clientID:   uuid.NewString(),
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// ClientID returns the identifier sent with every connection.
func (l *Listener) ClientID() string {
	return l.clientID
}

// Subscribe registers fn for every event received after dispatch.
func (l *Listener) Subscribe(fn func(model.Event)) (cancel func()) {
	return l.events.Subscribe(fn)
}

// SubscribeState calls fn with the connection state, now and on every
// change.
func (l *Listener) SubscribeState(fn func(connected bool)) (cancel func()) {
	return l.state.Subscribe(fn)
}

func (l *Listener) setConnected(connected bool) {
	if cur, _ := l.state.Value(); cur != connected {
		l.state.Publish(connected)
	}
}

// Run connects and reconnects until ctx is done. It stops with
// ErrUnauthorized when the server rejects the credentials.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.MinBackoff
	for {
		src := l.dial(l.clientID,
			func(data []byte) {
				if err := l.Handle(ctx, data); err != nil {
					l.logger.Debug().Err(err).Msg("dropping event")
				}
			},
			func(err error) {
				l.logger.Warn().Err(err).Msg("push channel error")
			},
		)

		if err := src.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isUnauthorized(err) {
				l.logger.Warn().Err(err).Msg("push channel rejected the credentials")
				return fmt.Errorf("%w: %v", ErrUnauthorized, err)
			}
			l.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("push channel unavailable")
		} else {
			l.logger.Debug().Msg("push channel connected")
			l.setConnected(true)
			backoff = l.MinBackoff
			select {
			case <-src.Done():
				l.logger.Debug().Msg("push channel closed")
				l.setConnected(false)
			case <-ctx.Done():
				src.Close()
				l.setConnected(false)
				return ctx.Err()
			}
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > l.MaxBackoff {
			backoff = l.MaxBackoff
		}
	}
}

// Handle decodes one message, dispatches it and republishes it.
func (l *Listener) Handle(ctx context.Context, data []byte) error {
	var e model.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return fmt.Errorf("event without type")
	}

	log := l.logger.With().Str("type", e.Type).Str("project", e.ProjectKey).Logger()
	t := l.targets

	switch {
	case e.IsWarning():
		if t.Warnings != nil && e.ProjectKey != "" {
			if _, err := t.Warnings.Load(ctx, e.ProjectKey); err != nil {
				log.Warn().Err(err).Msg("reload warnings")
			}
		}
	case e.IsBroadcast():
		if t.Broadcasts != nil && t.Broadcasts.Loaded() {
			if _, err := t.Broadcasts.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("reload broadcasts")
			}
		}
	case e.IsProjectChange():
		if t.Projects != nil && !l.own(e) {
			log.Debug().Str("username", e.Username).Msg("project changed elsewhere")
			t.Projects.MarkExternallyChanged(e.ProjectKey)
		}
	}

	l.events.Publish(e)
	return nil
}

func (l *Listener) own(e model.Event) bool {
	if l.targets.Username == nil || e.Username == "" {
		return false
	}
	return e.Username == l.targets.Username()
}
