package api

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/notify"
)

// Credential headers.
const (
	HeaderSessionToken  = "Session-Token"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "Request-ID"
)

// CredentialSource provides the credentials attached to every request.
type CredentialSource interface {
	// SessionToken returns the session token, or "" when there is none.
	SessionToken() string
	// BasicCredentials returns a username/password pair, ok is false when
	// none is available.
	BasicCredentials() (username, password string, ok bool)
}

// Interceptor is the http.RoundTripper every API request goes through.
//
// It attaches credentials before sending and, when a request fails, emits
// exactly one notification. A 401 additionally calls OnUnauthorized. The
// failure itself is always handed back to the caller.
type Interceptor struct {
	Base        http.RoundTripper
	Credentials CredentialSource
	Notifier    notify.Notifier
	Messages    notify.Messages
	// OnUnauthorized is called on every 401, before the notification.
	OnUnauthorized func()
	Logger         zerolog.Logger
}

// NewInterceptor returns an interceptor with English messages and no logging.
func NewInterceptor(creds CredentialSource, n notify.Notifier) *Interceptor {
	return &Interceptor{
		Credentials: creds,
		Notifier:    n,
		Messages:    notify.MessagesFor("en"),
		Logger:      zerolog.Nop(),
	}
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	i.authorize(req)

	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)
	log := i.Logger.With().Str("request_id", reqID).Str("method", req.Method).Str("path", req.URL.Path).Logger()

	base := i.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		log.Debug().Err(err).Msg("api unreachable")
		i.notify(i.Messages.APIUnreachable)
		return nil, err
	}
	log.Debug().Int("status", resp.StatusCode).Msg("api response")

	if resp.StatusCode < 400 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		body = nil
	}
	// Hand an intact body back to the client.
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if resp.StatusCode == http.StatusUnauthorized {
		i.Unauthorized()
		return resp, nil
	}

	msg, _, ok := parseErrorBody(body)
	if !ok {
		msg = i.Messages.GenericError
	}
	i.notify(msg)
	return resp, nil
}

// Unauthorized handles credentials rejected by the server: it calls
// OnUnauthorized and notifies once. RoundTrip calls it on every 401;
// connections that bypass RoundTrip call it themselves.
func (i *Interceptor) Unauthorized() {
	if i.OnUnauthorized != nil {
		i.OnUnauthorized()
	}
	i.notify(i.Messages.SessionExpired)
}

// Header returns the credential and Request-ID headers for connections that
// do not go through RoundTrip, such as a WebSocket handshake.
func (i *Interceptor) Header() http.Header {
	req := &http.Request{Header: make(http.Header)}
	i.authorize(req)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	return req.Header
}

// authorize prefers the session token over Basic credentials.
func (i *Interceptor) authorize(req *http.Request) {
	if i.Credentials == nil {
		return
	}
	if tok := i.Credentials.SessionToken(); tok != "" {
		req.Header.Set(HeaderSessionToken, tok)
		return
	}
	if user, pass, ok := i.Credentials.BasicCredentials(); ok {
		enc := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set(HeaderAuthorization, "Basic "+enc)
	}
}

func (i *Interceptor) notify(msg string) {
	if i.Notifier != nil {
		i.Notifier.Notify(notify.Error, i.Messages.ErrorTitle, msg)
	}
}
