package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/morrisclay/cds-console/internal/model"
)

// TokenClaims are the claims of a session token the console reads.
type TokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
	MFA       bool   `json:"mfa,omitempty"`
}

// ParseToken decodes the claims of a session token without checking its
// signature. The API remains the authority on validity; the claims only
// describe the session locally. ok is false when token is not a JWT.
func ParseToken(token string) (*TokenClaims, bool) {
	if token == "" {
		return nil, false
	}
	var claims TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// completeSession fills the session fields the identity lacks from the
// token claims. The stored session is never modified.
func completeSession(s *model.AuthSession, token string) *model.AuthSession {
	claims, ok := ParseToken(token)
	if !ok {
		return s
	}

	var out model.AuthSession
	if s != nil {
		out = *s
	}
	if out.ID == "" {
		out.ID = claims.SessionID
	}
	if out.ExpireAt.IsZero() && claims.ExpiresAt != nil {
		out.ExpireAt = claims.ExpiresAt.Time.UTC().Truncate(time.Second)
	}
	if s == nil {
		out.MFA = claims.MFA
	}
	return &out
}
