package store

import (
	"context"
	"sync"

	"github.com/morrisclay/cds-console/internal/model"
)

// TokenStore caches worker tokens, one collection per group.
type TokenStore struct {
	svc TokenService

	mu     sync.Mutex
	groups map[string]*Collection[model.Token]
}

// NewTokenStore creates an empty token store.
func NewTokenStore(svc TokenService) *TokenStore {
	return &TokenStore{svc: svc, groups: make(map[string]*Collection[model.Token])}
}

// Group returns the token collection of group.
func (s *TokenStore) Group(group string) *Collection[model.Token] {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.groups[group]
	if !ok {
		c = NewCollection(func(ctx context.Context) ([]model.Token, error) {
			return s.svc.ListGroupTokens(ctx, group)
		}, func(t model.Token) string { return idKey(t.ID) }, nil)
		s.groups[group] = c
	}
	return c
}

// List returns the tokens of group.
func (s *TokenStore) List(ctx context.Context, group string) ([]model.Token, error) {
	return s.Group(group).List(ctx)
}

// Create generates a token. The cached copy does not keep the secret value,
// which is only returned to the caller.
func (s *TokenStore) Create(ctx context.Context, group, expiration, description string) (model.Token, error) {
	tok, err := s.svc.CreateGroupToken(ctx, group, expiration, description)
	if err != nil {
		return model.Token{}, err
	}
	cached := *tok
	cached.Token = ""
	s.Group(group).Put(cached)
	return *tok, nil
}

// Delete revokes a token.
func (s *TokenStore) Delete(ctx context.Context, group string, id int64) error {
	if err := s.svc.DeleteGroupToken(ctx, group, id); err != nil {
		return err
	}
	s.Group(group).Remove(idKey(id))
	return nil
}
