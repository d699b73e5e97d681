package api

import (
	"context"
	"strconv"

	"github.com/morrisclay/cds-console/internal/model"
)

// Token expirations accepted by the API.
const (
	TokenDaily      = "daily"
	TokenPersistent = "persistent"
	TokenSession    = "session"
)

// --- Group token endpoints ---

func tokenPath(group string) string {
	return "/group/" + esc(group) + "/token"
}

// ListGroupTokens returns the worker tokens of a group.
func (c *Client) ListGroupTokens(ctx context.Context, group string) ([]model.Token, error) {
	data, err := c.getList(ctx, tokenPath(group))
	if err != nil {
		return nil, err
	}
	return decodeList[model.Token](data, "tokens")
}

// CreateGroupToken generates a worker token for a group. The returned token is
// the only time its value is visible.
func (c *Client) CreateGroupToken(ctx context.Context, group, expiration, description string) (*model.Token, error) {
	var tok model.Token
	body := map[string]string{"description": description}
	if err := c.Post(ctx, tokenPath(group)+"/"+esc(expiration), body, &tok); err != nil {
		return nil, err
	}
	if tok.GroupName == "" {
		tok.GroupName = group
	}
	return &tok, nil
}

// DeleteGroupToken revokes a worker token.
func (c *Client) DeleteGroupToken(ctx context.Context, group string, id int64) error {
	return c.Delete(ctx, tokenPath(group)+"/"+strconv.FormatInt(id, 10), nil)
}
