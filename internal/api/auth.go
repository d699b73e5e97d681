package api

import (
	"context"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Auth endpoints ---

// SignIn authenticates with a local consumer.
func (c *Client) SignIn(ctx context.Context, username, password string) (*model.SigninResponse, error) {
	var resp model.SigninResponse
	err := c.Post(ctx, "/auth/consumer/local/signin", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut ends the current session server-side.
func (c *Client) SignOut(ctx context.Context) error {
	return c.Post(ctx, "/auth/consumer/signout", nil, nil)
}

// Me returns the user, consumer and session behind the current credentials.
func (c *Client) Me(ctx context.Context) (*model.AuthCurrentConsumerResponse, error) {
	data, err := c.request(ctx, "GET", "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "auth", func(r *model.AuthCurrentConsumerResponse) bool {
		return r.User != nil
	})
}

// GetUser returns a user by username.
func (c *Client) GetUser(ctx context.Context, username string) (*model.User, error) {
	data, err := c.request(ctx, "GET", "/user/"+esc(username), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "user", func(u *model.User) bool { return u.ID != "" })
}
