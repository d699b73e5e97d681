package api

import (
	"context"
	"net/http"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Action endpoints ---

// ListActions returns the reusable actions.
func (c *Client) ListActions(ctx context.Context) ([]model.Action, error) {
	data, err := c.getList(ctx, "/action")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Action](data, "actions")
}

// GetAction returns an action.
func (c *Client) GetAction(ctx context.Context, name string) (*model.Action, error) {
	data, err := c.request(ctx, http.MethodGet, "/action/"+esc(name), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "action", func(a *model.Action) bool { return a.Name != "" })
}

// CreateAction creates an action.
func (c *Client) CreateAction(ctx context.Context, a model.Action) (*model.Action, error) {
	var created model.Action
	if err := c.Post(ctx, "/action", a, &created); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created = a
	}
	return &created, nil
}

// UpdateAction updates an action. oldName is its current name.
func (c *Client) UpdateAction(ctx context.Context, oldName string, a model.Action) (*model.Action, error) {
	var updated model.Action
	if err := c.Put(ctx, "/action/"+esc(oldName), a, &updated); err != nil {
		return nil, err
	}
	if updated.Name == "" {
		updated = a
	}
	return &updated, nil
}

// DeleteAction deletes an action.
func (c *Client) DeleteAction(ctx context.Context, name string) error {
	return c.Delete(ctx, "/action/"+esc(name), nil)
}
