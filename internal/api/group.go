package api

import (
	"context"
	"net/http"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Group endpoints ---

// ListGroups returns every group visible to the caller.
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	data, err := c.getList(ctx, "/group")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Group](data, "groups")
}

// GetGroup returns a group with its members.
func (c *Client) GetGroup(ctx context.Context, name string) (*model.Group, error) {
	data, err := c.request(ctx, http.MethodGet, "/group/"+esc(name), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "group", func(g *model.Group) bool { return g.Name != "" })
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, g model.Group) (*model.Group, error) {
	var created model.Group
	if err := c.Post(ctx, "/group", g, &created); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created = g
	}
	return &created, nil
}

// UpdateGroup updates a group. oldName is its current name.
func (c *Client) UpdateGroup(ctx context.Context, oldName string, g model.Group) (*model.Group, error) {
	var updated model.Group
	if err := c.Put(ctx, "/group/"+esc(oldName), g, &updated); err != nil {
		return nil, err
	}
	if updated.Name == "" {
		updated = g
	}
	return &updated, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	return c.Delete(ctx, "/group/"+esc(name), nil)
}
