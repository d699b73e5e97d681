package api

import (
	"context"
	"net/http"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Application endpoints ---

func applicationPath(key, name string) string {
	return projectPath(key) + "/application/" + esc(name)
}

// GetApplication returns an application of a project.
func (c *Client) GetApplication(ctx context.Context, key, name string) (*model.Application, error) {
	data, err := c.request(ctx, http.MethodGet, applicationPath(key, name), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "application", func(a *model.Application) bool { return a.Name != "" })
}

// UpdateApplication updates an application. oldName is its current name so
// the call can rename it.
func (c *Client) UpdateApplication(ctx context.Context, key, oldName string, app model.Application) (*model.Application, error) {
	var updated model.Application
	if err := c.Put(ctx, applicationPath(key, oldName), app, &updated); err != nil {
		return nil, err
	}
	if updated.Name == "" {
		updated = app
	}
	return &updated, nil
}

// DeleteApplication deletes an application.
func (c *Client) DeleteApplication(ctx context.Context, key, name string) error {
	return c.Delete(ctx, applicationPath(key, name), nil)
}
