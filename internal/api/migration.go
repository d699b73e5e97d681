package api

import (
	"context"
	"strconv"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Admin migration endpoints ---

// ListMigrations returns the server data migrations. Administrators only.
func (c *Client) ListMigrations(ctx context.Context) ([]model.Migration, error) {
	data, err := c.getList(ctx, "/admin/migration")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Migration](data, "migrations")
}

// CancelMigration marks a migration as cancelled.
func (c *Client) CancelMigration(ctx context.Context, id int64) error {
	return c.Post(ctx, "/admin/migration/"+strconv.FormatInt(id, 10)+"/cancel", nil, nil)
}

// ResetMigration puts a migration back to the todo state.
func (c *Client) ResetMigration(ctx context.Context, id int64) error {
	return c.Post(ctx, "/admin/migration/"+strconv.FormatInt(id, 10)+"/todo", nil, nil)
}
