package api

import (
	"context"

	"github.com/morrisclay/cds-console/internal/model"
)

// ListWarnings returns the active warnings of a project.
func (c *Client) ListWarnings(ctx context.Context, key string) ([]model.Warning, error) {
	data, err := c.getList(ctx, projectPath(key)+"/warning")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Warning](data, "warnings")
}
