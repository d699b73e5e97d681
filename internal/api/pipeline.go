package api

import (
	"context"
	"net/http"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Pipeline endpoints ---

func pipelinePath(key, name string) string {
	return projectPath(key) + "/pipeline/" + esc(name)
}

// GetPipeline returns a pipeline of a project.
func (c *Client) GetPipeline(ctx context.Context, key, name string) (*model.Pipeline, error) {
	data, err := c.request(ctx, http.MethodGet, pipelinePath(key, name), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "pipeline", func(p *model.Pipeline) bool { return p.Name != "" })
}

// UpdatePipeline updates a pipeline. oldName is its current name so the call
// can rename it.
func (c *Client) UpdatePipeline(ctx context.Context, key, oldName string, pip model.Pipeline) (*model.Pipeline, error) {
	var updated model.Pipeline
	if err := c.Put(ctx, pipelinePath(key, oldName), pip, &updated); err != nil {
		return nil, err
	}
	if updated.Name == "" {
		updated = pip
	}
	return &updated, nil
}

// DeletePipeline deletes a pipeline.
func (c *Client) DeletePipeline(ctx context.Context, key, name string) error {
	return c.Delete(ctx, pipelinePath(key, name), nil)
}
