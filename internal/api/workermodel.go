package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Worker model endpoints ---

func workerModelPath(id int64) string {
	return "/worker/model/" + strconv.FormatInt(id, 10)
}

// ListWorkerModels returns the worker models visible to the caller.
func (c *Client) ListWorkerModels(ctx context.Context) ([]model.WorkerModel, error) {
	data, err := c.getList(ctx, "/worker/model")
	if err != nil {
		return nil, err
	}
	return decodeList[model.WorkerModel](data, "models")
}

// GetWorkerModel returns a worker model.
func (c *Client) GetWorkerModel(ctx context.Context, id int64) (*model.WorkerModel, error) {
	data, err := c.request(ctx, http.MethodGet, workerModelPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "model", func(m *model.WorkerModel) bool { return m.ID != 0 })
}

// CreateWorkerModel creates a worker model.
func (c *Client) CreateWorkerModel(ctx context.Context, m model.WorkerModel) (*model.WorkerModel, error) {
	var created model.WorkerModel
	if err := c.Post(ctx, "/worker/model", m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateWorkerModel updates a worker model.
func (c *Client) UpdateWorkerModel(ctx context.Context, m model.WorkerModel) (*model.WorkerModel, error) {
	var updated model.WorkerModel
	if err := c.Put(ctx, workerModelPath(m.ID), m, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = m
	}
	return &updated, nil
}

// DeleteWorkerModel deletes a worker model.
func (c *Client) DeleteWorkerModel(ctx context.Context, id int64) error {
	return c.Delete(ctx, workerModelPath(id), nil)
}
