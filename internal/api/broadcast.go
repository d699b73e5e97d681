package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Broadcast endpoints ---

func broadcastPath(id int64) string {
	return "/broadcast/" + strconv.FormatInt(id, 10)
}

// ListBroadcasts returns the broadcasts visible to the caller.
func (c *Client) ListBroadcasts(ctx context.Context) ([]model.Broadcast, error) {
	data, err := c.getList(ctx, "/broadcast")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Broadcast](data, "broadcasts")
}

// GetBroadcast returns a broadcast.
func (c *Client) GetBroadcast(ctx context.Context, id int64) (*model.Broadcast, error) {
	data, err := c.request(ctx, http.MethodGet, broadcastPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "broadcast", func(b *model.Broadcast) bool { return b.ID != 0 })
}

// CreateBroadcast creates a broadcast. Administrators only.
func (c *Client) CreateBroadcast(ctx context.Context, b model.Broadcast) (*model.Broadcast, error) {
	var created model.Broadcast
	if err := c.Post(ctx, "/broadcast", b, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateBroadcast updates a broadcast. Administrators only.
func (c *Client) UpdateBroadcast(ctx context.Context, b model.Broadcast) (*model.Broadcast, error) {
	var updated model.Broadcast
	if err := c.Put(ctx, broadcastPath(b.ID), b, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = b
	}
	return &updated, nil
}

// DeleteBroadcast deletes a broadcast. Administrators only.
func (c *Client) DeleteBroadcast(ctx context.Context, id int64) error {
	return c.Delete(ctx, broadcastPath(id), nil)
}

// MarkBroadcastRead marks a broadcast as read by the caller.
func (c *Client) MarkBroadcastRead(ctx context.Context, id int64) error {
	return c.Post(ctx, broadcastPath(id)+"/mark", nil, nil)
}
