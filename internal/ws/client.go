// Package ws reads the WebSocket events channel of the API.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a WebSocket client.
type Client struct {
	conn      *websocket.Conn
	url       string
	header    http.Header
	OnMessage func([]byte)
	OnError   func(error)
	OnClose   func()
	done      chan struct{}
}

// NewClient creates a WebSocket client sending header on the handshake.
func NewClient(url string, header http.Header) *Client {
	return &Client{
		url:    url,
		header: header,
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			return &HandshakeError{StatusCode: resp.StatusCode, Err: err}
		}
		return err
	}

	c.conn = conn
	go c.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()
	return nil
}

// HandshakeError is returned when the server refuses the upgrade.
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return "websocket handshake: " + http.StatusText(e.StatusCode) + ": " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// readLoop reads messages from the WebSocket.
func (c *Client) readLoop() {
	defer func() {
		if c.OnClose != nil {
			c.OnClose()
		}
		close(c.done)
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if c.OnError != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.OnError(err)
			}
			return
		}

		if c.OnMessage != nil {
			c.OnMessage(message)
		}
	}
}

// SendJSON sends a JSON message, such as a subscription filter.
func (c *Client) SendJSON(v any) error {
	if c.conn == nil {
		return websocket.ErrCloseSent
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	if err != nil {
		return c.conn.Close()
	}

	// Wait for read loop to finish or timeout
	select {
	case <-c.done:
	case <-time.After(time.Second):
	}

	return c.conn.Close()
}

// Done returns a channel that's closed when the connection is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
