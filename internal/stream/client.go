// Package stream reads the server-sent events channel of the API.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Client is a server-sent events client.
type Client struct {
	url        string
	header     http.Header
	OnMessage  func([]byte)
	OnError    func(error)
	OnClose    func()
	httpClient *http.Client
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewClient creates a streaming client. hc carries the credentials, usually
// through the API interceptor; header is added to the request.
func NewClient(url string, hc *http.Client, header http.Header) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		url:        url,
		header:     header,
		httpClient: hc,
		done:       make(chan struct{}),
	}
}

// Connect opens the stream. Messages are delivered until ctx is done or
// Close is called.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		cancel()
		return err
	}

	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return &StatusError{StatusCode: resp.StatusCode}
	}

	go c.readLoop(ctx, resp)
	return nil
}

// StatusError is returned when the server answers the stream request with
// anything but 200.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// readLoop reads events from the stream.
func (c *Client) readLoop(ctx context.Context, resp *http.Response) {
	defer func() {
		resp.Body.Close()
		if c.OnClose != nil {
			c.OnClose()
		}
		close(c.done)
	}()

	reader := bufio.NewReader(resp.Body)
	var data strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if c.OnError != nil && ctx.Err() == nil {
				c.OnError(err)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")

		// A blank line ends an event.
		if line == "" {
			if data.Len() > 0 {
				if c.OnMessage != nil {
					c.OnMessage([]byte(data.String()))
				}
				data.Reset()
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "{"):
			// Newline-delimited JSON
			if c.OnMessage != nil {
				c.OnMessage([]byte(line))
			}
		}
	}
}

// Close closes the stream.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Done returns a channel that's closed when the stream is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
