// Package api provides the HTTP services of the CDS API.
//
// Every service method issues exactly one request and decodes the response.
// Nothing is cached or retried here; failures are classified by the
// Interceptor and returned unchanged to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/morrisclay/cds-console/internal/config"
)

// Client is the HTTP client for the CDS API.
type Client struct {
	host       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInterceptor routes every request through i. The interceptor wraps the
// transport of the HTTP client configured so far.
func WithInterceptor(i *Interceptor) Option {
	return func(c *Client) {
		if i.Base == nil {
			i.Base = c.httpClient.Transport
		}
		hc := *c.httpClient
		hc.Transport = i
		c.httpClient = &hc
	}
}

// NewClient creates a new API client.
func NewClient(host string, opts ...Option) *Client {
	if host == "" {
		host = config.GetHost()
	}
	c := &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the API host.
func (c *Client) Host() string {
	return c.host
}

// HTTPClient returns the HTTP client requests are sent with, interceptor
// included.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// request performs an HTTP request and returns the response body.
func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	u := c.host + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		msg, from, ok := parseErrorBody(respBody)
		if !ok {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, From: from}
	}

	return respBody, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	data, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(data) > 0 {
		return json.Unmarshal(data, result)
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// decodeList decodes a bare JSON array or an object wrapping it under key.
func decodeList[T any](data []byte, key string) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	raw, ok := wrapper[key]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeOne decodes a bare object or an object wrapping it under key.
// valid tells whether the bare decoding produced a real value.
func decodeOne[T any](data []byte, key string, valid func(*T) bool) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err == nil && valid(&v) {
		return &v, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	raw, ok := wrapper[key]
	if !ok {
		return &v, nil
	}
	var w T
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) getList(ctx context.Context, path string) ([]byte, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

// esc escapes one path segment.
func esc(s string) string {
	return url.PathEscape(s)
}

// --- Push channel ---

// StreamURL returns the URL of the server-sent events endpoint.
func (c *Client) StreamURL() string {
	return c.host + "/events"
}

// WebSocketURL returns the URL of the WebSocket events endpoint.
func (c *Client) WebSocketURL() string {
	host := c.host
	protocol := "wss"
	if strings.HasPrefix(host, "https://") {
		host = strings.TrimPrefix(host, "https://")
	} else if strings.HasPrefix(host, "http://") {
		host = strings.TrimPrefix(host, "http://")
		protocol = "ws"
	}
	return protocol + "://" + host + "/ws"
}
