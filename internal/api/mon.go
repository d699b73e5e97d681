package api

import "context"

// ServerVersion is the build information reported by the API.
type ServerVersion struct {
	Version      string `json:"version"`
	GitHash      string `json:"git_hash,omitempty"`
	BuildTime    string `json:"build_time,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	OS           string `json:"os,omitempty"`
}

// Version returns the version of the API server. It needs no credentials.
func (c *Client) Version(ctx context.Context) (*ServerVersion, error) {
	var v ServerVersion
	if err := c.Get(ctx, "/mon/version", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
