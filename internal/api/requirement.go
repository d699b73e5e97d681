package api

import "context"

// ListRequirementTypes returns the requirement types known to the API.
func (c *Client) ListRequirementTypes(ctx context.Context) ([]string, error) {
	data, err := c.getList(ctx, "/requirement/types")
	if err != nil {
		return nil, err
	}
	return decodeList[string](data, "types")
}
