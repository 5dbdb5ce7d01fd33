package crm

import (
	"context"
	"net/http"
)

// Organization returns details about the CRM organization.
func (c *Client) Organization(ctx context.Context) (*Organization, error) {
	var out struct {
		Org []Organization `json:"org"`
	}
	if err := c.do(ctx, http.MethodGet, "org", nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Org) == 0 {
		return nil, nil
	}
	return &out.Org[0], nil
}
