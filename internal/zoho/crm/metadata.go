package crm

import (
	"context"
	"net/http"
	"net/url"
)

// Modules lists the modules available in the CRM organization.
func (c *Client) Modules(ctx context.Context) ([]Module, error) {
	var out struct {
		Modules []Module `json:"modules"`
	}
	if err := c.do(ctx, http.MethodGet, "settings/modules", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

// Fields returns the field metadata for a module.
func (c *Client) Fields(ctx context.Context, module string) ([]Field, error) {
	q := url.Values{"module": {module}}

	var out struct {
		Fields []Field `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "settings/fields", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Fields, nil
}
