package crm

import (
	"context"
	"net/http"
	"net/url"
)

// DefaultUserType is the user filter applied when none is given.
const DefaultUserType = "AllUsers"

// Users lists CRM users filtered by type, for example "ActiveUsers" or
// "AdminUsers". An empty typeFilter defaults to DefaultUserType.
func (c *Client) Users(ctx context.Context, typeFilter string) ([]User, error) {
	if typeFilter == "" {
		typeFilter = DefaultUserType
	}
	q := url.Values{"type": {typeFilter}}

	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "users", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}
