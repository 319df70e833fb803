package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// AllUsers lists every platform account.
func (c *Client) AllUsers(ctx context.Context, opts ListOptions) (*List[User], error) {
	var raw map[string]json.RawMessage
	if err := c.DoJSONWithContext(ctx, http.MethodGet, basePath+"/all-users"+listQuery(opts), nil, &raw); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := &List[User]{}
	if err := pick(raw, &out.Items, "users", "data"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if p, ok := raw["pagination"]; ok {
		json.Unmarshal(p, &out.Pagination)
	}
	return out, nil
}

// GetUser fetches one account.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.DoJSONWithContext(ctx, http.MethodGet, userPath(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &resp.User, nil
}

// UpdateUser changes the given fields of an account.
func (c *Client) UpdateUser(ctx context.Context, id string, u UserUpdate) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.DoJSONWithContext(ctx, http.MethodPut, userPath(id), u, &resp); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return &resp.User, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.DoJSONWithContext(ctx, http.MethodDelete, userPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// CreateAdmin creates a new administrator account.
func (c *Client) CreateAdmin(ctx context.Context, in NewAdmin) (*User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, errors.New("email and password are required")
	}
	var resp struct {
		User  *User `json:"user"`
		Admin *User `json:"admin"`
	}
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/admins/create", in, &resp); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	if resp.Admin != nil {
		return resp.Admin, nil
	}
	if resp.User != nil {
		return resp.User, nil
	}
	return &User{Name: in.Name, Email: in.Email}, nil
}

func userPath(id string) string {
	return basePath + "/users/" + url.PathEscape(id)
}
