// Package admin is the super-administrator client: celebrity, movie and
// review catalogues, user management and administrator creation.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

const basePath = "/api/superadmin"

// Client is the HTTP client for the superadmin endpoints.
type Client struct {
	*httpclient.BaseClient
}

// NewClient wraps an authenticated base client.
func NewClient(base *httpclient.BaseClient) *Client {
	return &Client{BaseClient: base}
}

// Resource is CRUD access to one catalogue under /api/superadmin.
type Resource[T any] struct {
	client *Client
	// plural is both the path segment and the list key, singular the
	// key of a single record in responses.
	plural   string
	singular string
}

// Celebrities returns the celebrity catalogue.
func (c *Client) Celebrities() Resource[Celebrity] {
	return Resource[Celebrity]{client: c, plural: "celebrities", singular: "celebrity"}
}

// Movies returns the movie catalogue.
func (c *Client) Movies() Resource[Movie] {
	return Resource[Movie]{client: c, plural: "movies", singular: "movie"}
}

// Reviews returns the review catalogue.
func (c *Client) Reviews() Resource[Review] {
	return Resource[Review]{client: c, plural: "reviews", singular: "review"}
}

// Name returns the path segment of the resource.
func (r Resource[T]) Name() string { return r.plural }

func (r Resource[T]) path(id string) string {
	if id == "" {
		return basePath + "/" + r.plural
	}
	return basePath + "/" + r.plural + "/" + url.PathEscape(id)
}

// List returns a page of records.
func (r Resource[T]) List(ctx context.Context, opts ListOptions) (*List[T], error) {
	var raw map[string]json.RawMessage
	if err := r.client.DoJSONWithContext(ctx, http.MethodGet, r.path("")+listQuery(opts), nil, &raw); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.plural, err)
	}
	out := &List[T]{}
	if err := pick(raw, &out.Items, r.plural, "data", "items"); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.plural, err)
	}
	if p, ok := raw["pagination"]; ok {
		json.Unmarshal(p, &out.Pagination)
	}
	return out, nil
}

// Get fetches a record by ID.
func (r Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	return r.one(ctx, http.MethodGet, id, nil, "get")
}

// Create adds a record. body is any JSON-encodable value.
func (r Resource[T]) Create(ctx context.Context, body interface{}) (*T, error) {
	return r.one(ctx, http.MethodPost, "", body, "create")
}

// Update replaces the fields given in body.
func (r Resource[T]) Update(ctx context.Context, id string, body interface{}) (*T, error) {
	return r.one(ctx, http.MethodPut, id, body, "update")
}

// Delete removes a record.
func (r Resource[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	if err := r.client.DoJSONWithContext(ctx, http.MethodDelete, r.path(id), nil, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.singular, id, err)
	}
	return nil
}

func (r Resource[T]) one(ctx context.Context, method, id string, body interface{}, verb string) (*T, error) {
	if method != http.MethodPost && id == "" {
		return nil, errors.New("id is required")
	}
	var raw map[string]json.RawMessage
	if err := r.client.DoJSONWithContext(ctx, method, r.path(id), body, &raw); err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, r.singular, err)
	}
	var v T
	if err := pick(raw, &v, r.singular, "data"); err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, r.singular, err)
	}
	return &v, nil
}

// pick decodes the first present key of raw into dst.
func pick(raw map[string]json.RawMessage, dst interface{}, keys ...string) error {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return json.Unmarshal(v, dst)
		}
	}
	return fmt.Errorf("response has none of %v", keys)
}

func listQuery(opts ListOptions) string {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
