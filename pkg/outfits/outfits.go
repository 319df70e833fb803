// Package outfits is the client for user-submitted outfits.
package outfits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

const basePath = "/api/user-outfits"

// Outfit is a user-submitted look.
type Outfit struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Celebrity   string    `json:"celebrity,omitempty"`
	Owner       string    `json:"user,omitempty"`
	Favourites  int       `json:"favouritesCount"`
	Favourited  bool      `json:"isFavourited,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input holds the writable outfit fields.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Celebrity   string   `json:"celebrity,omitempty"`
}

// Validate rejects an outfit without a title.
func (in Input) Validate() error {
	if in.Title == "" {
		return errors.New("outfit title is required")
	}
	return nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is one page of outfits.
type Page struct {
	Outfits    []Outfit   `json:"outfits"`
	Pagination Pagination `json:"pagination"`
}

type outfitEnvelope struct {
	Outfit Outfit `json:"outfit"`
}

type favouriteEnvelope struct {
	Favourited bool `json:"isFavourited"`
}

// Client is the HTTP client for the outfit endpoints.
type Client struct {
	*httpclient.BaseClient
}

// NewClient wraps an authenticated base client.
func NewClient(base *httpclient.BaseClient) *Client {
	return &Client{BaseClient: base}
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) list(ctx context.Context, path string, page, limit int) (*Page, error) {
	var resp Page
	if err := c.DoJSONWithContext(ctx, http.MethodGet, path+pageQuery(page, limit), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the public outfit feed.
func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	p, err := c.list(ctx, basePath, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list outfits: %w", err)
	}
	return p, nil
}

// Mine returns outfits created by the signed-in user.
func (c *Client) Mine(ctx context.Context, page, limit int) (*Page, error) {
	p, err := c.list(ctx, basePath+"/mine", page, limit)
	if err != nil {
		return nil, fmt.Errorf("list my outfits: %w", err)
	}
	return p, nil
}

// Favourites returns outfits the signed-in user has favourited.
func (c *Client) Favourites(ctx context.Context, page, limit int) (*Page, error) {
	p, err := c.list(ctx, basePath+"/favourites", page, limit)
	if err != nil {
		return nil, fmt.Errorf("list favourite outfits: %w", err)
	}
	return p, nil
}

// Get fetches one outfit.
func (c *Client) Get(ctx context.Context, id string) (*Outfit, error) {
	var resp outfitEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get outfit %s: %w", id, err)
	}
	return &resp.Outfit, nil
}

// Create submits a new outfit.
func (c *Client) Create(ctx context.Context, in Input) (*Outfit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var resp outfitEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath, in, &resp); err != nil {
		return nil, fmt.Errorf("create outfit: %w", err)
	}
	return &resp.Outfit, nil
}

// Update replaces the writable fields of an outfit.
func (c *Client) Update(ctx context.Context, id string, in Input) (*Outfit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var resp outfitEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPut, basePath+"/"+url.PathEscape(id), in, &resp); err != nil {
		return nil, fmt.Errorf("update outfit %s: %w", id, err)
	}
	return &resp.Outfit, nil
}

// Delete removes an outfit owned by the signed-in user.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.DoJSONWithContext(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete outfit %s: %w", id, err)
	}
	return nil
}

// ToggleFavourite flips the favourite flag and returns the new state.
func (c *Client) ToggleFavourite(ctx context.Context, id string) (bool, error) {
	var resp favouriteEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/"+url.PathEscape(id)+"/favourite", nil, &resp); err != nil {
		return false, fmt.Errorf("favourite outfit %s: %w", id, err)
	}
	return resp.Favourited, nil
}
