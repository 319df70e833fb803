// Package apikey reads API key usage and drives the key lifecycle
// (generate, reveal, revoke) against the platform's user API.
package apikey

import (
	"context"
	"fmt"
	"net/http"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

const basePath = "/api/user/apikey"

// Client is the HTTP client for the API key endpoints.
type Client struct {
	*httpclient.BaseClient
}

// NewClient wraps an authenticated base client.
func NewClient(base *httpclient.BaseClient) *Client {
	return &Client{BaseClient: base}
}

// Stats retrieves whether the user has a key and, if so, its usage.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.DoJSONWithContext(ctx, http.MethodGet, basePath+"/stats", nil, &resp); err != nil {
		return nil, fmt.Errorf("get api key stats: %w", err)
	}
	if !resp.HasKey {
		resp.Stats = nil
	}
	return &resp, nil
}

// Generate issues a new key and returns its plaintext. The plaintext is only
// returned once; later views require Reveal.
func (c *Client) Generate(ctx context.Context) (string, error) {
	var resp keyEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/generate", nil, &resp); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return resp.APIKey.Key, nil
}

// Reveal re-authenticates with password and returns the current key's plaintext.
func (c *Client) Reveal(ctx context.Context, password string) (string, error) {
	var resp keyEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/reveal", passwordRequest{Password: password}, &resp); err != nil {
		return "", fmt.Errorf("reveal api key: %w", err)
	}
	return resp.APIKey.Key, nil
}

// Revoke permanently invalidates the current key.
func (c *Client) Revoke(ctx context.Context, password string) error {
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/revoke", passwordRequest{Password: password}, nil); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	return nil
}
