// Package account covers the signed-in user's own settings: profile,
// avatar, preferences, password, account deletion and activity.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

var (
	ErrCurrentPasswordRequired = errors.New("current password is required")
	ErrPasswordMismatch        = errors.New("new password and confirmation do not match")
	ErrPasswordTooShort        = errors.New("new password is too short")
	ErrPasswordRequired        = errors.New("password is required")
)

// Client is the HTTP client for the user account endpoints.
type Client struct {
	*httpclient.BaseClient
}

// NewClient wraps an authenticated base client.
func NewClient(base *httpclient.BaseClient) *Client {
	return &Client{BaseClient: base}
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var resp profileEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodGet, "/api/user/profile", nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p := resp.get()
	if p == nil {
		return nil, errors.New("get profile: response carried no profile")
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of u and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	var resp profileEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPatch, "/api/user/profile", u, &resp); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return resp.get(), nil
}

// UploadAvatar uploads an image as the user's avatar.
func (c *Client) UploadAvatar(ctx context.Context, fileName string, r io.Reader) (*Profile, error) {
	var resp struct {
		profileEnvelope
		Avatar string `json:"avatar"`
	}
	file := httpclient.FilePart{Field: "avatar", FileName: fileName, Content: r}
	if err := c.DoMultipart(ctx, http.MethodPost, "/api/user/profile/avatar", nil, file, &resp); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	p := resp.get()
	if p == nil {
		p = &Profile{}
	}
	if resp.Avatar != "" {
		p.Avatar = resp.Avatar
	}
	return p, nil
}

// Preferences fetches the user's preferences.
func (c *Client) Preferences(ctx context.Context) (Preferences, error) {
	var resp preferencesEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodGet, "/api/user/preferences", nil, &resp); err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if resp.Preferences == nil {
		resp.Preferences = Preferences{}
	}
	return resp.Preferences, nil
}

// UpdatePreferences patches the given keys. The returned map is nil when
// the server does not echo the preferences back.
func (c *Client) UpdatePreferences(ctx context.Context, changes Preferences) (Preferences, error) {
	var resp preferencesEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodPatch, "/api/user/preferences", changes, &resp); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return resp.Preferences, nil
}

// UpdatePassword validates p locally and then changes the password.
func (c *Client) UpdatePassword(ctx context.Context, p PasswordChange) error {
	if err := p.Validate(); err != nil {
		return err
	}
	req := updatePasswordRequest{CurrentPassword: p.Current, NewPassword: p.New}
	if err := c.DoJSONWithContext(ctx, http.MethodPost, "/api/auth/user/update-password", req, nil); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteAccount permanently deletes the account after re-authentication.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if err := c.DoJSONWithContext(ctx, http.MethodDelete, "/api/user/account", deleteAccountRequest{Password: password}, nil); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Activity returns the most recent activity entries. A limit of zero uses
// the server default.
func (c *Client) Activity(ctx context.Context, limit int) ([]Activity, error) {
	path := "/api/user/activity"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var resp activityEnvelope
	if err := c.DoJSONWithContext(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return resp.Activities, nil
}
