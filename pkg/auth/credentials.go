// Package auth stores the dashboard session token and turns it into an
// oauth2.TokenSource for the HTTP clients.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in: run 'cstyle login' or set CELEBSTYLE_TOKEN")
	ErrTokenExpired = errors.New("session expired: run 'cstyle login' again")
)

// IsValid checks if credentials carry a token that has not expired.
func IsValid(creds *Credentials) bool {
	if creds == nil || creds.SessionToken == "" {
		return false
	}
	// Tokens without a readable expiry are left to the backend to reject
	if !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		return false
	}
	return true
}

// IsSuperAdmin reports whether the token was issued to a super administrator.
func IsSuperAdmin(creds *Credentials) bool {
	return creds != nil && creds.Role == RoleSuperAdmin
}

// TimeUntilExpiration returns the duration until credentials expire
func TimeUntilExpiration(creds *Credentials) time.Duration {
	if creds == nil || creds.ExpiresAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	d := time.Until(creds.ExpiresAt)
	if d < 0 {
		return 0
	}
	return d
}

// FromToken builds credentials from a raw bearer token, filling user fields
// from its claims when the token is a JWT.
func FromToken(token string) *Credentials {
	creds := &Credentials{
		SessionToken: strings.TrimSpace(token),
		CreatedAt:    time.Now(),
	}

	claims, err := DecodeJWTClaims(creds.SessionToken)
	if err != nil {
		return creds
	}
	creds.UserID = claimString(claims, "id", "_id", "userId", "sub")
	creds.Email = claimString(claims, "email")
	creds.Name = claimString(claims, "name", "username")
	creds.Role = claimString(claims, "role")
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		creds.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return creds
}

func claimString(claims map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// DecodeJWTClaims decodes claims from a JWT without signature verification.
func DecodeJWTClaims(token string) (map[string]interface{}, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format")
	}

	payload := parts[1]
	switch len(payload) % 4 {
	case 2:
		payload += "=="
	case 3:
		payload += "="
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWT payload: %w", err)
		}
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse JWT claims: %w", err)
	}

	return claims, nil
}

// TokenSource returns a static bearer token source for creds.
func TokenSource(creds *Credentials) (oauth2.TokenSource, error) {
	if creds == nil || creds.SessionToken == "" {
		return nil, ErrNotLoggedIn
	}
	if !IsValid(creds) {
		return nil, ErrTokenExpired
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.SessionToken,
		TokenType:   "Bearer",
		Expiry:      creds.ExpiresAt,
	}), nil
}
