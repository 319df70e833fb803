package auth

import "time"

// Credentials holds the dashboard session used by the CLI.
type Credentials struct {
	// Bearer token issued by the platform's auth service
	SessionToken string `json:"session_token"`

	// User info, peeked from the token claims at login
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`

	// API the token was issued for
	APIURL string `json:"api_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Role names carried in the token.
const (
	RoleUser       = "user"
	RoleSuperAdmin = "superadmin"
)
