package account

import (
	"fmt"
	"sort"
	"time"
)

// Profile is the signed-in user's public profile.
type Profile struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged on the server.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Preferences maps preference names to their values. Most values are
// booleans; the rest are passed through unchanged.
type Preferences map[string]interface{}

// Bool returns the boolean value of key and whether it is a boolean.
func (p Preferences) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// Keys returns the preference names in sorted order.
func (p Preferences) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Preferences) clone() Preferences {
	out := make(Preferences, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Activity is one entry of the user's activity feed.
type Activity struct {
	ID          string    `json:"_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PasswordChange is the input of the change-password form.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// MinPasswordLength is the shortest new password accepted.
const MinPasswordLength = 8

// Validate checks the form locally before anything is sent.
func (p PasswordChange) Validate() error {
	if p.Current == "" {
		return ErrCurrentPasswordRequired
	}
	if p.New != p.Confirm {
		return ErrPasswordMismatch
	}
	if len([]rune(p.New)) < MinPasswordLength {
		return fmt.Errorf("%w (minimum %d characters)", ErrPasswordTooShort, MinPasswordLength)
	}
	return nil
}

type profileEnvelope struct {
	User    *Profile `json:"user"`
	Profile *Profile `json:"profile"`
}

func (e profileEnvelope) get() *Profile {
	if e.User != nil {
		return e.User
	}
	return e.Profile
}

type preferencesEnvelope struct {
	Preferences Preferences `json:"preferences"`
}

type activityEnvelope struct {
	Activities []Activity `json:"activities"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}
