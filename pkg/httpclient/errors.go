package httpclient

import (
	"errors"
	"fmt"
)

const (
	// DefaultFailureMessage is shown when the server gave no message.
	DefaultFailureMessage = "Something went wrong, please try again"

	// NetworkFailureMessage is shown when no HTTP response arrived.
	NetworkFailureMessage = "Network error, please try again"
)

// ErrNetwork indicates the request never produced an HTTP response.
var ErrNetwork = errors.New("network error")

// APIError is an application-level failure reported by the platform API,
// either through a non-2xx status or a success:false envelope.
type APIError struct {
	Status  int
	Message string

	// Body holds a truncated raw body when the response was not JSON.
	Body string
}

// Error returns the server message verbatim.
func (e *APIError) Error() string {
	return e.Message
}

// Detail includes the HTTP status, for logs.
func (e *APIError) Detail() string {
	if e.Body != "" {
		return fmt.Sprintf("status %d: %s (%s)", e.Status, e.Message, e.Body)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// MessageOf maps any error to the text a user should see: the server's
// message for application failures, a generic retry hint for transport
// failures, and fallback for everything else.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return NetworkFailureMessage
	}
	if fallback == "" {
		return DefaultFailureMessage
	}
	return fallback
}
