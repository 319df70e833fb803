package config

import "time"

// Config is the root of celebstyle.hcl.
type Config struct {
	// APIURL is the platform API base URL
	APIURL string `hcl:"api_url,optional"`

	// LogLevel is one of trace, debug, info, warn, error
	LogLevel string `hcl:"log_level,optional"`

	// Timeout bounds every API request, as a Go duration ("30s")
	Timeout string `hcl:"timeout,optional"`

	Checkout *CheckoutConfig `hcl:"checkout,block"`
	Events   *EventsConfig   `hcl:"events,block"`

	// Variables contains variable definitions
	Variables []*VariableConfig `hcl:"variable,block"`

	// timeout parsed by Validate
	timeout time.Duration
}

// VariableConfig is a variable block resolved from the environment and
// referenced as var.<name>.
type VariableConfig struct {
	Name string `hcl:"name,label"`

	// Sensitive marks the variable as sensitive (suppresses logging)
	Sensitive bool `hcl:"sensitive,optional"`

	// Default is used when none of Env is set
	Default string `hcl:"default,optional"`

	// Env lists environment variables checked in order
	Env []string `hcl:"env,optional"`

	Description string `hcl:"description,optional"`
}

// CheckoutConfig configures the payment sheet.
type CheckoutConfig struct {
	// KeyID is the gateway public key, used when the order API omits one
	KeyID        string         `hcl:"key_id,optional"`
	MerchantName string         `hcl:"merchant_name,optional"`
	ThemeColor   string         `hcl:"theme_color,optional"`
	ScriptURL    string         `hcl:"script_url,optional"`
	Prefill      *PrefillConfig `hcl:"prefill,block"`
}

// PrefillConfig seeds the payment sheet's customer fields.
type PrefillConfig struct {
	Name    string `hcl:"name,optional"`
	Email   string `hcl:"email,optional"`
	Contact string `hcl:"contact,optional"`
}

// EventsConfig enables publishing checkout outcomes to NATS.
type EventsConfig struct {
	Servers  string `hcl:"servers"`
	NKeySeed string `hcl:"nkey_seed,optional"`
	Prefix   string `hcl:"prefix,optional"`
}

// DefaultTimeout bounds API requests when the file sets none.
const DefaultTimeout = 30 * time.Second

// RequestTimeout returns the parsed request timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}
