package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks a configuration and returns an error if invalid.
func Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration is nil")
	}

	if config.APIURL != "" {
		if err := validateURL(config.APIURL, "http", "https"); err != nil {
			return fmt.Errorf("api_url: %w", err)
		}
	}

	if config.LogLevel != "" && hclog.LevelFromString(config.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("log_level %q is not one of trace, debug, info, warn, error", config.LogLevel)
	}

	if config.Timeout != "" {
		d, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		config.timeout = d
	}

	if config.Checkout != nil {
		if err := validateCheckout(config.Checkout); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	if config.Events != nil {
		if err := validateEvents(config.Events); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}

	return nil
}

func validateCheckout(c *CheckoutConfig) error {
	if c.ThemeColor != "" && !hexColor.MatchString(c.ThemeColor) {
		return fmt.Errorf("theme_color %q must be a hex color such as #111827", c.ThemeColor)
	}
	if c.ScriptURL != "" {
		if err := validateURL(c.ScriptURL, "https", "http"); err != nil {
			return fmt.Errorf("script_url: %w", err)
		}
	}
	return nil
}

func validateEvents(e *EventsConfig) error {
	if strings.TrimSpace(e.Servers) == "" {
		return fmt.Errorf("servers is required")
	}
	for _, s := range strings.Split(e.Servers, ",") {
		if err := validateURL(strings.TrimSpace(s), "nats", "tls", "ws", "wss"); err != nil {
			return fmt.Errorf("servers: %w", err)
		}
	}
	if e.NKeySeed != "" && !strings.HasPrefix(e.NKeySeed, "SU") {
		return fmt.Errorf("nkey_seed must be a user seed (starting with SU)")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%q must use one of %s", raw, strings.Join(schemes, ", "))
}
