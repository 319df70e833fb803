package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/celebstyle/celebstyle-cli/internal/hclfunc"
)

const (
	// FileName is looked up in the working directory.
	FileName = "celebstyle.hcl"

	DefaultLogLevel     = "info"
	DefaultMerchantName = "CelebStyle"
	DefaultThemeColor   = "#111827"
)

// ParseFile parses an HCL configuration file.
func ParseFile(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", absPath)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(absPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

// ParseBytes parses HCL configuration from a byte slice.
func ParseBytes(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file.Body)
}

// decode runs two passes: the first only collects variable blocks, whose
// values are then exposed as var.<name> to the second.
func decode(body hcl.Body) (*Config, error) {
	var partial Config
	// Unresolved var.X references fail here; only the variable blocks matter.
	_ = gohcl.DecodeBody(body, hclfunc.NewEvalContext(nil), &partial)

	vars := resolveVariables(partial.Variables)

	var cfg Config
	if diags := gohcl.DecodeBody(body, hclfunc.NewEvalContext(vars), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode configuration: %s", diags.Error())
	}
	return &cfg, nil
}

// resolveVariables takes each variable from the first set environment
// variable in its Env list, or its default.
func resolveVariables(variables []*VariableConfig) map[string]string {
	resolved := make(map[string]string)
	for _, v := range variables {
		if v == nil {
			continue
		}
		var value string
		for _, envName := range v.Env {
			if envVal := os.Getenv(envName); envVal != "" {
				value = envVal
				break
			}
		}
		if value == "" {
			value = v.Default
		}
		resolved[v.Name] = value
	}
	return resolved
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Checkout == nil {
		cfg.Checkout = &CheckoutConfig{}
	}
	if cfg.Checkout.MerchantName == "" {
		cfg.Checkout.MerchantName = DefaultMerchantName
	}
	if cfg.Checkout.ThemeColor == "" {
		cfg.Checkout.ThemeColor = DefaultThemeColor
	}
	if cfg.Checkout.Prefill == nil {
		cfg.Checkout.Prefill = &PrefillConfig{}
	}
}

// Load reads path, or when path is empty the first of ./celebstyle.hcl and
// ~/.celebstyle/config.hcl that exists, then applies defaults and
// validates. With no path and no file the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = discover()
	}
	if path == "" {
		return Default(), nil
	}

	cfg, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

func discover() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".celebstyle", "config.hcl"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
