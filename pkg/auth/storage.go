package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName   = ".celebstyle"
	credentialsFile = "credentials.json"
	tokenEnvVar     = "CELEBSTYLE_TOKEN"
)

// GetConfigDir returns the path to the configuration directory (~/.celebstyle)
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory with 0700 permissions
// if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// SaveCredentials writes credentials to the configuration directory with
// 0600 permissions.
func SaveCredentials(creds *Credentials) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	dir, _ := GetConfigDir()
	path := filepath.Join(dir, credentialsFile)

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadCredentials reads credentials from CELEBSTYLE_TOKEN or, failing that,
// ~/.celebstyle/credentials.json.
func LoadCredentials() (*Credentials, error) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return FromToken(token), nil
	}

	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, credentialsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return &creds, nil
}

// DeleteCredentials removes the credentials file. A missing file is not an error.
func DeleteCredentials() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, credentialsFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
