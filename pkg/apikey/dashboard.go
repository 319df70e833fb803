package apikey

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	// ErrNoKey is returned by operations that need an existing key.
	ErrNoKey = errors.New("no API key: generate one first")

	// ErrPasswordRequired is returned when reveal or revoke gets an empty password.
	ErrPasswordRequired = errors.New("password is required")

	// ErrBusy is returned when another key operation is still in flight.
	ErrBusy = errors.New("another key operation is in progress")
)

// KeyService is the subset of the API the Dashboard drives.
type KeyService interface {
	Stats(ctx context.Context) (*StatsResponse, error)
	Generate(ctx context.Context) (string, error)
	Reveal(ctx context.Context, password string) (string, error)
	Revoke(ctx context.Context, password string) error
}

// State is the server-side lifecycle of the user's key as last observed.
type State int

const (
	// StateLoading means no successful read has happened yet.
	StateLoading State = iota
	StateNone
	StateActive
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateActive:
		return "active"
	default:
		return "loading"
	}
}

// Dashboard holds the per-session view of the key: whether it exists, its
// last fetched stats and, transiently, its plaintext. Every successful
// mutation is followed by a re-read of the stats; there is no cache.
type Dashboard struct {
	keys   KeyService
	logger hclog.Logger

	mu       sync.Mutex
	loaded   bool
	hasKey   bool
	stats    *Stats
	revealed string
	busy     bool
}

// NewDashboard creates a Dashboard in the loading state.
func NewDashboard(keys KeyService, logger hclog.Logger) *Dashboard {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Dashboard{keys: keys, logger: logger}
}

// Refresh re-reads the key stats. On failure the previous state is kept and
// the error is returned for the caller to display or ignore.
func (d *Dashboard) Refresh(ctx context.Context) error {
	resp, err := d.keys.Stats(ctx)
	if err != nil {
		d.logger.Debug("stats refresh failed", "error", err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = true
	d.hasKey = resp.HasKey
	d.stats = resp.Stats
	if !resp.HasKey {
		d.revealed = ""
	}
	return nil
}

// Generate issues a key. The plaintext is held and visible immediately,
// without a password.
func (d *Dashboard) Generate(ctx context.Context) (string, error) {
	if err := d.acquire(); err != nil {
		return "", err
	}
	key, err := d.keys.Generate(ctx)
	if err != nil {
		d.release()
		return "", err
	}

	d.mu.Lock()
	d.hasKey = true
	d.revealed = key
	d.busy = false
	d.mu.Unlock()

	d.logger.Info("api key generated")
	d.refreshQuietly(ctx)
	return key, nil
}

// Reveal fetches the plaintext of the existing key after re-authentication.
// On failure nothing changes and the caller may retry.
func (d *Dashboard) Reveal(ctx context.Context, password string) (string, error) {
	if err := d.guardPassword(password); err != nil {
		return "", err
	}
	if err := d.acquire(); err != nil {
		return "", err
	}
	key, err := d.keys.Reveal(ctx, password)
	if err != nil {
		d.release()
		return "", err
	}

	d.mu.Lock()
	d.revealed = key
	d.busy = false
	d.mu.Unlock()
	return key, nil
}

// Hide drops the plaintext from memory.
func (d *Dashboard) Hide() {
	d.mu.Lock()
	d.revealed = ""
	d.mu.Unlock()
}

// Revoke invalidates the key. On success all local key state is cleared
// before the stats are re-read.
func (d *Dashboard) Revoke(ctx context.Context, password string) error {
	if err := d.guardPassword(password); err != nil {
		return err
	}
	if err := d.acquire(); err != nil {
		return err
	}
	if err := d.keys.Revoke(ctx, password); err != nil {
		d.release()
		return err
	}

	d.mu.Lock()
	d.hasKey = false
	d.stats = nil
	d.revealed = ""
	d.busy = false
	d.mu.Unlock()

	d.logger.Info("api key revoked")
	d.refreshQuietly(ctx)
	return nil
}

// State returns the lifecycle state as last observed.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.hasKey:
		return StateActive
	case d.loaded:
		return StateNone
	default:
		return StateLoading
	}
}

// HasKey reports whether a key currently exists.
func (d *Dashboard) HasKey() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasKey
}

// Stats returns a copy of the last fetched stats, or nil.
func (d *Dashboard) Stats() *Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stats == nil {
		return nil
	}
	s := *d.stats
	return &s
}

// RevealedKey returns the plaintext if it is currently held.
func (d *Dashboard) RevealedKey() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revealed, d.revealed != ""
}

// DisplayKey returns the plaintext when visible, otherwise the masked prefix.
func (d *Dashboard) DisplayKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.revealed != "" {
		return d.revealed
	}
	if d.stats != nil && d.stats.KeyPrefix != "" {
		return Mask(d.stats.KeyPrefix)
	}
	return ""
}

// Busy reports whether a mutation is in flight.
func (d *Dashboard) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Mask renders a key prefix followed by a fixed run of bullets.
func Mask(prefix string) string {
	return prefix + strings.Repeat("•", 24)
}

func (d *Dashboard) guardPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasKey {
		return ErrNoKey
	}
	return nil
}

func (d *Dashboard) acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	d.busy = true
	return nil
}

func (d *Dashboard) release() {
	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
}

func (d *Dashboard) refreshQuietly(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("could not refresh api key stats after update", "error", err)
	}
}
