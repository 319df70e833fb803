package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// PreferenceService is the remote half of PreferenceToggler.
type PreferenceService interface {
	Preferences(ctx context.Context) (Preferences, error)
	UpdatePreferences(ctx context.Context, changes Preferences) (Preferences, error)
}

// PreferenceToggler keeps a local copy of the preferences and flips boolean
// entries optimistically: the local value changes before the server
// confirms it, and the prior snapshot is restored if the write fails.
// Writes are not ordered against each other; whichever response arrives
// last decides the local state.
type PreferenceToggler struct {
	svc    PreferenceService
	logger hclog.Logger

	mu    sync.Mutex
	local Preferences
}

// NewPreferenceToggler creates a toggler with an empty local copy.
func NewPreferenceToggler(svc PreferenceService, logger hclog.Logger) *PreferenceToggler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PreferenceToggler{svc: svc, logger: logger, local: Preferences{}}
}

// Load replaces the local copy with the server's preferences.
func (t *PreferenceToggler) Load(ctx context.Context) error {
	prefs, err := t.svc.Preferences(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.local = prefs.clone()
	t.mu.Unlock()
	return nil
}

// Current returns a copy of the local preferences.
func (t *PreferenceToggler) Current() Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.local.clone()
}

// Toggle flips the boolean preference key and writes it to the server.
// It returns the new value, or the error after restoring the snapshot.
func (t *PreferenceToggler) Toggle(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	cur, ok := t.local.Bool(key)
	if !ok {
		t.mu.Unlock()
		return false, fmt.Errorf("preference %q is not an on/off setting", key)
	}
	snapshot := t.local.clone()
	next := !cur
	t.local[key] = next
	t.mu.Unlock()

	updated, err := t.svc.UpdatePreferences(ctx, Preferences{key: next})
	if err != nil {
		t.mu.Lock()
		t.local = snapshot
		t.mu.Unlock()
		t.logger.Debug("preference update failed, reverted", "key", key, "error", err)
		return cur, err
	}

	if updated != nil {
		t.mu.Lock()
		t.local = updated.clone()
		t.mu.Unlock()
	}
	return next, nil
}
