// Package checkouttest provides a scriptable checkout Provider for tests.
package checkouttest

import (
	"context"
	"sync"

	"github.com/celebstyle/celebstyle-cli/pkg/checkout"
)

// Provider is a checkout.Provider whose acquisition can be made to fail.
type Provider struct {
	Widget    *Widget
	EnsureErr error

	mu          sync.Mutex
	ensureCalls int
}

// NewProvider returns a Provider whose widget reports result.
func NewProvider(result checkout.Result) *Provider {
	return &Provider{Widget: &Widget{Result: result}}
}

// Ensure implements checkout.Provider.
func (p *Provider) Ensure(ctx context.Context) (checkout.Widget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureCalls++
	if p.EnsureErr != nil {
		return nil, p.EnsureErr
	}
	return p.Widget, nil
}

// EnsureCalls reports how many times Ensure was called.
func (p *Provider) EnsureCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureCalls
}

// Widget records every Open and replies with a fixed Result.
type Widget struct {
	Result checkout.Result
	Err    error

	// OnOpen, if set, runs before Open returns.
	OnOpen func(opts checkout.Options)

	// ReplyAtDeadline holds the reply until ctx ends, as when the gateway
	// reports a payment just as the wait runs out.
	ReplyAtDeadline bool

	mu    sync.Mutex
	opens []checkout.Options
}

// Open implements checkout.Widget.
func (w *Widget) Open(ctx context.Context, opts checkout.Options) (checkout.Result, error) {
	w.mu.Lock()
	w.opens = append(w.opens, opts)
	w.mu.Unlock()

	if w.OnOpen != nil {
		w.OnOpen(opts)
	}
	if w.ReplyAtDeadline {
		<-ctx.Done()
	}
	if w.Err != nil {
		return checkout.Result{}, w.Err
	}
	return w.Result, nil
}

// Opens returns the options of every Open call.
func (w *Widget) Opens() []checkout.Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]checkout.Options(nil), w.opens...)
}
