// Package events publishes checkout outcomes to NATS so that back-office
// tooling can follow upgrades, especially payments whose verification failed.
package events

import (
	"sync"
)

// Publisher receives checkout events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(event CheckoutEvent) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(CheckoutEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []CheckoutEvent
	// Err, if set, is returned from every Publish after recording.
	Err error
}

func (r *Recorder) Publish(event CheckoutEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []CheckoutEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CheckoutEvent(nil), r.events...)
}
