// Package checkout wraps the third-party payment widget behind a small
// interface. A Provider lazily acquires a Widget once; a Widget opens the
// gateway's payment sheet and reports exactly one of three outcomes:
// completed, dismissed, or failed.
package checkout

import (
	"context"
	"errors"
)

// ErrScriptUnavailable is returned when the gateway's checkout script
// could not be loaded.
var ErrScriptUnavailable = errors.New("checkout script could not be loaded")

// Options configure a single payment sheet. Amount is in the currency's
// smallest unit, exactly as returned by the order API.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// Prefill seeds the customer fields of the payment sheet.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Theme styles the payment sheet.
type Theme struct {
	Color string `json:"color,omitempty"`
}

// Completion carries the gateway's signed fields after a successful payment.
// They are opaque to this client and forwarded verbatim for verification.
type Completion struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Failure is the gateway's description of a failed payment attempt.
type Failure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Step        string `json:"step"`
	Reason      string `json:"reason"`
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
}

// Outcome names which completion channel fired.
type Outcome int

const (
	OutcomeCompleted Outcome = iota + 1
	OutcomeDismissed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a Widget reports once the payment sheet closes.
// Completion is set for OutcomeCompleted and Failure for OutcomeFailed.
type Result struct {
	Outcome    Outcome
	Completion *Completion
	Failure    *Failure
}

// Completed builds a success Result.
func Completed(c Completion) Result {
	return Result{Outcome: OutcomeCompleted, Completion: &c}
}

// Dismissed builds a cancellation Result.
func Dismissed() Result {
	return Result{Outcome: OutcomeDismissed}
}

// Failed builds a failure Result.
func Failed(f Failure) Result {
	return Result{Outcome: OutcomeFailed, Failure: &f}
}

// Widget opens a payment sheet and blocks until it closes or ctx ends.
type Widget interface {
	Open(ctx context.Context, opts Options) (Result, error)
}

// Provider hands out the Widget, acquiring it on first use.
type Provider interface {
	Ensure(ctx context.Context) (Widget, error)
}
