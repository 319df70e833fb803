package events

import "time"

// Kind identifies a checkout outcome.
type Kind string

const (
	KindUpgraded     Kind = "upgraded"
	KindCancelled    Kind = "cancelled"
	KindFailed       Kind = "failed"
	KindVerifyFailed Kind = "verify_failed"
)

// Base subject for checkout events (without prefix)
const baseSubjectCheckout = "checkout"

// Subject returns the unprefixed subject for k, e.g. "checkout.upgraded".
func (k Kind) Subject() string {
	return baseSubjectCheckout + "." + string(k)
}

// CheckoutEvent is the payload published for every finished upgrade attempt.
type CheckoutEvent struct {
	Kind        Kind      `json:"kind"`
	UserID      string    `json:"userId,omitempty"`
	CurrentPlan string    `json:"currentPlan"`
	TargetPlan  string    `json:"targetPlan"`
	OrderID     string    `json:"orderId,omitempty"`
	PaymentID   string    `json:"paymentId,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
