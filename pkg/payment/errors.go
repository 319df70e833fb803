package payment

import (
	"errors"
	"fmt"

	"github.com/celebstyle/celebstyle-cli/pkg/checkout"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

var (
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrCurrentPlan         = errors.New("already on this plan")
	ErrDowngrade           = errors.New("downgrade not available")
	ErrUpgradeInProgress   = errors.New("an upgrade is already in progress")
	ErrCheckoutUnavailable = errors.New("payment checkout could not be loaded, please try again")
	ErrCheckoutCancelled   = errors.New("payment cancelled")
	ErrCheckoutTimeout     = errors.New("timed out waiting for checkout")
	ErrMissingGatewayKey   = errors.New("no payment gateway key configured")
	ErrVerifyFailed        = errors.New("payment verification failed")
)

// PaymentFailedError is reported when the gateway rejected the payment.
type PaymentFailedError struct {
	Failure checkout.Failure
}

func (e *PaymentFailedError) Error() string {
	if e.Failure.Description == "" {
		return "payment failed"
	}
	return "payment failed: " + e.Failure.Description
}

// VerifyError is returned when the gateway reported success but the backend
// did not confirm it. The user may have been charged without the plan
// being granted.
type VerifyError struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %s. If you were charged, contact support with order %s and payment %s",
		ErrVerifyFailed, httpclient.MessageOf(e.Err, "no confirmation received"), e.OrderID, e.PaymentID)
}

func (e *VerifyError) Unwrap() []error {
	return []error{ErrVerifyFailed, e.Err}
}
