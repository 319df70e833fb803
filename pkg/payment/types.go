package payment

// Order is the payable order created by the backend. Amount is in the
// currency's smallest unit. None of these values are validated locally.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrderResponse is returned by create-order. KeyID is the gateway's
// public key; when absent the configured key is used.
type CreateOrderResponse struct {
	KeyID string `json:"keyId,omitempty"`
	Order Order  `json:"order"`
}

// VerifyRequest forwards the gateway's signed completion fields verbatim.
type VerifyRequest struct {
	OrderID   string `json:"razorpayOrderId"`
	PaymentID string `json:"razorpayPaymentId"`
	Signature string `json:"razorpaySignature"`
}

type createOrderRequest struct {
	PlanID string `json:"planId"`
}

type verifyResponse struct {
	Message string `json:"message"`
}
