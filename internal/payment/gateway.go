package payment

import "context"

// Checkout carries everything the client needs to open the hosted payment
// interface for one attempt.
type Checkout struct {
	GatewayOrderID string  `json:"gateway_order_id"`
	KeyID          string  `json:"key_id"`
	Amount         int64   `json:"amount"` // smallest currency unit
	Currency       string  `json:"currency"`
	DisplayAmount  float64 `json:"display_amount"`
}

// Gateway abstracts the hosted payment provider. The provider renders its
// own UI and reports the outcome back through the confirm/cancel endpoints.
type Gateway interface {
	// CreateOrder registers a payment attempt for the given amount (major
	// currency units) and returns the hosted-checkout parameters.
	CreateOrder(ctx context.Context, amount float64, receipt string) (*Checkout, error)
	// VerifySignature authenticates a success callback.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}
