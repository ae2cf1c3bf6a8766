package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced by the submission workflow. Handlers map these to
// HTTP responses; nothing here carries transport concerns.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOrderWriteFailed = errors.New("order could not be saved")
	// ErrPaidOrderWriteFailed is the residual-risk case: payment was captured
	// by the gateway but the order record did not persist. Callers must show
	// a contact-support message, never a plain retry prompt.
	ErrPaidOrderWriteFailed = errors.New("payment captured but order could not be saved")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrPaymentCancelled     = errors.New("payment cancelled")
	ErrSignatureMismatch    = errors.New("payment signature verification failed")
	ErrUnknownCheckout      = errors.New("unknown or expired checkout")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
)

// ValidationError names the missing or malformed shipping fields. It is
// returned before any side effect occurs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}
