package orders

import (
	"time"

	"github.com/mauli-interior/go-storefront/internal/cart"
)

// Order statuses (admin-driven, independent of payment status).
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Payment methods.
const (
	MethodOnline = "online"
	MethodCOD    = "cod"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is the item stored in the orders table. Items is a snapshot taken at
// submission time; later cart edits never touch a placed order.
type Order struct {
	OrderID          string          `dynamodbav:"order_id" json:"order_id"` // PK
	UserID           string          `dynamodbav:"user_id" json:"user_id"`   // GSI PK
	CustomerName     string          `dynamodbav:"customer_name" json:"customer_name"`
	CustomerEmail    string          `dynamodbav:"customer_email" json:"customer_email"`
	CustomerPhone    string          `dynamodbav:"customer_phone" json:"customer_phone"`
	Items            []cart.LineItem `dynamodbav:"items" json:"items"`
	TotalAmount      float64         `dynamodbav:"total_amount" json:"total_amount"`
	OrderStatus      string          `dynamodbav:"order_status" json:"order_status"`
	PaymentStatus    string          `dynamodbav:"payment_status" json:"payment_status"`
	PaymentMethod    string          `dynamodbav:"payment_method" json:"payment_method"`
	PaymentReference string          `dynamodbav:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	ShippingAddress  string          `dynamodbav:"shipping_address" json:"shipping_address"`
	Notes            string          `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	OrderDate        time.Time       `dynamodbav:"order_date" json:"order_date"` // GSI SK, immutable
	UpdatedAt        time.Time       `dynamodbav:"updated_at" json:"updated_at"`

	// set by the email worker: email_attempted is the dedup claim taken
	// before the send, email_sent flips only on success
	EmailAttempted   bool   `dynamodbav:"email_attempted,omitempty" json:"email_attempted,omitempty"`
	EmailAttemptedAt string `dynamodbav:"email_attempted_at,omitempty" json:"email_attempted_at,omitempty"`
	EmailSent        bool   `dynamodbav:"email_sent,omitempty" json:"email_sent,omitempty"`
	EmailSentAt      string `dynamodbav:"email_sent_at,omitempty" json:"email_sent_at,omitempty"`
	EmailError       string `dynamodbav:"email_error,omitempty" json:"email_error,omitempty"`
	EmailErrorAt     string `dynamodbav:"email_error_at,omitempty" json:"email_error_at,omitempty"`
}
