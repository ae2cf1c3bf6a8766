package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mauli-interior/go-storefront/internal/orders"
)

// Sender delivers transactional mail. The worker depends on this interface
// so tests can capture sends.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, order *orders.Order) error
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromAddress, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// SendOrderConfirmation mails the customer a receipt for a placed order.
func (s *SendGridSender) SendOrderConfirmation(ctx context.Context, order *orders.Order) error {
	to := mail.NewEmail(order.CustomerName, order.CustomerEmail)
	subject := fmt.Sprintf("Order confirmed - %s", order.OrderID)
	plain := orderPlainText(order)
	html := orderHTML(order)

	resp, err := s.client.SendWithContext(ctx, mail.NewSingleEmail(s.from, subject, to, plain, html))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendPasswordReset mails a password-reset token to the account holder.
func (s *SendGridSender) SendPasswordReset(ctx context.Context, toEmail, toName, token string) error {
	to := mail.NewEmail(toName, toEmail)
	subject := "Reset your password"
	plain := fmt.Sprintf(
		"Hi %s,\n\nUse this code to reset your password: %s\n\nThe code expires in one hour. If you did not ask for a reset, ignore this mail.\n",
		toName, token)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Use this code to reset your password:</p><p><strong>%s</strong></p><p>The code expires in one hour. If you did not ask for a reset, ignore this mail.</p>",
		toName, token)

	resp, err := s.client.SendWithContext(ctx, mail.NewSingleEmail(s.from, subject, to, plain, html))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func orderPlainText(order *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order %s.\n\n", order.CustomerName, order.OrderID)
	for _, li := range order.Items {
		fmt.Fprintf(&b, "  %s x%d - Rs. %.2f\n", li.Name, li.Quantity, li.Price*float64(li.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: Rs. %.2f\n", order.TotalAmount)
	fmt.Fprintf(&b, "Payment: %s (%s)\n", order.PaymentMethod, order.PaymentStatus)
	fmt.Fprintf(&b, "Shipping to: %s\n", order.ShippingAddress)
	return b.String()
}

func orderHTML(order *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you for your order, %s!</h2>", order.CustomerName)
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been received.</p>", order.OrderID)
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0"><tr><th>Item</th><th>Qty</th><th>Price</th></tr>`)
	for _, li := range order.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>Rs. %.2f</td></tr>", li.Name, li.Quantity, li.Price*float64(li.Quantity))
	}
	fmt.Fprintf(&b, `<tr><td colspan="2"><strong>Total</strong></td><td><strong>Rs. %.2f</strong></td></tr></table>`, order.TotalAmount)
	fmt.Fprintf(&b, "<p>Payment: %s (%s)</p>", order.PaymentMethod, order.PaymentStatus)
	fmt.Fprintf(&b, "<p>Shipping to: %s</p>", order.ShippingAddress)
	return b.String()
}
