package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/razorpay/razorpay-go"
)

// RazorpayGateway implements Gateway against Razorpay's Orders API.
type RazorpayGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	currency  string
}

// NewRazorpayGateway builds a gateway client. Currency defaults to INR.
func NewRazorpayGateway(keyID, keySecret, currency string) *RazorpayGateway {
	if currency == "" {
		currency = "INR"
	}
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
	}
}

// CreateOrder registers the attempt with Razorpay. Razorpay wants the amount
// in the smallest currency unit (paise).
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, receipt string) (*Checkout, error) {
	paise := int64(math.Round(amount * 100))
	data := map[string]interface{}{
		"amount":   paise,
		"currency": g.currency,
		"receipt":  receipt,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok {
		return nil, fmt.Errorf("razorpay order response missing id")
	}
	return &Checkout{
		GatewayOrderID: id,
		KeyID:          g.keyID,
		Amount:         paise,
		Currency:       g.currency,
		DisplayAmount:  amount,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay attaches to a
// successful payment: hex(hmac(secret, "<order_id>|<payment_id>")).
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return verifySignature(g.keySecret, gatewayOrderID, paymentID, signature)
}

func verifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
