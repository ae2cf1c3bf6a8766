package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	secret := "test-secret"
	sig := sign(secret, "order_abc", "pay_xyz")

	if !verifySignature(secret, "order_abc", "pay_xyz", sig) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifySignature_Tampered(t *testing.T) {
	secret := "test-secret"
	sig := sign(secret, "order_abc", "pay_xyz")

	if verifySignature(secret, "order_abc", "pay_other", sig) {
		t.Fatal("signature verified for a different payment id")
	}
	if verifySignature("wrong-secret", "order_abc", "pay_xyz", sig) {
		t.Fatal("signature verified with the wrong secret")
	}
	if verifySignature(secret, "order_abc", "pay_xyz", sig+"00") {
		t.Fatal("signature verified with trailing garbage")
	}
}
