package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/checkout"
	"github.com/mauli-interior/go-storefront/internal/users"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	respondError(c, zap.NewNop(), err)
	return rec.Code
}

func TestRespondError_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{checkout.ErrUnauthenticated, http.StatusUnauthorized},
		{checkout.ErrEmptyCart, http.StatusBadRequest},
		{checkout.ErrCheckoutInProgress, http.StatusConflict},
		{checkout.ErrUnknownCheckout, http.StatusNotFound},
		{checkout.ErrPaymentCancelled, http.StatusConflict},
		{checkout.ErrSignatureMismatch, http.StatusBadRequest},
		{checkout.ErrGatewayUnavailable, http.StatusBadGateway},
		{checkout.ErrPaidOrderWriteFailed, http.StatusInternalServerError},
		{checkout.ErrOrderWriteFailed, http.StatusInternalServerError},
		{users.ErrEmailTaken, http.StatusConflict},
		{users.ErrInvalidCredentials, http.StatusUnauthorized},
		{users.ErrInvalidResetToken, http.StatusBadRequest},
		{users.ErrNotFound, http.StatusNotFound},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(t, tc.err); got != tc.want {
			t.Errorf("%v -> %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRespondError_ValidationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(c, zap.NewNop(), &checkout.ValidationError{Fields: map[string]string{"phone": "required"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "phone") || !strings.Contains(body, "required") {
		t.Errorf("body %q missing field detail", body)
	}
}
