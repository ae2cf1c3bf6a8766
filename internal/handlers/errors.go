package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/checkout"
	"github.com/mauli-interior/go-storefront/internal/users"
)

// respondError maps domain error kinds to HTTP responses. Anything unmapped
// is a 500 and gets logged; mapped kinds are the client's problem to render.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "checkout already in progress"})
	case errors.Is(err, checkout.ErrUnknownCheckout):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired checkout"})
	case errors.Is(err, checkout.ErrPaymentCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "payment was cancelled"})
	case errors.Is(err, checkout.ErrSignatureMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment verification failed"})
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, please try again"})
	case errors.Is(err, checkout.ErrPaidOrderWriteFailed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":           "your payment was received but the order could not be recorded, please contact support",
			"contact_support": true,
		})
	case errors.Is(err, checkout.ErrOrderWriteFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order could not be saved, please try again"})
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, users.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset token"})
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func validationFailed(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}
