package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/checkout"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type checkoutHandler struct {
	log      *zap.Logger
	workflow *checkout.Workflow
}

type codRequest struct {
	checkout.ShippingDetails
}

type beginPaymentRequest struct {
	checkout.ShippingDetails
}

type confirmPaymentRequest struct {
	CheckoutID string `json:"checkout_id" validate:"required"`
	PaymentID  string `json:"payment_id" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

type cancelPaymentRequest struct {
	CheckoutID string `json:"checkout_id" validate:"required"`
}

func (h *checkoutHandler) submitCOD(c *gin.Context) {
	cust, ok := currentCustomer(c)
	if !ok {
		respondError(c, h.log, checkout.ErrUnauthenticated)
		return
	}
	var req codRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	order, err := h.workflow.SubmitCOD(c.Request.Context(), cust, req.ShippingDetails, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *checkoutHandler) beginPayment(c *gin.Context) {
	cust, ok := currentCustomer(c)
	if !ok {
		respondError(c, h.log, checkout.ErrUnauthenticated)
		return
	}
	var req beginPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	intent, err := h.workflow.BeginPayment(c.Request.Context(), cust, req.ShippingDetails)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *checkoutHandler) confirmPayment(c *gin.Context) {
	cust, ok := currentCustomer(c)
	if !ok {
		respondError(c, h.log, checkout.ErrUnauthenticated)
		return
	}
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	order, err := h.workflow.ConfirmPayment(c.Request.Context(), cust, req.CheckoutID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *checkoutHandler) cancelPayment(c *gin.Context) {
	cust, ok := currentCustomer(c)
	if !ok {
		respondError(c, h.log, checkout.ErrUnauthenticated)
		return
	}
	var req cancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	if err := h.workflow.CancelPayment(c.Request.Context(), cust, req.CheckoutID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
