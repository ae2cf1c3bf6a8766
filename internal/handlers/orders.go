package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/orders"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type orderHandler struct {
	log   *zap.Logger
	store *orders.Store
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *orderHandler) listMine(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	list, err := h.store.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// getMine returns one order, and only if it belongs to the caller. An order
// owned by someone else is indistinguishable from a missing one.
func (h *orderHandler) getMine(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	order, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if order == nil || order.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandler) listAll(c *gin.Context) {
	list, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *orderHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}
	if !orders.ValidStatus(req.Status) {
		badRequest(c, "unknown order status")
		return
	}
	if err := h.store.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// markPaid flips a COD order's payment status once the cash is collected.
func (h *orderHandler) markPaid(c *gin.Context) {
	if err := h.store.MarkPaymentPaid(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
