package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/appointments"
	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type appointmentHandler struct {
	log   *zap.Logger
	store *appointments.Store
}

type bookAppointmentRequest struct {
	Date  string `json:"date" validate:"required"`
	Time  string `json:"time" validate:"required"`
	Type  string `json:"type" validate:"omitempty,oneof=consultation video site"`
	Notes string `json:"notes"`
}

type appointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *appointmentHandler) book(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	created, err := h.store.Create(c.Request.Context(), appointments.Appointment{
		UserID:    claims.UserID,
		UserEmail: claims.Email,
		Date:      req.Date,
		Time:      req.Time,
		Type:      req.Type,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *appointmentHandler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

func (h *appointmentHandler) updateStatus(c *gin.Context) {
	var req appointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !appointments.ValidStatus(req.Status) {
		badRequest(c, "unknown appointment status")
		return
	}
	if err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
