package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/contacts"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type contactHandler struct {
	log   *zap.Logger
	store *contacts.Store
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

func (h *contactHandler) create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	created, err := h.store.Create(c.Request.Context(), contacts.Message{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *contactHandler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": list})
}

func (h *contactHandler) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *contactHandler) markRead(c *gin.Context) {
	if err := h.store.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
