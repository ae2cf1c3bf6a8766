package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/reviews"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type reviewHandler struct {
	log   *zap.Logger
	store *reviews.Store
}

type addReviewRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment"`
}

func (h *reviewHandler) list(c *gin.Context) {
	list, err := h.store.ListByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list})
}

func (h *reviewHandler) add(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	created, err := h.store.Upsert(c.Request.Context(), reviews.Review{
		ProductID: c.Param("id"),
		UserID:    claims.UserID,
		UserName:  req.UserName,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// deleteOwn removes the caller's review. Admins may remove anyone's.
func (h *reviewHandler) deleteOwn(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	review, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	if review.UserID != claims.UserID && claims.Role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your review"})
		return
	}
	if err := h.store.Delete(c.Request.Context(), review.ReviewID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *reviewHandler) listAll(c *gin.Context) {
	list, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list})
}

func (h *reviewHandler) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
