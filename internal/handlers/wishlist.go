package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/products"
	"github.com/mauli-interior/go-storefront/internal/validation"
	"github.com/mauli-interior/go-storefront/internal/wishlist"
)

type wishlistHandler struct {
	log      *zap.Logger
	store    *wishlist.Store
	products *products.Store
}

type addWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (h *wishlistHandler) list(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	entries, err := h.store.List(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}

func (h *wishlistHandler) add(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	var req addWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	product, err := h.products.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	entries, err := h.store.Add(c.Request.Context(), claims.UserID, wishlist.Entry{
		ProductID: product.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}

func (h *wishlistHandler) remove(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	entries, err := h.store.Remove(c.Request.Context(), claims.UserID, c.Param("productId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}
