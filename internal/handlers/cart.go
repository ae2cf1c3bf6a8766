package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/cart"
	"github.com/mauli-interior/go-storefront/internal/products"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type cartHandler struct {
	log      *zap.Logger
	carts    *cart.Service
	products *products.Store
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// updateQuantityRequest deliberately has no lower bound: a quantity below 1
// removes the line.
type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartView is what every cart endpoint returns: the lines plus the derived
// aggregates the storefront header renders.
type cartView struct {
	Items     cart.Items `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
	SyncMode  string     `json:"sync_mode"`
}

func viewOf(items cart.Items, mode cart.Mode) cartView {
	return cartView{
		Items:     items,
		Total:     items.Total(),
		ItemCount: items.ItemCount(),
		SyncMode:  mode.String(),
	}
}

func (h *cartHandler) get(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		badRequest(c, "session id or authentication required")
		return
	}
	items, mode := h.carts.Get(c.Request.Context(), owner)
	c.JSON(http.StatusOK, viewOf(items, mode))
}

func (h *cartHandler) addItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		badRequest(c, "session id or authentication required")
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	// line items carry a price snapshot, so the product must exist
	product, err := h.products.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	line := cart.LineItem{
		ProductID: product.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
	}
	items := h.carts.Mutate(c.Request.Context(), owner, func(items cart.Items) cart.Items {
		return items.Add(line, req.Quantity)
	})
	_, mode := h.carts.Get(c.Request.Context(), owner)
	c.JSON(http.StatusOK, viewOf(items, mode))
}

func (h *cartHandler) updateQuantity(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		badRequest(c, "session id or authentication required")
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	productID := c.Param("productId")
	items := h.carts.Mutate(c.Request.Context(), owner, func(items cart.Items) cart.Items {
		return items.UpdateQuantity(productID, req.Quantity)
	})
	_, mode := h.carts.Get(c.Request.Context(), owner)
	c.JSON(http.StatusOK, viewOf(items, mode))
}

func (h *cartHandler) removeItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		badRequest(c, "session id or authentication required")
		return
	}
	productID := c.Param("productId")
	items := h.carts.Mutate(c.Request.Context(), owner, func(items cart.Items) cart.Items {
		return items.Remove(productID)
	})
	_, mode := h.carts.Get(c.Request.Context(), owner)
	c.JSON(http.StatusOK, viewOf(items, mode))
}

// merge folds the anonymous session cart named by X-Session-Id into the
// signed-in user's cart and returns the result.
func (h *cartHandler) merge(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	sid := auth.SessionID(c)
	if sid == "" {
		badRequest(c, "session id required")
		return
	}
	items := h.carts.MergeOnLogin(c.Request.Context(), sid, claims.UserID)
	_, mode := h.carts.Get(c.Request.Context(), cart.Owner{UserID: claims.UserID})
	c.JSON(http.StatusOK, viewOf(items, mode))
}

func (h *cartHandler) clear(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		badRequest(c, "session id or authentication required")
		return
	}
	h.carts.Clear(c.Request.Context(), owner)
	items, mode := h.carts.Get(c.Request.Context(), owner)
	c.JSON(http.StatusOK, viewOf(items, mode))
}
