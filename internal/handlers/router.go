package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/appointments"
	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/cart"
	"github.com/mauli-interior/go-storefront/internal/checkout"
	"github.com/mauli-interior/go-storefront/internal/contacts"
	"github.com/mauli-interior/go-storefront/internal/orders"
	"github.com/mauli-interior/go-storefront/internal/products"
	"github.com/mauli-interior/go-storefront/internal/reviews"
	"github.com/mauli-interior/go-storefront/internal/users"
	"github.com/mauli-interior/go-storefront/internal/wishlist"
)

// Config bundles everything the HTTP surface needs.
type Config struct {
	Log          *zap.Logger
	Issuer       *auth.TokenIssuer
	Users        *users.Service
	Products     *products.Store
	Reviews      *reviews.Store
	Wishlist     *wishlist.Store
	Contacts     *contacts.Store
	Appointments *appointments.Store
	Carts        *cart.Service
	Orders       *orders.Store
	Checkout     *checkout.Workflow
}

// NewRouter wires all routes. Cart and catalog reads work anonymously;
// checkout and account routes require a token; the back office requires the
// admin role.
func NewRouter(cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(auth.Authenticate(cfg.Issuer))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := &authHandler{log: cfg.Log, users: cfg.Users, carts: cfg.Carts}
	productH := &productHandler{log: cfg.Log, store: cfg.Products}
	reviewH := &reviewHandler{log: cfg.Log, store: cfg.Reviews}
	cartH := &cartHandler{log: cfg.Log, carts: cfg.Carts, products: cfg.Products}
	checkoutH := &checkoutHandler{log: cfg.Log, workflow: cfg.Checkout}
	orderH := &orderHandler{log: cfg.Log, store: cfg.Orders}
	wishlistH := &wishlistHandler{log: cfg.Log, store: cfg.Wishlist, products: cfg.Products}
	contactH := &contactHandler{log: cfg.Log, store: cfg.Contacts}
	appointmentH := &appointmentHandler{log: cfg.Log, store: cfg.Appointments}

	router.POST("/auth/register", authH.register)
	router.POST("/auth/login", authH.login)
	router.POST("/auth/forgot-password", authH.forgotPassword)
	router.POST("/auth/reset-password", authH.resetPassword)
	router.GET("/auth/me", auth.RequireAuth(), authH.me)
	router.PUT("/auth/me", auth.RequireAuth(), authH.update)

	router.GET("/products", productH.list)
	router.GET("/products/:id", productH.get)
	router.GET("/products/:id/reviews", reviewH.list)
	router.POST("/products/:id/reviews", auth.RequireAuth(), reviewH.add)
	router.DELETE("/reviews/:id", auth.RequireAuth(), reviewH.deleteOwn)

	router.GET("/cart", cartH.get)
	router.POST("/cart/items", cartH.addItem)
	router.PATCH("/cart/items/:productId", cartH.updateQuantity)
	router.DELETE("/cart/items/:productId", cartH.removeItem)
	router.DELETE("/cart", cartH.clear)
	router.POST("/cart/merge", auth.RequireAuth(), cartH.merge)

	router.POST("/checkout", auth.RequireAuth(), checkoutH.submitCOD)
	router.POST("/checkout/payment", auth.RequireAuth(), checkoutH.beginPayment)
	router.POST("/checkout/payment/confirm", auth.RequireAuth(), checkoutH.confirmPayment)
	router.POST("/checkout/payment/cancel", auth.RequireAuth(), checkoutH.cancelPayment)

	router.GET("/orders", auth.RequireAuth(), orderH.listMine)
	router.GET("/orders/:id", auth.RequireAuth(), orderH.getMine)

	router.GET("/wishlist", auth.RequireAuth(), wishlistH.list)
	router.POST("/wishlist", auth.RequireAuth(), wishlistH.add)
	router.DELETE("/wishlist/:productId", auth.RequireAuth(), wishlistH.remove)

	router.POST("/contact", contactH.create)
	router.POST("/appointments", auth.RequireAuth(), appointmentH.book)

	admin := router.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/orders", orderH.listAll)
		admin.PUT("/orders/:id/status", orderH.updateStatus)
		admin.PUT("/orders/:id/paid", orderH.markPaid)
		admin.POST("/products", productH.create)
		admin.PUT("/products/:id", productH.update)
		admin.DELETE("/products/:id", productH.remove)
		admin.GET("/reviews", reviewH.listAll)
		admin.DELETE("/reviews/:id", reviewH.remove)
		admin.GET("/contacts", contactH.list)
		admin.PUT("/contacts/:id/read", contactH.markRead)
		admin.DELETE("/contacts/:id", contactH.remove)
		admin.GET("/users", authH.listUsers)
		admin.GET("/appointments", appointmentH.list)
		admin.PUT("/appointments/:id/status", appointmentH.updateStatus)
	}

	return router
}

// cartOwner resolves who the cart belongs to: the authenticated user, or the
// anonymous session named by the X-Session-Id header.
func cartOwner(c *gin.Context) (cart.Owner, bool) {
	if claims, ok := auth.ClaimsFrom(c); ok {
		return cart.Owner{UserID: claims.UserID}, true
	}
	if sid := auth.SessionID(c); sid != "" {
		return cart.Owner{SessionID: sid}, true
	}
	return cart.Owner{}, false
}

func currentCustomer(c *gin.Context) (checkout.Customer, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return checkout.Customer{}, false
	}
	return checkout.Customer{UserID: claims.UserID, Email: claims.Email}, true
}
