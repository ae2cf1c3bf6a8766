package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/auth"
	"github.com/mauli-interior/go-storefront/internal/cart"
	"github.com/mauli-interior/go-storefront/internal/users"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

type authHandler struct {
	log   *zap.Logger
	users *users.Service
	carts *cart.Service
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *authHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	sess, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.mergeCart(c, sess.Profile.UserID)
	c.JSON(http.StatusCreated, sess)
}

func (h *authHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}

	sess, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.mergeCart(c, sess.Profile.UserID)
	c.JSON(http.StatusOK, sess)
}

func (h *authHandler) me(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	profile, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *authHandler) update(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}
	if err := h.users.UpdateDetails(c.Request.Context(), claims.UserID, req.Name, req.Phone); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// forgotPassword always answers 200 so the endpoint cannot be used to probe
// for registered emails.
func (h *authHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}
	if err := h.users.StartPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.log.Error("password reset request failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (h *authHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if fields := validation.Check(req); fields != nil {
		validationFailed(c, fields)
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), req.Email, req.Token, req.Password); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *authHandler) listUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// mergeCart folds the anonymous session cart into the user's cart on sign-in.
func (h *authHandler) mergeCart(c *gin.Context, userID string) {
	if sid := auth.SessionID(c); sid != "" {
		h.carts.MergeOnLogin(c.Request.Context(), sid, userID)
	}
}
