package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

const userIDKey = "user_id"

// RequireUser resolves the auth-token header to an existing user and stores
// the id on the context.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.authService.Authenticate(c.Request.Context(), c.GetHeader(auth.HeaderName))
		if err != nil {
			h.handleError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// Signup handles POST /signup
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	token, err := h.authService.Signup(c.Request.Context(), &req)
	if errors.Is(err, errors.ErrConflict) {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Errors:  "existing user found with same email address",
		})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Success: true, Token: token})
}

// Login handles POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), &req)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, models.AuthResponse{Success: false, Errors: err.Error()})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Success: true, Token: token})
}
