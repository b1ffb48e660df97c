package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
)

// handleError maps the service error taxonomy onto HTTP responses.
func (h *Handlers) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, errors.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}

	if errors.Is(err, errors.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if errors.Is(err, errors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var validationErr *errors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"details": validationErr.Details,
		})
		return
	}

	var paymentErr *errors.PaymentError
	if errors.As(err, &paymentErr) {
		if errors.Is(err, errors.ErrSignatureMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": paymentErr.Err.Error()})
			return
		}
		h.logger.Error("Payment gateway error", logging.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": paymentErr.Op})
		return
	}

	var transitionErr *errors.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": transitionErr.Error(),
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
		return
	}

	if errors.Is(err, errors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "resource already exists"})
		return
	}

	h.logger.Error("Request failed", logging.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
