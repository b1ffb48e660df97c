package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// AddToCart handles POST /addtocart
func (h *Handlers) AddToCart(c *gin.Context) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	n, err := h.cartService.AddToCart(c.Request.Context(), c.GetString(userIDKey), req.ItemID.String())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "quantity": n})
}

// RemoveFromCart handles POST /removefromcart
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	var req models.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	n, err := h.cartService.RemoveFromCart(c.Request.Context(), c.GetString(userIDKey), req.ItemID.String())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "quantity": n})
}

// GetCart handles POST /getcart
func (h *Handlers) GetCart(c *gin.Context) {
	q, err := h.cartService.GetCart(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

// CartSummary handles POST /cart/summary. The body is the client-held
// productId -> quantity mapping.
func (h *Handlers) CartSummary(c *gin.Context) {
	var q models.Quantities
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c)
		return
	}

	summary, err := h.cartService.QuoteAnonymous(c.Request.Context(), &q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
