package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

const popularCategory = "women"

// AddProduct handles POST /addproduct
func (h *Handlers) AddProduct(c *gin.Context) {
	var req models.AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	product, err := h.catalogService.AddProduct(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

// RemoveProduct handles POST /removeproduct
func (h *Handlers) RemoveProduct(c *gin.Context) {
	var req models.RemoveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.catalogService.RemoveProduct(c.Request.Context(), req.ID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "name": req.Name})
}

// AllProducts handles GET /allproducts
func (h *Handlers) AllProducts(c *gin.Context) {
	products, err := h.catalogService.AllProducts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// NewCollections handles GET /newcollections
func (h *Handlers) NewCollections(c *gin.Context) {
	products, err := h.catalogService.NewCollections(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// PopularInWomen handles GET /popularinwomen
func (h *Handlers) PopularInWomen(c *gin.Context) {
	products, err := h.catalogService.PopularIn(c.Request.Context(), popularCategory)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}
