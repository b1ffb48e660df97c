package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// SaveOrder handles POST /saveorder
func (h *Handlers) SaveOrder(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "SaveOrder")
	defer span.End()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind request", logging.Fields{"error": err.Error()})
		badRequest(c)
		return
	}

	order, err := h.orderService.CreateOrder(ctx, c.GetHeader(auth.HeaderName), &req)
	if err != nil {
		span.RecordError(err)
		h.handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("order.id", order.OrderID),
		attribute.Float64("order.total", order.TotalCost),
	)
	middleware.RecordOrderCreated()

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// MyOrders handles GET /myorders
func (h *Handlers) MyOrders(c *gin.Context) {
	orders, err := h.orderService.GetUserOrders(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListOrders handles GET /admin/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /admin/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /admin/orders/:id
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateOrderStatus")
	defer span.End()

	orderID := c.Param("id")

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(req.Status)),
	)

	order, err := h.orderService.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		span.RecordError(err)
		h.handleError(c, err)
		return
	}

	middleware.RecordOrderStatusChange(string(order.Status))

	c.JSON(http.StatusOK, gin.H{
		"message":      "Order status updated",
		"updatedOrder": order,
	})
}

// DeleteOrder handles DELETE /admin/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
