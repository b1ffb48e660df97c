package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// CreateIntent handles POST /razorpay/order
func (h *Handlers) CreateIntent(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateIntent")
	defer span.End()

	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	resp, err := h.paymentService.CreateIntent(ctx, &req)
	if err != nil {
		span.RecordError(err)
		middleware.RecordPaymentIntent("failed")
		h.handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("intent.id", resp.IntentID),
		attribute.Int64("intent.amount", resp.Amount),
	)
	middleware.RecordPaymentIntent("created")

	c.JSON(http.StatusOK, resp)
}

// VerifyPayment handles POST /razorpay/payment/verify
func (h *Handlers) VerifyPayment(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "VerifyPayment")
	defer span.End()

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	span.SetAttributes(attribute.String("intent.id", req.IntentID))

	err := h.paymentService.VerifyPayment(ctx, &req)
	if errors.Is(err, errors.ErrSignatureMismatch) {
		middleware.RecordPaymentVerification("invalid")
		c.JSON(http.StatusBadRequest, models.VerifyPaymentResponse{
			Status:  "error",
			Message: "Signature verification failed",
		})
		return
	}
	if err != nil {
		span.RecordError(err)
		h.handleError(c, err)
		return
	}

	middleware.RecordPaymentVerification("valid")
	c.JSON(http.StatusOK, models.VerifyPaymentResponse{Status: "ok"})
}

// GetIntent handles GET /razorpay/intents/:id
func (h *Handlers) GetIntent(c *gin.Context) {
	intent, err := h.paymentService.GetIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}
