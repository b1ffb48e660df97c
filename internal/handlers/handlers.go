package handlers

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

var tracer = otel.Tracer("storefront/handlers")

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers holds all HTTP handlers for the storefront.
type Handlers struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	cartService    *service.CartService
	authService    *service.AuthService
	catalogService *service.CatalogService
	config         *config.Config
	logger         *logging.Logger
	checks         map[string]ReadinessCheck
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	cartService *service.CartService,
	authService *service.AuthService,
	catalogService *service.CatalogService,
	cfg *config.Config,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		orderService:   orderService,
		paymentService: paymentService,
		cartService:    cartService,
		authService:    authService,
		catalogService: catalogService,
		config:         cfg,
		logger:         logger,
		checks:         make(map[string]ReadinessCheck),
	}
}

// AddReadinessCheck registers a dependency probe used by GET /ready.
func (h *Handlers) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}
