package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

type publishedEvent struct {
	Type     string
	ID       string
	Previous models.OrderStatus
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) record(e publishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, o *models.Order) error {
	return p.record(publishedEvent{Type: "order.created", ID: o.OrderID})
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, o *models.Order, prev models.OrderStatus) error {
	return p.record(publishedEvent{Type: "order.status_changed", ID: o.OrderID, Previous: prev})
}

func (p *recordingPublisher) PublishOrderDeleted(_ context.Context, o *models.Order) error {
	return p.record(publishedEvent{Type: "order.deleted", ID: o.OrderID})
}

func (p *recordingPublisher) PublishIntentPaid(_ context.Context, i *models.PaymentIntent) error {
	return p.record(publishedEvent{Type: "intent.paid", ID: i.IntentID})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Razorpay: config.RazorpayConfig{KeySecret: "test_secret"},
		Auth:     config.AuthConfig{JWTSecret: "jwt_secret", TokenTTL: time.Hour},
		Checkout: config.CheckoutConfig{ShippingFee: 50, DefaultCurrency: "INR"},
		Features: config.FeatureFlags{EnableOrderCaching: true, EnableOrderEvents: true},
	}
}

func testLogger(t *testing.T) *logging.Logger {
	return logging.NewFromZap(zaptest.NewLogger(t), "service-test")
}

func validDelivery() models.DeliveryInfo {
	return models.DeliveryInfo{
		FirstName:  "Asha",
		LastName:   "Rao",
		Email:      "asha@example.com",
		Phone:      "9876543210",
		Address:    "12 MG Road",
		City:       "Pune",
		PostalCode: "411001",
	}
}

func newTokens(cfg *config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}
