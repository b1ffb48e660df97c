package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

// PaymentGateway creates and reads orders on the payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.GatewayOrder, error)
	// FetchOrder returns nil, nil when the provider has no such order.
	FetchOrder(ctx context.Context, orderID string) (*models.GatewayOrder, error)
}

var (
	_ PaymentGateway = (*RazorpayClient)(nil)
	_ PaymentGateway = (*MockRazorpayClient)(nil)
)

// CreateOrderRequest is the Razorpay order creation payload. Amount is in
// minor currency units.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// StatusError is returned when the gateway answers with a non-success code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("razorpay returned status %d: %s", e.StatusCode, e.Body)
}

// RazorpayClient talks to the Razorpay REST API with basic auth.
type RazorpayClient struct {
	baseURL    string
	httpClient *http.Client
	keyID      string
	keySecret  string
	logger     *logging.Logger
}

// NewRazorpayClient creates a client from gateway configuration.
func NewRazorpayClient(cfg config.RazorpayConfig, logger *logging.Logger) *RazorpayClient {
	return &RazorpayClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		logger:    logger,
	}
}

// CreateOrder creates a gateway order that a checkout can be opened against.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.GatewayOrder, error) {
	c.logger.Debug("Creating gateway order", logging.Fields{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	})

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/orders", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Gateway order request failed", logging.Fields{
			"receipt": req.Receipt,
			"error":   err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		statusErr := readStatusError(resp)
		c.logger.Error("Gateway order request returned error", logging.Fields{
			"receipt":     req.Receipt,
			"status_code": resp.StatusCode,
		})
		return nil, statusErr
	}

	var order models.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}

	c.logger.Info("Gateway order created", logging.Fields{
		"intent_id": order.ID,
		"amount":    order.Amount,
	})

	return &order, nil
}

// FetchOrder reads a gateway order by id.
func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*models.GatewayOrder, error) {
	c.logger.Debug("Fetching gateway order", logging.Fields{"intent_id": orderID})

	url := fmt.Sprintf("%s/v1/orders/%s", c.baseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var order models.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *RazorpayClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// MockRazorpayClient is an in-process gateway used when no API keys are
// configured and in tests. Set Err to make every call fail.
type MockRazorpayClient struct {
	mu     sync.Mutex
	orders map[string]*models.GatewayOrder
	Err    error
}

func NewMockRazorpayClient() *MockRazorpayClient {
	return &MockRazorpayClient{orders: make(map[string]*models.GatewayOrder)}
}

func (m *MockRazorpayClient) CreateOrder(_ context.Context, req *CreateOrderRequest) (*models.GatewayOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	order := &models.GatewayOrder{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}
	m.orders[order.ID] = order

	c := *order
	return &c, nil
}

func (m *MockRazorpayClient) FetchOrder(_ context.Context, orderID string) (*models.GatewayOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	c := *order
	return &c, nil
}

// Orders returns how many orders the mock has created.
func (m *MockRazorpayClient) Orders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// NewPaymentGateway returns the real client when keys are configured and the
// mock otherwise.
func NewPaymentGateway(cfg config.RazorpayConfig, logger *logging.Logger) PaymentGateway {
	if cfg.Enabled() {
		return NewRazorpayClient(cfg, logger)
	}
	logger.Warn("Razorpay keys not configured, using mock gateway", logging.Fields{
		"base_url": cfg.BaseURL,
	})
	return NewMockRazorpayClient()
}

