package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *RazorpayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewRazorpayClient(config.RazorpayConfig{
		BaseURL:   srv.URL,
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		Timeout:   2 * time.Second,
	}, logging.NewNop())
}

func TestRazorpayClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(30000), req.Amount)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","entity":"order","amount":30000,"currency":"INR","receipt":"r1","status":"created"}`))
	})

	order, err := client.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 30000, Currency: "INR", Receipt: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(30000), order.Amount)
}

func TestRazorpayClient_CreateOrder_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	})

	_, err := client.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 100, Currency: "INR"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "expected StatusError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Authentication failed")
}

func TestRazorpayClient_FetchOrder_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/order_missing", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	order, err := client.FetchOrder(context.Background(), "order_missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestRazorpayClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewRazorpayClient(config.RazorpayConfig{
		BaseURL: srv.URL, KeyID: "k", KeySecret: "s", Timeout: 50 * time.Millisecond,
	}, logging.NewNop())

	_, err := client.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 100, Currency: "INR"})
	assert.Error(t, err)
}

func TestMockRazorpayClient(t *testing.T) {
	mock := NewMockRazorpayClient()

	order, err := mock.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 500, Currency: "INR"})
	require.NoError(t, err)
	assert.Contains(t, order.ID, "order_")

	fetched, err := mock.FetchOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fetched.Amount)
	assert.Equal(t, 1, mock.Orders())
}

func TestNewPaymentGateway_FallsBackToMock(t *testing.T) {
	gw := NewPaymentGateway(config.RazorpayConfig{}, logging.NewNop())
	_, ok := gw.(*MockRazorpayClient)
	assert.True(t, ok)

	gw = NewPaymentGateway(config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, logging.NewNop())
	_, ok = gw.(*RazorpayClient)
	assert.True(t, ok)
}
