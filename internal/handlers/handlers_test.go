package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

type testEnv struct {
	router  *gin.Engine
	h       *Handlers
	gateway *clients.MockRazorpayClient
	events  *events.MockEventPublisher
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{KeySecret: "test_secret"},
		Auth:     config.AuthConfig{JWTSecret: "jwt_secret", TokenTTL: time.Hour},
		Checkout: config.CheckoutConfig{ShippingFee: 50, DefaultCurrency: "INR"},
		Features: config.FeatureFlags{EnableOrderCaching: true, EnableOrderEvents: true},
	}
	logger := logging.NewFromZap(zaptest.NewLogger(t), "handlers-test")

	users := repository.NewMemoryUserRepository()
	products := repository.NewMemoryProductRepository()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := clients.NewMockRazorpayClient()
	publisher := events.NewMockEventPublisher()
	intents := repository.NewMemoryIntentRepository()

	h := NewHandlers(
		service.NewOrderService(repository.NewMemoryOrderRepository(), intents, users, products, repository.NewMemoryOrderCache(), tokens, publisher, cfg, logger),
		service.NewPaymentService(gateway, intents, publisher, cfg, logger),
		service.NewCartService(users, products, cfg, logger),
		service.NewAuthService(users, tokens, logger),
		service.NewCatalogService(products, logger),
		cfg,
		logger,
	)

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/addproduct", h.AddProduct)
	r.POST("/removeproduct", h.RemoveProduct)
	r.GET("/allproducts", h.AllProducts)
	r.GET("/newcollections", h.NewCollections)
	r.GET("/popularinwomen", h.PopularInWomen)
	r.POST("/cart/summary", h.CartSummary)
	r.POST("/razorpay/order", h.CreateIntent)
	r.POST("/razorpay/payment/verify", h.VerifyPayment)
	r.GET("/razorpay/intents/:id", h.GetIntent)
	r.POST("/saveorder", h.SaveOrder)
	r.GET("/admin/orders", h.ListOrders)
	r.GET("/admin/orders/:id", h.GetOrder)
	r.PUT("/admin/orders/:id", h.UpdateOrderStatus)
	r.DELETE("/admin/orders/:id", h.DeleteOrder)

	user := r.Group("/", h.RequireUser())
	user.GET("/myorders", h.MyOrders)
	user.POST("/addtocart", h.AddToCart)
	user.POST("/removefromcart", h.RemoveFromCart)
	user.POST("/getcart", h.GetCart)

	return &testEnv{router: r, h: h, gateway: gateway, events: publisher, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderName, token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/signup", "", gin.H{"username": "asha", "email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Token
}

func (e *testEnv) addProduct(t *testing.T, name, category string, price float64) int {
	t.Helper()
	w := e.do(t, http.MethodPost, "/addproduct", "", gin.H{"name": name, "category": category, "new_price": price, "old_price": price * 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Product.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func deliveryBody() gin.H {
	return gin.H{
		"firstName":  "Asha",
		"lastName":   "Rao",
		"email":      "asha@example.com",
		"phone":      "9876543210",
		"address":    "12 MG Road",
		"city":       "Pune",
		"postalCode": "411001",
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "asha@example.com")
	a := env.addProduct(t, "A", "women", 100)
	c := env.addProduct(t, "C", "women", 50)

	// intent
	w := env.do(t, http.MethodPost, "/razorpay/order", "", gin.H{"amount": 300, "currency": "INR"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var intent models.CreateIntentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	assert.Equal(t, int64(30000), intent.Amount)
	assert.Equal(t, intent.IntentID, intent.OrderID)

	// verify
	sig := service.ComputeSignature(env.cfg.Razorpay.KeySecret, intent.IntentID, "pay_1")
	w = env.do(t, http.MethodPost, "/razorpay/payment/verify", "", gin.H{
		"razorpay_order_id":   intent.IntentID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/razorpay/intents/"+intent.IntentID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", decode(t, w)["status"])

	// save order with items in request order
	items := fmt.Sprintf(`{"%d":2,"99":0,"%d":1}`, a, c)
	body := fmt.Sprintf(`{"paymentId":"pay_1","intentId":%q,"totalCost":300,"items":%s,"deliveryInfo":%s}`,
		intent.IntentID, items, mustJSON(t, deliveryBody()))
	w = env.do(t, http.MethodPost, "/saveorder", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved struct {
		Success bool         `json:"success"`
		Order   models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	assert.Equal(t, models.OrderStatusPending, saved.Order.Status)
	assert.Equal(t, 300.0, saved.Order.TotalCost)
	assert.Equal(t, []models.OrderItem{
		{ProductID: fmt.Sprint(a), Quantity: 2},
		{ProductID: fmt.Sprint(c), Quantity: 1},
	}, saved.Order.Items)

	// same payment again
	w = env.do(t, http.MethodPost, "/saveorder", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	// my orders
	w = env.do(t, http.MethodGet, "/myorders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)

	// admin lifecycle
	path := "/admin/orders/" + saved.Order.OrderID
	w = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, saved.Order.OrderID, decode(t, w)["orderId"])

	w = env.do(t, http.MethodPut, path, "", gin.H{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Order status updated", decode(t, w)["message"])

	w = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shipped", decode(t, w)["status"])

	w = env.do(t, http.MethodPut, path, "", gin.H{"status": "Pending"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, path, "", gin.H{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []events.EventType{
		events.EventTypeIntentPaid,
		events.EventTypeOrderCreated,
		events.EventTypeOrderStatusChanged,
		events.EventTypeOrderDeleted,
	}, env.events.Types())
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/razorpay/payment/verify", "", gin.H{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])

	w = env.do(t, http.MethodPost, "/razorpay/payment/verify", "", gin.H{"razorpay_order_id": "order_1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPayment_UnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	sig := service.ComputeSignature(env.cfg.Razorpay.KeySecret, "order_unknown", "pay_1")
	w := env.do(t, http.MethodPost, "/razorpay/payment/verify", "", gin.H{
		"razorpay_order_id":   "order_unknown",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Empty(t, env.events.Types())
}

func TestSaveOrder_RecordsCapturedAmount(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "asha@example.com")
	a := env.addProduct(t, "A", "women", 100)

	w := env.do(t, http.MethodPost, "/razorpay/order", "", gin.H{"amount": 250})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var intent models.CreateIntentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))

	w = env.do(t, http.MethodPost, "/removeproduct", "", gin.H{"id": a})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := fmt.Sprintf(`{"paymentId":"pay_1","intentId":%q,"totalCost":1,"items":{"%d":2},"deliveryInfo":%s}`,
		intent.IntentID, a, mustJSON(t, deliveryBody()))
	w = env.do(t, http.MethodPost, "/saveorder", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, 250.0, order["totalCost"])
}

func TestCreateIntent_GatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.Err = fmt.Errorf("connection refused")

	w := env.do(t, http.MethodPost, "/razorpay/order", "", gin.H{"amount": 10})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "payment initiation failed", decode(t, w)["error"])
}

func TestSaveOrder_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	body := gin.H{"paymentId": "pay_1", "items": gin.H{"1": 1}, "deliveryInfo": deliveryBody()}
	w := env.do(t, http.MethodPost, "/saveorder", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/saveorder", "not-a-token", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/myorders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSaveOrder_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	token, err := auth.NewTokenManager(env.cfg.Auth.JWTSecret, time.Hour).Issue("ghost")
	require.NoError(t, err)

	body := gin.H{"paymentId": "pay_1", "items": gin.H{"1": 1}, "deliveryInfo": deliveryBody()}
	w := env.do(t, http.MethodPost, "/saveorder", token, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveOrder_ValidationAndBadBody(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "asha@example.com")

	delivery := deliveryBody()
	delete(delivery, "city")
	w := env.do(t, http.MethodPost, "/saveorder", token, gin.H{"paymentId": "pay_1", "items": gin.H{"1": 1}, "deliveryInfo": delivery})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["details"], "deliveryInfo.city")

	w = env.do(t, http.MethodPost, "/saveorder", token, "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyOrders_EmptyForNewUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "new@example.com")

	w := env.do(t, http.MethodGet, "/myorders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestAuth_DuplicateSignupAndBadLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "asha@example.com")

	w := env.do(t, http.MethodPost, "/signup", "", gin.H{"username": "x", "email": "asha@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = env.do(t, http.MethodPost, "/login", "", gin.H{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/login", "", gin.H{"email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])
}

func TestCartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "asha@example.com")
	a := env.addProduct(t, "A", "women", 100)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/addtocart", token, fmt.Sprintf(`{"itemId":%d}`, a))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodPost, "/removefromcart", token, fmt.Sprintf(`{"itemId":%d}`, a))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["quantity"])

	w = env.do(t, http.MethodPost, "/getcart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"%d":1}`, a), w.Body.String())

	w = env.do(t, http.MethodPost, "/cart/summary", "", fmt.Sprintf(`{"%d":2,"404":3}`, a))
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.Equal(t, 200.0, summary["subtotal"])
	assert.Equal(t, 250.0, summary["total"])
	assert.Equal(t, 5.0, summary["itemCount"])
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 10; i++ {
		env.addProduct(t, fmt.Sprintf("p%d", i), "women", 10)
	}

	w := env.do(t, http.MethodGet, "/newcollections", "", nil)
	var products []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 8)
	assert.Equal(t, 3, products[0].ID)

	w = env.do(t, http.MethodGet, "/popularinwomen", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 4)

	w = env.do(t, http.MethodPost, "/removeproduct", "", gin.H{"id": 1, "name": "p0"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/removeproduct", "", gin.H{"id": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/allproducts", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 9)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestReady_FailingCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.h.AddReadinessCheck("postgres", func(context.Context) error { return fmt.Errorf("connection refused") })
	w = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleError_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handlers{logger: logging.NewNop()}

	tests := []struct {
		err  error
		code int
	}{
		{errors.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.ErrUserNotFound, http.StatusNotFound},
		{errors.ErrNotFound, http.StatusNotFound},
		{errors.NewValidationError("paymentId", "payment ID is required"), http.StatusBadRequest},
		{errors.NewPaymentError("verify payment", errors.ErrSignatureMismatch), http.StatusBadRequest},
		{errors.NewPaymentError("payment initiation failed", fmt.Errorf("timeout")), http.StatusBadGateway},
		{&errors.TransitionError{From: "Delivered", To: "Pending"}, http.StatusConflict},
		{errors.ErrConflict, http.StatusConflict},
		{errors.NewPersistenceError("create order", fmt.Errorf("disk full")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
