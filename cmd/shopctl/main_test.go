package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

func seededStores(t *testing.T) *repository.Stores {
	t.Helper()
	stores, err := repository.OpenStores(context.Background(), config.DatabaseConfig{Driver: repository.DriverMemory}, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, stores.Orders.Create(context.Background(), &models.Order{
		OrderID:   "ord-1",
		UserID:    "user-1",
		PaymentID: "pay_1",
		TotalCost: 300,
		Items:     []models.OrderItem{{ProductID: "1", Quantity: 2}, {ProductID: "3", Quantity: 1}},
		Status:    models.OrderStatusPending,
		OrderDate: time.Now().UTC(),
	}))
	require.NoError(t, stores.Intents.Create(context.Background(), &models.PaymentIntent{
		IntentID: "order_1",
		Amount:   30000,
		Currency: "INR",
		Status:   models.IntentStatusCreated,
	}))
	return stores
}

func testCLIConfig() *config.Config {
	return &config.Config{
		Auth:     config.AuthConfig{JWTSecret: "jwt_secret", TokenTTL: time.Hour},
		Features: config.FeatureFlags{EnableOrderCaching: true},
	}
}

func TestRun_Orders(t *testing.T) {
	stores := seededStores(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), testCLIConfig(), stores, logging.NewNop(), []string{"orders"}, &out))
	assert.Contains(t, out.String(), "ord-1")
	assert.Contains(t, out.String(), "300.00")
}

func TestRun_Status(t *testing.T) {
	stores := seededStores(t)
	var out bytes.Buffer
	ctx := context.Background()

	require.NoError(t, run(ctx, testCLIConfig(), stores, logging.NewNop(), []string{"status", "ord-1", "Shipped"}, &out))
	assert.Contains(t, out.String(), "Shipped")

	err := run(ctx, testCLIConfig(), stores, logging.NewNop(), []string{"status", "ord-1", "Pending"}, &out)
	var te *errors.TransitionError
	assert.True(t, errors.As(err, &te))

	err = run(ctx, testCLIConfig(), stores, logging.NewNop(), []string{"status", "ord-1"}, &out)
	assert.Error(t, err)
}

func TestRun_Intents(t *testing.T) {
	stores := seededStores(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), testCLIConfig(), stores, logging.NewNop(), []string{"intents", "order_1"}, &out))
	assert.Contains(t, out.String(), "30000 INR")

	err := run(context.Background(), testCLIConfig(), stores, logging.NewNop(), []string{"intents", "order_x"}, &out)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(context.Background(), testCLIConfig(), seededStores(t), logging.NewNop(), []string{"refund"}, &bytes.Buffer{})
	assert.Error(t, err)
}
