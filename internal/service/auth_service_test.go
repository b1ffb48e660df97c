package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

func TestAuthService_SignupAndLogin(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	cfg := testConfig()
	svc := NewAuthService(users, newTokens(cfg), testLogger(t))
	svc.cost = 4
	ctx := context.Background()

	token, err := svc.Signup(ctx, &models.SignupRequest{Username: "asha", Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)

	user, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Equal(t, 0, user.CartData.Len(), "new accounts start with an empty sparse cart")

	_, err = svc.Signup(ctx, &models.SignupRequest{Username: "again", Email: "asha@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, errors.ErrConflict)

	loginToken, err := svc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
