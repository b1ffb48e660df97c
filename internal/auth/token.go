// Package auth issues and verifies the signed bearer tokens carried in the
// auth-token header.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
)

// HeaderName is the request header that carries the token.
const HeaderName = "auth-token"

const userIDClaim = "id"

// TokenManager signs and parses HS256 tokens whose "id" claim is the user id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. A zero ttl issues tokens without
// an expiry.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for userID.
func (m *TokenManager) Issue(userID string) (string, error) {
	claims := jwt.MapClaims{
		userIDClaim: userID,
		"iat":       m.now().Unix(),
	}
	if m.ttl > 0 {
		claims["exp"] = m.now().Add(m.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the user id it carries. Any failure maps to
// errors.ErrUnauthenticated.
func (m *TokenManager) Parse(raw string) (string, error) {
	if raw == "" {
		return "", errors.ErrUnauthenticated
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return "", errors.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.ErrUnauthenticated
	}

	userID, ok := claims[userIDClaim].(string)
	if !ok || userID == "" {
		return "", errors.ErrUnauthenticated
	}
	return userID, nil
}
