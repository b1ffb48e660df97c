package service

import (
	"context"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

// CartService serves signed-in carts and prices anonymous ones.
type CartService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	config      *config.Config
	logger      *logging.Logger
}

func NewCartService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	cfg *config.Config,
	logger *logging.Logger,
) *CartService {
	return &CartService{
		userRepo:    userRepo,
		productRepo: productRepo,
		config:      cfg,
		logger:      logger,
	}
}

// Load returns the persisted cart of userID.
func (s *CartService) Load(ctx context.Context, userID string) (*cart.PersistedCart, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.NewPersistedCart(user.ID, &user.CartData, s.userRepo), nil
}

// AddToCart increments productID in the user's cart and returns the new
// quantity.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string) (int, error) {
	productID, err := normalizeProductID(productID)
	if err != nil {
		return 0, err
	}

	c, err := s.Load(ctx, userID)
	if err != nil {
		return 0, err
	}

	n, err := c.Add(ctx, productID)
	if err != nil {
		return 0, errors.NewPersistenceError("add to cart", err)
	}

	s.logger.Debug("Item added to cart", logging.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   n,
	})
	return n, nil
}

// RemoveFromCart decrements productID, never below zero.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) (int, error) {
	productID, err := normalizeProductID(productID)
	if err != nil {
		return 0, err
	}

	c, err := s.Load(ctx, userID)
	if err != nil {
		return 0, err
	}

	n, err := c.Remove(ctx, productID)
	if err != nil {
		return 0, errors.NewPersistenceError("remove from cart", err)
	}

	s.logger.Debug("Item removed from cart", logging.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   n,
	})
	return n, nil
}

// GetCart returns the stored quantities of userID.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Quantities, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// Summarize prices c against the current catalog.
func (s *CartService) Summarize(ctx context.Context, c cart.Cart) (*models.CartSummary, error) {
	catalog, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := cart.Summarize(c, catalog, s.config.Checkout.ShippingFee)
	return &summary, nil
}

// QuoteAnonymous prices a cart that only exists on the client.
func (s *CartService) QuoteAnonymous(ctx context.Context, q *models.Quantities) (*models.CartSummary, error) {
	return s.Summarize(ctx, cart.NewAnonymousCart(q))
}

func normalizeProductID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewValidationError("itemId", "item ID is required")
	}
	return id, nil
}
