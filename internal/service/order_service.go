package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

// OrderEventPublisher publishes order lifecycle and payment events.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
	PublishOrderDeleted(ctx context.Context, order *models.Order) error
	PublishIntentPaid(ctx context.Context, intent *models.PaymentIntent) error
}

// OrderService handles order business logic.
type OrderService struct {
	orderRepo      repository.OrderRepository
	intentRepo     repository.IntentRepository
	userRepo       repository.UserRepository
	productRepo    repository.ProductRepository
	orderCache     repository.OrderCache
	tokens         *auth.TokenManager
	eventPublisher OrderEventPublisher
	config         *config.Config
	logger         *logging.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	intentRepo repository.IntentRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderCache repository.OrderCache,
	tokens *auth.TokenManager,
	eventPublisher OrderEventPublisher,
	cfg *config.Config,
	logger *logging.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		intentRepo:     intentRepo,
		userRepo:       userRepo,
		productRepo:    productRepo,
		orderCache:     orderCache,
		tokens:         tokens,
		eventPublisher: eventPublisher,
		config:         cfg,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder turns a verified payment plus the checkout form into a Pending
// order owned by the user the token resolves to.
func (s *OrderService) CreateOrder(ctx context.Context, token string, req *models.CreateOrderRequest) (*models.Order, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := ValidateCreateOrderRequest(req); err != nil {
		return nil, err
	}

	totalCost, err := s.chargedTotal(ctx, req)
	if err != nil {
		return nil, err
	}

	catalog, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	computed := CalculateOrderTotal(&req.Items, catalog, s.config.Checkout.ShippingFee)
	if !sameAmount(totalCost, computed.Total) {
		s.logger.Warn("Charged total differs from catalog total", logging.Fields{
			"user_id":   user.ID,
			"intent_id": req.IntentID,
			"charged":   totalCost,
			"submitted": req.TotalCost,
			"computed":  computed.Total,
		})
	}

	now := s.now()
	paymentDate := now
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paymentDate = req.PaymentDate.UTC()
	}

	order := &models.Order{
		OrderID:      uuid.NewString(),
		UserID:       user.ID,
		IntentID:     req.IntentID,
		PaymentID:    req.PaymentID,
		DeliveryInfo: req.DeliveryInfo,
		TotalCost:    totalCost,
		Items:        req.Items.Items(),
		Status:       models.OrderStatusPending,
		OrderDate:    now,
		PaymentDate:  paymentDate,
	}

	s.logger.Info("Creating order", logging.Fields{
		"order_id":   order.OrderID,
		"user_id":    order.UserID,
		"item_count": len(order.Items),
	})

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", logging.Fields{
			"user_id":    order.UserID,
			"payment_id": order.PaymentID,
			"error":      err,
		})
		return nil, errors.NewPersistenceError("create order", err)
	}

	if s.config.Features.EnableOrderCaching {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": order.OrderID,
				"error":    err,
			})
		}
		s.invalidateUser(ctx, order.UserID)
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.OrderID,
				"error":    err,
			})
		}
	}

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id": order.OrderID,
		"total":    order.TotalCost,
	})

	return order, nil
}

// chargedTotal returns the amount the order is recorded at. The stored intent
// amount is what the gateway captured and wins over the submitted total.
func (s *OrderService) chargedTotal(ctx context.Context, req *models.CreateOrderRequest) (float64, error) {
	if req.IntentID == "" {
		return req.TotalCost, nil
	}

	intent, err := s.intentRepo.GetByID(ctx, req.IntentID)
	if errors.Is(err, errors.ErrNotFound) {
		return req.TotalCost, nil
	}
	if err != nil {
		return 0, err
	}
	return FromMinorUnits(intent.Amount), nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	if s.config.Features.EnableOrderCaching {
		if order, err := s.orderCache.Get(ctx, id); err == nil && order != nil {
			s.logger.Debug("Order found in cache", logging.Fields{"order_id": id})
			return order, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		_ = s.orderCache.Set(ctx, order)
	}

	return order, nil
}

// UpdateOrderStatus moves an order along the transition table. Re-applying
// the current status returns the order unchanged.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	if !status.IsValid() {
		return nil, errors.NewValidationError("status", "must be one of Pending, Shipped, Delivered, Cancelled")
	}

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status == status {
		return current, nil
	}

	if !current.Status.CanTransitionTo(status) {
		return nil, &errors.TransitionError{From: string(current.Status), To: string(status)}
	}

	previousStatus := current.Status

	order, err := s.orderRepo.UpdateStatus(ctx, id, previousStatus, status)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		_ = s.orderCache.Delete(ctx, id)
		s.invalidateUser(ctx, order.UserID)
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
			s.logger.Error("Failed to publish status change event", logging.Fields{
				"order_id": order.OrderID,
				"error":    err,
			})
		}
	}

	return order, nil
}

// DeleteOrder permanently removes an order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	s.logger.Info("Deleting order", logging.Fields{"order_id": id})

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.config.Features.EnableOrderCaching {
		_ = s.orderCache.Delete(ctx, id)
		s.invalidateUser(ctx, order.UserID)
	}

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderDeleted(ctx, order); err != nil {
			s.logger.Error("Failed to publish order deleted event", logging.Fields{
				"order_id": id,
				"error":    err,
			})
		}
	}

	return nil
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	s.logger.Debug("Listing all orders")
	return s.orderRepo.List(ctx, &models.OrderListFilter{})
}

// GetUserOrders returns the orders of userID, newest first. A user with no
// orders gets an empty list.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	s.logger.Debug("Getting user orders", logging.Fields{"user_id": userID})

	if s.config.Features.EnableOrderCaching {
		if orders, err := s.orderCache.GetByUserID(ctx, userID); err == nil && orders != nil {
			s.logger.Debug("User orders found in cache", logging.Fields{"user_id": userID})
			return orders, nil
		}
	}

	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		_ = s.orderCache.SetByUserID(ctx, userID, orders)
	}

	return orders, nil
}

func (s *OrderService) invalidateUser(ctx context.Context, userID string) {
	if err := s.orderCache.InvalidateByUserID(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate user order cache", logging.Fields{
			"user_id": userID,
			"error":   err,
		})
	}
}
