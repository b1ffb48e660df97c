package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

const (
	opInitiatePayment = "payment initiation failed"
	opConfirmPayment  = "payment confirmation failed"
)

// PaymentService creates gateway orders and verifies checkout signatures.
type PaymentService struct {
	gateway        clients.PaymentGateway
	intentRepo     repository.IntentRepository
	eventPublisher OrderEventPublisher
	config         *config.Config
	logger         *logging.Logger
	now            func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	gateway clients.PaymentGateway,
	intentRepo repository.IntentRepository,
	eventPublisher OrderEventPublisher,
	cfg *config.Config,
	logger *logging.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:        gateway,
		intentRepo:     intentRepo,
		eventPublisher: eventPublisher,
		config:         cfg,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateIntent converts the major-unit amount to minor units, opens a
// gateway order and records it as a created intent. Gateway failures are
// not retried.
func (s *PaymentService) CreateIntent(ctx context.Context, req *models.CreateIntentRequest) (*models.CreateIntentResponse, error) {
	if err := ValidateCreateIntentRequest(req); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.config.Checkout.DefaultCurrency
	}
	receipt := req.Receipt
	if receipt == "" {
		receipt = "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}
	amount := ToMinorUnits(req.Amount)

	s.logger.Info("Creating payment intent", logging.Fields{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})

	gatewayOrder, err := s.gateway.CreateOrder(ctx, &clients.CreateOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		s.logger.Error("Gateway order creation failed", logging.Fields{
			"receipt": receipt,
			"error":   err,
		})
		return nil, errors.NewPaymentError(opInitiatePayment, err)
	}

	now := s.now()
	intent := &models.PaymentIntent{
		IntentID:  gatewayOrder.ID,
		Amount:    gatewayOrder.Amount,
		Currency:  gatewayOrder.Currency,
		Receipt:   receipt,
		Notes:     req.Notes,
		Status:    models.IntentStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, errors.NewPersistenceError("store intent", err)
	}

	return &models.CreateIntentResponse{
		IntentID: intent.IntentID,
		OrderID:  intent.IntentID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		Receipt:  intent.Receipt,
		Status:   string(intent.Status),
	}, nil
}

// VerifySignature reports whether signature is the HMAC of
// intentID|paymentID under the gateway key secret. On a match the stored
// intent is marked paid. An intent with no local record is confirmed with the
// gateway and recorded as paid; ErrNotFound is returned when the gateway does
// not know it either.
func (s *PaymentService) VerifySignature(ctx context.Context, intentID, paymentID, signature string) (bool, error) {
	if !signatureMatches(s.config.Razorpay.KeySecret, intentID, paymentID, signature) {
		s.logger.Warn("Payment signature mismatch", logging.Fields{
			"intent_id":  intentID,
			"payment_id": paymentID,
		})
		return false, nil
	}

	found, err := s.markPaid(ctx, intentID, paymentID)
	if err != nil {
		return true, err
	}
	if !found {
		if err := s.recordGatewayIntent(ctx, intentID, paymentID); err != nil {
			return true, err
		}
	}
	return true, nil
}

// recordGatewayIntent stores a paid intent for a gateway order that was
// created outside this service.
func (s *PaymentService) recordGatewayIntent(ctx context.Context, intentID, paymentID string) error {
	gatewayOrder, err := s.gateway.FetchOrder(ctx, intentID)
	if err != nil {
		s.logger.Error("Gateway order lookup failed", logging.Fields{
			"intent_id": intentID,
			"error":     err,
		})
		return errors.NewPaymentError(opConfirmPayment, err)
	}
	if gatewayOrder == nil {
		s.logger.Warn("Verified intent unknown to gateway", logging.Fields{"intent_id": intentID})
		return errors.ErrNotFound
	}

	now := s.now()
	intent := &models.PaymentIntent{
		IntentID:  gatewayOrder.ID,
		Amount:    gatewayOrder.Amount,
		Currency:  gatewayOrder.Currency,
		Receipt:   gatewayOrder.Receipt,
		Notes:     gatewayOrder.Notes,
		Status:    models.IntentStatusPaid,
		PaymentID: paymentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			_, err = s.markPaid(ctx, intentID, paymentID)
			return err
		}
		return errors.NewPersistenceError("store intent", err)
	}

	s.logger.Info("Recorded gateway intent", logging.Fields{
		"intent_id": intent.IntentID,
		"amount":    intent.Amount,
	})
	s.publishIntentPaid(ctx, intentID)
	return nil
}

// VerifyPayment is the checkout callback path. A mismatch is a PaymentError
// wrapping ErrSignatureMismatch.
func (s *PaymentService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) error {
	if err := ValidateVerifyPaymentRequest(req); err != nil {
		return err
	}

	ok, err := s.VerifySignature(ctx, req.IntentID, req.PaymentID, req.Signature)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewPaymentError("verify payment", errors.ErrSignatureMismatch)
	}

	s.logger.Info("Payment verified", logging.Fields{
		"intent_id":  req.IntentID,
		"payment_id": req.PaymentID,
	})
	return nil
}

// MarkIntentPaid records the captured payment on the intent. Unknown intents
// are logged and ignored.
func (s *PaymentService) MarkIntentPaid(ctx context.Context, intentID, paymentID string) error {
	_, err := s.markPaid(ctx, intentID, paymentID)
	return err
}

func (s *PaymentService) markPaid(ctx context.Context, intentID, paymentID string) (bool, error) {
	found, err := s.intentRepo.MarkPaid(ctx, intentID, paymentID)
	if err != nil {
		return false, errors.NewPersistenceError("mark intent paid", err)
	}
	if !found {
		s.logger.Warn("Paid intent not found locally", logging.Fields{"intent_id": intentID})
		return false, nil
	}

	s.publishIntentPaid(ctx, intentID)
	return true, nil
}

func (s *PaymentService) publishIntentPaid(ctx context.Context, intentID string) {
	if !s.config.Features.EnableOrderEvents {
		return
	}

	intent, err := s.intentRepo.GetByID(ctx, intentID)
	if err == nil {
		err = s.eventPublisher.PublishIntentPaid(ctx, intent)
	}
	if err != nil {
		s.logger.Error("Failed to publish intent paid event", logging.Fields{
			"intent_id": intentID,
			"error":     err,
		})
	}
}

// GetIntent returns a stored intent.
func (s *PaymentService) GetIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	return s.intentRepo.GetByID(ctx, intentID)
}
