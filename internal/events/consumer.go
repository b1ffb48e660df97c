package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
)

// PaymentEventType is the Razorpay webhook event name.
type PaymentEventType string

const (
	PaymentEventCaptured  PaymentEventType = "payment.captured"
	PaymentEventFailed    PaymentEventType = "payment.failed"
	PaymentEventOrderPaid PaymentEventType = "order.paid"
)

// PaymentEvent is a Razorpay webhook body relayed onto the payments topic.
type PaymentEvent struct {
	Event     PaymentEventType `json:"event"`
	CreatedAt int64            `json:"created_at"`
	Payload   struct {
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity orderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type orderEntity struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// IntentID returns the gateway order id the event refers to.
func (e *PaymentEvent) IntentID() string {
	if e.Payload.Order != nil && e.Payload.Order.Entity.ID != "" {
		return e.Payload.Order.Entity.ID
	}
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.OrderID
	}
	return ""
}

// PaymentID returns the payment id carried by the event, if any.
func (e *PaymentEvent) PaymentID() string {
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.ID
	}
	return ""
}

// IntentMarker records that a payment intent has been paid.
type IntentMarker interface {
	MarkIntentPaid(ctx context.Context, intentID, paymentID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes the Razorpay payments feed from Kafka.
type KafkaConsumer struct {
	reader   messageReader
	payments IntentMarker
	logger   *logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKafkaConsumer creates a new Kafka-based payments consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, payments IntentMarker, logger *logging.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newConsumer(reader, payments, logger)
}

func newConsumer(reader messageReader, payments IntentMarker, logger *logging.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		payments: payments,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					c.logger.Info("Kafka consumer stopped")
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer. It is safe to call more than once.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("Failed to close Kafka reader", logging.Fields{"error": err.Error()})
		}
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	switch event.Event {
	case PaymentEventCaptured, PaymentEventOrderPaid:
		c.handlePaid(ctx, &event)
	case PaymentEventFailed:
		c.logger.Warn("Payment failed", logging.Fields{
			"intent_id":  event.IntentID(),
			"payment_id": event.PaymentID(),
		})
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Event})
	}
}

func (c *KafkaConsumer) handlePaid(ctx context.Context, event *PaymentEvent) {
	intentID := event.IntentID()
	c.logger.Info("Handling paid event", logging.Fields{
		"event":      event.Event,
		"intent_id":  intentID,
		"payment_id": event.PaymentID(),
	})

	if intentID == "" {
		c.logger.Warn("Paid event without order id", logging.Fields{"event": event.Event})
		return
	}

	if err := c.payments.MarkIntentPaid(ctx, intentID, event.PaymentID()); err != nil {
		c.logger.Error("Failed to mark intent paid", logging.Fields{
			"intent_id": intentID,
			"error":     err.Error(),
		})
	}
}
