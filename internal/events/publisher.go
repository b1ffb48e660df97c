package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

var (
	_ service.OrderEventPublisher = (*KafkaPublisher)(nil)
	_ service.OrderEventPublisher = (*LogPublisher)(nil)
	_ service.OrderEventPublisher = (*MockEventPublisher)(nil)
)

// EventType represents the type of storefront event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
	EventTypeIntentPaid         EventType = "intent.paid"
)

// Event is the envelope written to the orders topic. OrderID holds the
// intent id for intent.paid events.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes storefront events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.OrdersTopic,
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.logger.Debug("Publishing order created event", logging.Fields{
		"order_id": order.OrderID,
	})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	event := newEvent(ctx, EventTypeOrderCreated, order.OrderID, order.UserID, data)
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	p.logger.Debug("Publishing order status changed event", logging.Fields{
		"order_id":        order.OrderID,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	payload := struct {
		Order          *models.Order      `json:"order"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := newEvent(ctx, EventTypeOrderStatusChanged, order.OrderID, order.UserID, data)
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order) error {
	p.logger.Debug("Publishing order deleted event", logging.Fields{
		"order_id": order.OrderID,
	})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	event := newEvent(ctx, EventTypeOrderDeleted, order.OrderID, order.UserID, data)
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) PublishIntentPaid(ctx context.Context, intent *models.PaymentIntent) error {
	p.logger.Debug("Publishing intent paid event", logging.Fields{
		"intent_id":  intent.IntentID,
		"payment_id": intent.PaymentID,
	})

	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	event := newEvent(ctx, EventTypeIntentPaid, intent.IntentID, "", data)
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, event *Event) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
		"topic":      p.topic,
	})

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

func newEvent(ctx context.Context, eventType EventType, orderID, userID string, data []byte) *Event {
	event := &Event{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		UserID:    userID,
		Data:      data,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		event.CorrelationID = sc.TraceID().String()
	}

	return event
}

// LogPublisher writes events to the log instead of a broker. It is used when
// no Kafka brokers are configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	logger.Warn("No Kafka brokers configured, events will only be logged")
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.log(ctx, EventTypeOrderCreated, order.OrderID)
	return nil
}

func (p *LogPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	p.log(ctx, EventTypeOrderStatusChanged, order.OrderID)
	return nil
}

func (p *LogPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order) error {
	p.log(ctx, EventTypeOrderDeleted, order.OrderID)
	return nil
}

func (p *LogPublisher) PublishIntentPaid(ctx context.Context, intent *models.PaymentIntent) error {
	p.log(ctx, EventTypeIntentPaid, intent.IntentID)
	return nil
}

func (p *LogPublisher) log(ctx context.Context, eventType EventType, id string) {
	event := newEvent(ctx, eventType, id, "", nil)
	p.logger.Info("Event", logging.Fields{
		"event_id":       event.ID,
		"event_type":     event.Type,
		"order_id":       id,
		"correlation_id": event.CorrelationID,
	})
}

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*Event
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*Event, 0),
	}
}

func (m *MockEventPublisher) record(eventType EventType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, &Event{Type: eventType, OrderID: id})
	return nil
}

func (m *MockEventPublisher) PublishOrderCreated(_ context.Context, order *models.Order) error {
	return m.record(EventTypeOrderCreated, order.OrderID)
}

func (m *MockEventPublisher) PublishOrderStatusChanged(_ context.Context, order *models.Order, _ models.OrderStatus) error {
	return m.record(EventTypeOrderStatusChanged, order.OrderID)
}

func (m *MockEventPublisher) PublishOrderDeleted(_ context.Context, order *models.Order) error {
	return m.record(EventTypeOrderDeleted, order.OrderID)
}

func (m *MockEventPublisher) PublishIntentPaid(_ context.Context, intent *models.PaymentIntent) error {
	return m.record(EventTypeIntentPaid, intent.IntentID)
}

// Types returns the recorded event types in order.
func (m *MockEventPublisher) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Type)
	}
	return out
}
