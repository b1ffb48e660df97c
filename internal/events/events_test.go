package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeMarker struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (m *fakeMarker) MarkIntentPaid(_ context.Context, intentID, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, [2]string{intentID, paymentID})
	return m.err
}

type chanReader struct {
	ch chan kafka.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.ch:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error { return nil }

func testLogger(t *testing.T) *logging.Logger {
	return logging.NewFromZap(zaptest.NewLogger(t), "events-test")
}

func TestKafkaPublisher_OrderCreated(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "orders", logger: testLogger(t)}

	order := &models.Order{OrderID: "o1", UserID: "u1", Status: models.OrderStatusPending}
	require.NoError(t, p.PublishOrderCreated(context.Background(), order))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(EventTypeOrderCreated), string(msg.Headers[0].Value))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeOrderCreated, event.Type)
	assert.Equal(t, "u1", event.UserID)
	assert.Contains(t, event.ID, "evt_")
}

func TestKafkaPublisher_StatusChangedPayload(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "orders", logger: testLogger(t)}

	order := &models.Order{OrderID: "o1", Status: models.OrderStatusShipped}
	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), order, models.OrderStatusPending))

	var event Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))

	var payload struct {
		PreviousStatus string `json:"previous_status"`
		NewStatus      string `json:"new_status"`
	}
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, "Pending", payload.PreviousStatus)
	assert.Equal(t, "Shipped", payload.NewStatus)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w, topic: "orders", logger: testLogger(t)}

	err := p.PublishIntentPaid(context.Background(), &models.PaymentIntent{IntentID: "order_1"})
	assert.EqualError(t, err, "broker down")
}

func TestPaymentEvent_IDs(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		intentID  string
		paymentID string
	}{
		{
			name:      "payment captured",
			body:      `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`,
			intentID:  "order_1",
			paymentID: "pay_1",
		},
		{
			name:      "order paid",
			body:      `{"event":"order.paid","payload":{"order":{"entity":{"id":"order_2"}},"payment":{"entity":{"id":"pay_2","order_id":"order_2"}}}}`,
			intentID:  "order_2",
			paymentID: "pay_2",
		},
		{
			name: "empty payload",
			body: `{"event":"order.paid","payload":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e PaymentEvent
			require.NoError(t, json.Unmarshal([]byte(tt.body), &e))
			assert.Equal(t, tt.intentID, e.IntentID())
			assert.Equal(t, tt.paymentID, e.PaymentID())
		})
	}
}

func TestKafkaConsumer_HandleMessage(t *testing.T) {
	marker := &fakeMarker{}
	c := newConsumer(&chanReader{}, marker, testLogger(t))
	ctx := context.Background()

	c.handleMessage(ctx, kafka.Message{Value: []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)})
	c.handleMessage(ctx, kafka.Message{Value: []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_2"}}}}`)})
	c.handleMessage(ctx, kafka.Message{Value: []byte(`{"event":"refund.created"}`)})
	c.handleMessage(ctx, kafka.Message{Value: []byte(`not json`)})
	c.handleMessage(ctx, kafka.Message{Value: []byte(`{"event":"order.paid","payload":{}}`)})

	assert.Equal(t, [][2]string{{"order_1", "pay_1"}}, marker.calls)
}

func TestKafkaConsumer_StartAndStop(t *testing.T) {
	marker := &fakeMarker{}
	reader := &chanReader{ch: make(chan kafka.Message, 1)}
	c := newConsumer(reader, marker, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	reader.ch <- kafka.Message{Value: []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_9"}}}}`)}

	require.Eventually(t, func() bool {
		marker.mu.Lock()
		defer marker.mu.Unlock()
		return len(marker.calls) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	c.Stop()
	c.Stop()
}

func TestMockEventPublisher(t *testing.T) {
	m := NewMockEventPublisher()
	ctx := context.Background()
	order := &models.Order{OrderID: "o1"}

	require.NoError(t, m.PublishOrderCreated(ctx, order))
	require.NoError(t, m.PublishOrderDeleted(ctx, order))

	assert.Equal(t, []EventType{EventTypeOrderCreated, EventTypeOrderDeleted}, m.Types())
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(testLogger(t))
	assert.NoError(t, p.PublishOrderCreated(context.Background(), &models.Order{OrderID: "o1"}))
}
