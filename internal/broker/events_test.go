package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront-orders/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	key   string
	value []byte
}

type fakeProducer struct {
	messages []recordedMessage
	err      error
}

func (f *fakeProducer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	if f.err != nil {
		return f.err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f.messages = append(f.messages, recordedMessage{key: key, value: value})
	return nil
}

func TestPublisherKeysByOrder(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewEventPublisher(producer)
	ctx := context.Background()

	require.NoError(t, publisher.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
		BaseEvent:     models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPlaced},
		OrderID:       "ORD1",
		UserID:        "u1",
		PaymentMethod: models.PaymentMethodCOD,
		TotalAmount:   decimal.RequireFromString("275.50"),
		Items:         []models.OrderItemData{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(100)}},
	}))
	require.NoError(t, publisher.PublishOrderCancelled(ctx, &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeOrderCancelled},
		OrderID:   "ORD1",
	}))
	require.NoError(t, publisher.PublishOrderStatusUpdated(ctx, &models.OrderStatusUpdatedEvent{
		BaseEvent: models.BaseEvent{EventID: "e3", EventType: models.EventTypeOrderStatusUpdated},
		OrderID:   "ORD1",
		Status:    models.OrderStatusShipped,
	}))
	require.NoError(t, publisher.PublishPaymentStatusUpdated(ctx, &models.PaymentStatusUpdatedEvent{
		BaseEvent:     models.BaseEvent{EventID: "e4", EventType: models.EventTypePaymentStatusUpdated},
		OrderID:       "ORD1",
		PaymentStatus: models.PaymentStatusPaid,
	}))

	require.Len(t, producer.messages, 4)
	for _, msg := range producer.messages {
		assert.Equal(t, "order-ORD1", msg.key)
	}

	var placed map[string]interface{}
	require.NoError(t, json.Unmarshal(producer.messages[0].value, &placed))
	assert.Equal(t, models.EventTypeOrderPlaced, placed["event_type"])
	assert.Equal(t, 275.5, placed["total_amount"], "amounts travel as JSON numbers")
	assert.Equal(t, "cod", placed["payment_method"])
}

func TestPublisherReturnsProducerError(t *testing.T) {
	publisher := NewEventPublisher(&fakeProducer{err: errors.New("broker down")})
	err := publisher.PublishOrderPlaced(context.Background(), &models.OrderPlacedEvent{OrderID: "ORD1"})
	assert.EqualError(t, err, "broker down")
}

func paymentMessage(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRoutesPaymentOutcomes(t *testing.T) {
	var succeeded, failed []*models.PaymentOutcomeEvent
	handler := NewEventHandler()
	handler.OnPaymentSucceeded(func(ctx context.Context, e *models.PaymentOutcomeEvent) error {
		succeeded = append(succeeded, e)
		return nil
	})
	handler.OnPaymentFailed(func(ctx context.Context, e *models.PaymentOutcomeEvent) error {
		failed = append(failed, e)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, handler.HandleMessage(ctx, paymentMessage(t, models.PaymentOutcomeEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypePaymentSucceeded},
		OrderID:   "ORD1",
		UserID:    "u1",
	})))
	require.NoError(t, handler.HandleMessage(ctx, paymentMessage(t, models.PaymentOutcomeEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypePaymentFailed},
		OrderID:   "ORD2",
		Reason:    "card declined",
	})))

	require.Len(t, succeeded, 1)
	assert.Equal(t, "ORD1", succeeded[0].OrderID)
	assert.Equal(t, "u1", succeeded[0].UserID)
	require.Len(t, failed, 1)
	assert.Equal(t, "card declined", failed[0].Reason)
}

func TestHandleMessageDropsUnusableMessages(t *testing.T) {
	calls := 0
	handler := NewEventHandler()
	handler.OnPaymentSucceeded(func(ctx context.Context, e *models.PaymentOutcomeEvent) error {
		calls++
		return nil
	})
	ctx := context.Background()

	tests := []struct {
		name string
		msg  kafka.Message
	}{
		{"malformed json", kafka.Message{Value: []byte("{not json")}},
		{"unknown type", paymentMessage(t, models.BaseEvent{EventID: "e1", EventType: "SOMETHING_ELSE"})},
		{"missing order id", paymentMessage(t, models.PaymentOutcomeEvent{
			BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypePaymentSucceeded},
		})},
		{"missing event id", paymentMessage(t, models.PaymentOutcomeEvent{
			BaseEvent: models.BaseEvent{EventType: models.EventTypePaymentSucceeded},
			OrderID:   "ORD1",
		})},
		{"no handler registered", paymentMessage(t, models.PaymentOutcomeEvent{
			BaseEvent: models.BaseEvent{EventID: "e3", EventType: models.EventTypePaymentFailed},
			OrderID:   "ORD1",
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, handler.HandleMessage(ctx, tt.msg))
		})
	}
	assert.Zero(t, calls)
}

func TestHandleMessagePropagatesHandlerError(t *testing.T) {
	boom := errors.New("database down")
	handler := NewEventHandler()
	handler.OnPaymentFailed(func(ctx context.Context, e *models.PaymentOutcomeEvent) error {
		return boom
	})

	err := handler.HandleMessage(context.Background(), paymentMessage(t, models.PaymentOutcomeEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypePaymentFailed},
		OrderID:   "ORD1",
	}))
	assert.ErrorIs(t, err, boom)
}
