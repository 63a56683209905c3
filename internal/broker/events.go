package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is the write side of a Kafka topic
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher publishes order domain events keyed by order ID
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(orderID string) string {
	return "order-" + orderID
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStatusUpdated publishes OrderStatusUpdated event
func (ep *EventPublisher) PublishOrderStatusUpdated(ctx context.Context, event *models.OrderStatusUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishPaymentStatusUpdated publishes PaymentStatusUpdated event
func (ep *EventPublisher) PublishPaymentStatusUpdated(ctx context.Context, event *models.PaymentStatusUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PaymentOutcomeFunc handles a payment outcome reported by the payment provider
type PaymentOutcomeFunc func(context.Context, *models.PaymentOutcomeEvent) error

// EventHandler routes incoming payment events
type EventHandler struct {
	onPaymentSucceeded PaymentOutcomeFunc
	onPaymentFailed    PaymentOutcomeFunc
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Component("event-handler")}
}

// OnPaymentSucceeded registers a handler for PaymentSucceeded events
func (eh *EventHandler) OnPaymentSucceeded(handler PaymentOutcomeFunc) {
	eh.onPaymentSucceeded = handler
}

// OnPaymentFailed registers a handler for PaymentFailed events
func (eh *EventHandler) OnPaymentFailed(handler PaymentOutcomeFunc) {
	eh.onPaymentFailed = handler
}

// HandleMessage routes messages to appropriate handlers. Malformed and
// unknown messages are dropped so they cannot block the partition.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		eh.logger.Error("Dropping malformed event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	var handler PaymentOutcomeFunc
	switch baseEvent.EventType {
	case models.EventTypePaymentSucceeded:
		handler = eh.onPaymentSucceeded
	case models.EventTypePaymentFailed:
		handler = eh.onPaymentFailed
	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
		return nil
	}
	if handler == nil {
		return nil
	}

	var event models.PaymentOutcomeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
	}
	if event.EventID == "" || event.OrderID == "" {
		eh.logger.Error("Dropping payment event without identifiers",
			zap.String("event_type", baseEvent.EventType),
			zap.Int64("offset", msg.Offset))
		return nil
	}
	return handler(ctx, &event)
}
