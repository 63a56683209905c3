package service

import (
	"context"
	"time"

	"storefront-orders/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// eventEmitter fans an order change out to Kafka and live subscribers.
// Both are best effort: failures are logged, never returned.
type eventEmitter struct {
	publisher EventPublisher
	notifier  Notifier
	logger    *zap.Logger
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (e *eventEmitter) orderPlaced(ctx context.Context, order *models.Order) {
	if e.publisher != nil {
		event := &models.OrderPlacedEvent{
			BaseEvent:     newBaseEvent(models.EventTypeOrderPlaced),
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			PaymentMethod: order.PaymentMethod,
			TotalAmount:   order.TotalAmount,
			Items:         order.ItemData(),
		}
		if err := e.publisher.PublishOrderPlaced(ctx, event); err != nil {
			e.logger.Error("Failed to publish OrderPlaced event",
				zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	e.notify(order)
}

func (e *eventEmitter) orderCancelled(ctx context.Context, order *models.Order, skipped []string) {
	if e.publisher != nil {
		event := &models.OrderCancelledEvent{
			BaseEvent:         newBaseEvent(models.EventTypeOrderCancelled),
			OrderID:           order.OrderID,
			UserID:            order.UserID,
			Items:             order.ItemData(),
			SkippedProductIDs: skipped,
		}
		if err := e.publisher.PublishOrderCancelled(ctx, event); err != nil {
			e.logger.Error("Failed to publish OrderCancelled event",
				zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	e.notify(order)
}

func (e *eventEmitter) orderStatusUpdated(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	if e.publisher != nil {
		event := &models.OrderStatusUpdatedEvent{
			BaseEvent:      newBaseEvent(models.EventTypeOrderStatusUpdated),
			OrderID:        order.OrderID,
			UserID:         order.UserID,
			PreviousStatus: previous,
			Status:         order.OrderStatus,
		}
		if err := e.publisher.PublishOrderStatusUpdated(ctx, event); err != nil {
			e.logger.Error("Failed to publish OrderStatusUpdated event",
				zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	e.notify(order)
}

func (e *eventEmitter) paymentStatusUpdated(ctx context.Context, order *models.Order, reason string) {
	if e.publisher != nil {
		event := &models.PaymentStatusUpdatedEvent{
			BaseEvent:     newBaseEvent(models.EventTypePaymentStatusUpdated),
			OrderID:       order.OrderID,
			UserID:        order.UserID,
			PaymentStatus: order.PaymentStatus,
			Reason:        reason,
		}
		if err := e.publisher.PublishPaymentStatusUpdated(ctx, event); err != nil {
			e.logger.Error("Failed to publish PaymentStatusUpdated event",
				zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	e.notify(order)
}

func (e *eventEmitter) notify(order *models.Order) {
	if e.notifier != nil {
		e.notifier.NotifyOrderUpdate(order.Clone())
	}
}
