package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LifecycleManager moves orders through their fulfillment and payment
// state machines after checkout.
type LifecycleManager struct {
	orders OrderRepository
	events *eventEmitter
	now    func() time.Time
	logger *zap.Logger
}

// NewLifecycleManager creates a new lifecycle manager. publisher and notifier may be nil.
func NewLifecycleManager(orders OrderRepository, publisher EventPublisher, notifier Notifier) *LifecycleManager {
	logger := util.Component("lifecycle")
	return &LifecycleManager{
		orders: orders,
		events: &eventEmitter{publisher: publisher, notifier: notifier, logger: logger},
		now:    time.Now,
		logger: logger,
	}
}

// CancelOrder cancels a placed or confirmed order owned by userID and
// returns every line's quantity to stock in the same transaction.
func (m *LifecycleManager) CancelOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.CancelOrder", attribute.String("order_id", orderID))
	defer span.End()

	order, err := loadOwnedOrder(ctx, m.orders, orderID, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	if !order.OrderStatus.Cancellable() {
		return nil, invalidTransition("cannot cancel order %s in status %s", orderID, order.OrderStatus)
	}

	skipped, ok, err := m.orders.CancelOrder(ctx, orderID, models.CancellableStatuses)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !ok {
		// Lost a race with another cancel or a status update.
		status := order.OrderStatus
		if current, err := m.orders.GetOrderByOrderID(ctx, orderID); err == nil {
			status = current.OrderStatus
		}
		return nil, invalidTransition("cannot cancel order %s in status %s", orderID, status)
	}

	if len(skipped) > 0 {
		util.RestockSkippedTotal.Add(float64(len(skipped)))
		m.logger.Warn("Restock skipped for deleted products",
			zap.String("order_id", orderID),
			zap.Strings("product_ids", skipped))
	}

	order.OrderStatus = models.OrderStatusCancelled
	order.UpdatedAt = m.now().UTC()

	util.OrdersCancelledTotal.Inc()
	m.logger.Info("Order cancelled", zap.String("order_id", orderID))
	m.events.orderCancelled(ctx, order, skipped)

	return order, nil
}

// UpdateOrderStatus sets a fulfillment status. It is an administrative
// write: any status may follow any other, except that cancellation only
// happens through CancelOrder and a cancelled order stays cancelled.
func (m *LifecycleManager) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.UpdateOrderStatus",
		attribute.String("order_id", orderID),
		attribute.String("status", string(status)))
	defer span.End()

	if !status.Valid() {
		return nil, validationError("status", "unknown order status %q", status)
	}
	if status == models.OrderStatusCancelled {
		return nil, invalidTransition("use cancel to cancel order %s", orderID)
	}

	order, err := m.orders.GetOrderByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("order %s not found", orderID)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.OrderStatus == models.OrderStatusCancelled {
		return nil, invalidTransition("order %s is cancelled", orderID)
	}

	ok, err := m.orders.UpdateOrderStatus(ctx, orderID, status, activeStatuses())
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		return nil, invalidTransition("order %s is cancelled", orderID)
	}

	previous := order.OrderStatus
	order.OrderStatus = status
	order.UpdatedAt = m.now().UTC()

	util.OrderStatusUpdatesTotal.WithLabelValues(string(status)).Inc()
	m.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	m.events.orderStatusUpdated(ctx, order, previous)

	return order, nil
}

// MarkPaymentFailed records a failed payment for a pending order. Repeating
// it for an already failed payment is a no-op.
func (m *LifecycleManager) MarkPaymentFailed(ctx context.Context, orderID, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.MarkPaymentFailed", attribute.String("order_id", orderID))
	defer span.End()

	order, err := m.orders.GetOrderByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("order %s not found", orderID)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	switch order.PaymentStatus {
	case models.PaymentStatusFailed:
		return order, nil
	case models.PaymentStatusPaid:
		return nil, invalidTransition("payment for order %s is already paid", orderID)
	}

	ok, err := m.orders.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusFailed,
		[]models.PaymentStatus{models.PaymentStatusPending})
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if !ok {
		return nil, invalidTransition("payment for order %s is no longer pending", orderID)
	}

	order.PaymentStatus = models.PaymentStatusFailed
	order.UpdatedAt = m.now().UTC()

	util.PaymentsFailedTotal.Inc()
	m.logger.Warn("Payment failed",
		zap.String("order_id", orderID),
		zap.String("reason", reason))
	m.events.paymentStatusUpdated(ctx, order, reason)

	return order, nil
}

func activeStatuses() []models.OrderStatus {
	active := make([]models.OrderStatus, 0, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		if st != models.OrderStatusCancelled {
			active = append(active, st)
		}
	}
	return active
}
