package service

import (
	"context"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// PaymentReconciler applies payment outcomes reported by the external
// payment collaborator. Each event is applied at most once.
type PaymentReconciler struct {
	events    ProcessedEventStore
	checkout  *OrderService
	lifecycle *LifecycleManager
	logger    *zap.Logger
}

// NewPaymentReconciler creates a new payment reconciler
func NewPaymentReconciler(events ProcessedEventStore, checkout *OrderService, lifecycle *LifecycleManager) *PaymentReconciler {
	return &PaymentReconciler{
		events:    events,
		checkout:  checkout,
		lifecycle: lifecycle,
		logger:    util.Component("payments"),
	}
}

// HandlePaymentSucceeded confirms the payment of the event's order
func (r *PaymentReconciler) HandlePaymentSucceeded(ctx context.Context, event *models.PaymentOutcomeEvent) error {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.HandlePaymentSucceeded")
	defer span.End()

	return r.apply(ctx, event, func(ctx context.Context) error {
		_, err := r.checkout.ConfirmPayment(ctx, event.OrderID, event.UserID)
		return err
	})
}

// HandlePaymentFailed marks the payment of the event's order as failed
func (r *PaymentReconciler) HandlePaymentFailed(ctx context.Context, event *models.PaymentOutcomeEvent) error {
	ctx, span := util.StartSpan(ctx, "PaymentReconciler.HandlePaymentFailed")
	defer span.End()

	return r.apply(ctx, event, func(ctx context.Context) error {
		_, err := r.lifecycle.MarkPaymentFailed(ctx, event.OrderID, event.Reason)
		return err
	})
}

// apply runs fn once per event ID. Domain rejections are logged and the
// event is recorded as handled; anything else is returned so the message
// is redelivered.
func (r *PaymentReconciler) apply(ctx context.Context, event *models.PaymentOutcomeEvent, fn func(context.Context) error) error {
	processed, err := r.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		r.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := fn(ctx); err != nil {
		de, ok := AsError(err)
		if !ok {
			return err
		}
		r.logger.Warn("Payment event rejected",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.String("code", string(de.Code)),
			zap.String("message", de.Message))
	}

	if err := r.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
