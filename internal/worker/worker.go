package worker

import (
	"context"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// PaymentWorker applies payment outcome events from Kafka
type PaymentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, reconciler *service.PaymentReconciler) *PaymentWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentSucceeded(reconciler.HandlePaymentSucceeded)
	eventHandler.OnPaymentFailed(reconciler.HandlePaymentFailed)

	return &PaymentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.Component("payment-worker"),
	}
}

// Start blocks consuming payment events until ctx is cancelled
func (w *PaymentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting payment worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	w.logger.Info("Stopping payment worker")
	return w.consumer.Close()
}
