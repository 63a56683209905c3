package service

import (
	"context"
	"time"

	"storefront-orders/internal/models"
)

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks storefront-orders/internal/service EventPublisher,Notifier

// ProductRepository reads products and adjusts stock
type ProductRepository interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	// DecrementStock subtracts quantity only if at least quantity remains.
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
	// IncrementStock returns false if the product no longer exists.
	IncrementStock(ctx context.Context, productID string, quantity int) (bool, error)
}

// CartRepository persists carts. SaveCart recomputes totals.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	ClearCart(ctx context.Context, userID string) error
}

// OrderRepository persists the order ledger
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, from []models.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus, from []models.PaymentStatus) (bool, error)
	// CancelOrder sets cancelled and restocks every line atomically.
	CancelOrder(ctx context.Context, orderID string, from []models.OrderStatus) (skipped []string, ok bool, err error)
}

// ProcessedEventStore de-duplicates consumed events
type ProcessedEventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventPublisher emits order domain events
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishOrderStatusUpdated(ctx context.Context, event *models.OrderStatusUpdatedEvent) error
	PublishPaymentStatusUpdated(ctx context.Context, event *models.PaymentStatusUpdatedEvent) error
}

// Notifier pushes order changes to the owner's live subscribers
type Notifier interface {
	NotifyOrderUpdate(order *models.Order)
}

// Locker serialises checkouts per user
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, lockKey, token string) error
}

// IdempotencyStore remembers the result of a keyed checkout request
type IdempotencyStore interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	GetIdempotencyResult(ctx context.Context, key string) (string, error)
	CompleteIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}
