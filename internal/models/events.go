package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced          = "ORDER_PLACED"
	EventTypeOrderCancelled       = "ORDER_CANCELLED"
	EventTypeOrderStatusUpdated   = "ORDER_STATUS_UPDATED"
	EventTypePaymentStatusUpdated = "PAYMENT_STATUS_UPDATED"
	EventTypePaymentSucceeded     = "PAYMENT_SUCCEEDED"
	EventTypePaymentFailed        = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when checkout commits an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []OrderItemData `json:"items"`
}

// OrderCancelledEvent published when an order is cancelled and restocked
type OrderCancelledEvent struct {
	BaseEvent
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	Items             []OrderItemData `json:"items"`
	SkippedProductIDs []string        `json:"skipped_product_ids,omitempty"`
}

// OrderStatusUpdatedEvent published on administrative status changes
type OrderStatusUpdatedEvent struct {
	BaseEvent
	OrderID        string      `json:"order_id"`
	UserID         string      `json:"user_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	Status         OrderStatus `json:"status"`
}

// PaymentStatusUpdatedEvent published when payment is confirmed or rejected
type PaymentStatusUpdatedEvent struct {
	BaseEvent
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reason        string        `json:"reason,omitempty"`
}

// PaymentOutcomeEvent is reported by the external payment collaborator
type PaymentOutcomeEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason,omitempty"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ItemData flattens the order lines for event payloads.
func (o *Order) ItemData() []OrderItemData {
	items := make([]OrderItemData, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	return items
}
