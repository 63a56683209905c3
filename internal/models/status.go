package models

// PaymentMethod is how the customer pays
type PaymentMethod string

// Payment methods
const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCard   PaymentMethod = "card"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodOnline, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentStatus tracks the payment of an order
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// OrderStatus tracks fulfillment of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusAtWarehouse    OrderStatus = "at_warehouse"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every order status in fulfillment order.
var OrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusAtWarehouse,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// CancellableStatuses are the statuses from which an order may be cancelled.
var CancellableStatuses = []OrderStatus{OrderStatusPlaced, OrderStatusConfirmed}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in status s can still be cancelled.
func (s OrderStatus) Cancellable() bool {
	for _, c := range CancellableStatuses {
		if s == c {
			return true
		}
	}
	return false
}
