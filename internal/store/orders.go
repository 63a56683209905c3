package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CreateOrder inserts an order and its lines in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_id, user_id, shipping_address, payment_method, payment_status, order_status,
			estimated_delivery_date, subtotal, cod_fee, shipping_fee, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, order, query,
		order.OrderID, order.UserID, order.ShippingAddress, order.PaymentMethod, order.PaymentStatus,
		order.OrderStatus, order.EstimatedDeliveryDate, order.Subtotal, order.CODFee, order.ShippingFee,
		order.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.OrderID
		item.Position = i
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, name, image_url, quantity, price,
				selected_color, selected_size, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Name, item.ImageURL, item.Quantity, item.Price,
			item.SelectedColor, item.SelectedSize, item.Position)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByOrderID retrieves an order by its public identifier
func (s *Store) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &order.Items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY position", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &order, nil
}

// GetOrdersByUserID retrieves a user's orders, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].OrderID
		index[orders[i].OrderID] = i
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?) ORDER BY order_id, position", ids)
	if err != nil {
		return nil, err
	}

	var items []models.OrderItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, nil
}

// UpdateOrderStatus sets order_status if the current status is one of from.
// Returns false when the order is missing or in another status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, from []models.OrderStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET order_status = $1, updated_at = NOW() WHERE order_id = $2 AND order_status = ANY($3)",
		status, orderID, pq.Array(orderStatusStrings(from)))
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return affectedOne(res)
}

// UpdatePaymentStatus sets payment_status if the current status is one of from
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus, from []models.PaymentStatus) (bool, error) {
	current := make([]string, len(from))
	for i, st := range from {
		current[i] = string(st)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE order_id = $2 AND payment_status = ANY($3)",
		status, orderID, pq.Array(current))
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	return affectedOne(res)
}

// CancelOrder flips the order to cancelled and restocks every line in one
// transaction. ok is false when the order was not in one of from, in which
// case nothing changes. skipped lists products that no longer exist.
func (s *Store) CancelOrder(ctx context.Context, orderID string, from []models.OrderStatus) (skipped []string, ok bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET order_status = $1, updated_at = NOW() WHERE order_id = $2 AND order_status = ANY($3)",
		models.OrderStatusCancelled, orderID, pq.Array(orderStatusStrings(from)))
	if err != nil {
		return nil, false, fmt.Errorf("failed to cancel order: %w", err)
	}
	if ok, err = affectedOne(res); err != nil || !ok {
		return nil, false, err
	}

	var lines []models.OrderItem
	if err := tx.SelectContext(ctx, &lines,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY position", orderID); err != nil {
		return nil, false, fmt.Errorf("failed to load order items: %w", err)
	}

	for _, line := range lines {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2",
			line.Quantity, line.ProductID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to restock product %s: %w", line.ProductID, err)
		}
		restocked, err := affectedOne(res)
		if err != nil {
			return nil, false, err
		}
		if !restocked {
			skipped = append(skipped, line.ProductID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return skipped, true, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

func orderStatusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
