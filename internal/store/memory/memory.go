// Package memory is an in-process implementation of the store used by tests
// and by STORE_DRIVER=memory for local runs. All methods are safe for
// concurrent use; every read returns a copy.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
)

type Store struct {
	mu        sync.Mutex
	products  map[string]models.Product
	carts     map[string]*models.Cart
	orders    map[string]*models.Order
	processed map[string]string
	nextID    int64
	now       func() time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]models.Product),
		carts:     make(map[string]*models.Cart),
		orders:    make(map[string]*models.Order),
		processed: make(map[string]string),
		now:       time.Now,
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// UpsertProduct inserts or replaces a product
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.products[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return nil
}

// DeleteProduct removes a product outright
func (s *Store) DeleteProduct(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = s.now()
	s.products[productID] = p
	return true, nil
}

func (s *Store) IncrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(productID, quantity), nil
}

func (s *Store) incrementLocked(productID string, quantity int) bool {
	p, ok := s.products[productID]
	if !ok {
		return false
	}
	p.StockQuantity += quantity
	p.UpdatedAt = s.now()
	s.products[productID] = p
	return true
}

func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil, fmt.Errorf("cart for user %s: %w", userID, store.ErrNotFound)
	}
	return cart.Clone(), nil
}

func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart.Recalculate()
	now := s.now()
	if existing, ok := s.carts[cart.UserID]; ok {
		cart.CreatedAt = existing.CreatedAt
	} else {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	for i := range cart.Items {
		cart.Items[i].UserID = cart.UserID
		cart.Items[i].Position = i
	}

	stored := cart.Clone()
	for i := range stored.Items {
		stored.Items[i].Product = nil
	}
	s.carts[cart.UserID] = stored
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil
	}
	cart.Items = nil
	cart.Recalculate()
	cart.UpdatedAt = s.now()
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}

	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.OrderID
		order.Items[i].Position = i
		order.Items[i].ID = int64(i + 1)
	}
	s.orders[order.OrderID] = order.Clone()
	return nil
}

func (s *Store) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, store.ErrNotFound)
	}
	return o.Clone(), nil
}

func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, from []models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || !containsOrderStatus(from, o.OrderStatus) {
		return false, nil
	}
	o.OrderStatus = status
	o.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus, from []models.PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, st := range from {
		if o.PaymentStatus == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	o.PaymentStatus = status
	o.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) CancelOrder(ctx context.Context, orderID string, from []models.OrderStatus) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || !containsOrderStatus(from, o.OrderStatus) {
		return nil, false, nil
	}

	o.OrderStatus = models.OrderStatusCancelled
	o.UpdatedAt = s.now()

	var skipped []string
	for _, item := range o.Items {
		if !s.incrementLocked(item.ProductID, item.Quantity) {
			skipped = append(skipped, item.ProductID)
		}
	}
	return skipped, true, nil
}

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[eventID]
	return ok, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processed[eventID]; !ok {
		s.processed[eventID] = eventType
	}
	return nil
}

func containsOrderStatus(statuses []models.OrderStatus, st models.OrderStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}
