package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService turns a cart into an order and serves order reads
type OrderService struct {
	products ProductRepository
	carts    CartRepository
	orders   OrderRepository
	stock    *StockAdjuster
	events   *eventEmitter
	fees     FeeSchedule

	locker         Locker
	lockTTL        time.Duration
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration

	now        func() time.Time
	newOrderID func(time.Time) string
	logger     *zap.Logger
}

// NewOrderService creates a new order service. publisher and notifier may be nil.
func NewOrderService(
	products ProductRepository,
	carts CartRepository,
	orders OrderRepository,
	publisher EventPublisher,
	notifier Notifier,
	fees FeeSchedule,
) *OrderService {
	logger := util.Component("checkout")
	return &OrderService{
		products:   products,
		carts:      carts,
		orders:     orders,
		stock:      NewStockAdjuster(products),
		events:     &eventEmitter{publisher: publisher, notifier: notifier, logger: logger},
		fees:       fees,
		now:        time.Now,
		newOrderID: generateOrderID,
		logger:     logger,
	}
}

// UseLocker serialises checkouts per user through l.
func (s *OrderService) UseLocker(l Locker, ttl time.Duration) {
	s.locker = l
	s.lockTTL = ttl
}

// UseIdempotency enables replay detection for keyed checkout requests.
func (s *OrderService) UseIdempotency(st IdempotencyStore, ttl time.Duration) {
	s.idempotency = st
	s.idempotencyTTL = ttl
}

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	ShippingAddress models.Address       `json:"shipping_address"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" binding:"required"`
	IdempotencyKey  string               `json:"idempotency_key,omitempty"`
}

// CreateOrder checks out the user's cart. Either the order exists, stock is
// decremented and the cart is empty, or nothing changed.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder", attribute.String("user_id", userID))
	defer span.End()

	defer func() {
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
			util.RecordError(span, err)
		}
	}()

	if err := validateCheckout(userID, req); err != nil {
		return nil, err
	}

	if key := s.idempotencyKey(userID, req); key != "" {
		replay, err := s.beginIdempotent(ctx, key)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_id", replay.OrderID))
			return replay, nil
		}
		defer func() {
			s.finishIdempotent(ctx, key, order, err)
		}()
	}

	if s.locker != nil {
		lockKey := "checkout:" + userID
		token, ok, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
		}
		if !ok {
			return nil, ErrCheckoutInProgress
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
				s.logger.Warn("Failed to release checkout lock",
					zap.String("user_id", userID), zap.Error(err))
			}
		}()
	}

	order, err = s.placeOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	util.OrdersCreatedTotal.WithLabelValues(string(order.PaymentMethod)).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", userID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	s.events.orderPlaced(ctx, order)

	return order.Clone(), nil
}

func (s *OrderService) placeOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*models.Order, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	products, err := s.resolveProducts(ctx, cart)
	if err != nil {
		return nil, err
	}

	demands := demandsFor(cart, products)
	for _, d := range demands {
		p, ok := products[d.ProductID]
		if !ok || !p.IsActive {
			return nil, insufficientStock(d.ProductID, d.Name, d.Quantity, 0)
		}
		if p.StockQuantity < d.Quantity {
			return nil, insufficientStock(p.ID, p.Name, d.Quantity, p.StockQuantity)
		}
	}

	cart.Recalculate()
	charges := s.fees.Quote(cart.TotalAmount, req.PaymentMethod)
	now := s.now()

	items := make([]models.OrderItem, 0, len(cart.Items))
	for i, line := range cart.Items {
		p := products[line.ProductID]
		items = append(items, models.OrderItem{
			ProductID:     line.ProductID,
			Name:          p.Name,
			ImageURL:      p.ImageURL,
			Quantity:      line.Quantity,
			Price:         line.PriceAtTime,
			SelectedColor: line.SelectedColor,
			SelectedSize:  line.SelectedSize,
			Position:      i,
		})
	}

	order := &models.Order{
		OrderID:               s.newOrderID(now),
		UserID:                userID,
		Items:                 items,
		ShippingAddress:       req.ShippingAddress.Trimmed(),
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         models.PaymentStatusPending,
		OrderStatus:           models.OrderStatusPlaced,
		EstimatedDeliveryDate: s.fees.EstimatedDelivery(now),
		Subtotal:              charges.Subtotal,
		CODFee:                charges.CODFee,
		ShippingFee:           charges.ShippingFee,
		TotalAmount:           charges.Total,
		CreatedAt:             now.UTC(),
		UpdatedAt:             now.UTC(),
	}

	if err := s.stock.DecrementAll(ctx, demands); err != nil {
		return nil, err
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.stock.Restore(ctx, demands)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("order_id", order.OrderID),
			zap.String("user_id", userID),
			zap.Error(err))
	}

	return order, nil
}

func (s *OrderService) resolveProducts(ctx context.Context, cart *models.Cart) (map[string]*models.Product, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	list, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products := make(map[string]*models.Product, len(list))
	for i := range list {
		products[list[i].ID] = &list[i]
	}
	return products, nil
}

// ConfirmPayment marks a pending order paid and empties the owner's cart.
// Confirming an already paid order succeeds without change.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, userID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmPayment", attribute.String("order_id", orderID))
	defer span.End()

	order, err := loadOwnedOrder(ctx, s.orders, orderID, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	if order.OrderStatus == models.OrderStatusCancelled {
		return nil, invalidTransition("order %s is cancelled", orderID)
	}

	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
		s.clearCartQuietly(ctx, userID)
		return order, nil
	case models.PaymentStatusFailed:
		return nil, invalidTransition("payment for order %s has failed", orderID)
	}

	ok, err := s.orders.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusPaid,
		[]models.PaymentStatus{models.PaymentStatusPending})
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if !ok {
		current, err := s.orders.GetOrderByOrderID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload order: %w", err)
		}
		if current.PaymentStatus == models.PaymentStatusPaid {
			s.clearCartQuietly(ctx, userID)
			return current, nil
		}
		return nil, invalidTransition("payment for order %s is %s", orderID, current.PaymentStatus)
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.UpdatedAt = s.now().UTC()
	s.clearCartQuietly(ctx, userID)

	util.PaymentsConfirmedTotal.Inc()
	s.logger.Info("Payment confirmed", zap.String("order_id", orderID))
	s.events.paymentStatusUpdated(ctx, order, "")

	return order, nil
}

// GetOrderByID returns an order owned by userID. Orders owned by someone
// else are reported as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID, userID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderByID", attribute.String("order_id", orderID))
	defer span.End()

	order, err := loadOwnedOrder(ctx, s.orders, orderID, userID)
	if errors.Is(err, ErrAccessDenied) {
		return nil, notFound("order %s not found", orderID)
	}
	return order, err
}

// GetUserOrders returns the user's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetUserOrders", attribute.String("user_id", userID))
	defer span.End()

	orders, err := s.orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) clearCartQuietly(ctx context.Context, userID string) {
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Warn("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *OrderService) idempotencyKey(userID string, req *CreateOrderRequest) string {
	if s.idempotency == nil || req.IdempotencyKey == "" {
		return ""
	}
	return userID + ":" + req.IdempotencyKey
}

// beginIdempotent reserves key. It returns the earlier order when the
// request already completed.
func (s *OrderService) beginIdempotent(ctx context.Context, key string) (*models.Order, error) {
	reserved, err := s.idempotency.ReserveIdempotencyKey(ctx, key, s.idempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}

	orderID, err := s.idempotency.GetIdempotencyResult(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if orderID == "" {
		return nil, ErrCheckoutInProgress
	}

	order, err := s.orders.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replayed order %s: %w", orderID, err)
	}
	return order, nil
}

func (s *OrderService) finishIdempotent(ctx context.Context, key string, order *models.Order, err error) {
	ctx = context.WithoutCancel(ctx)
	if err != nil || order == nil {
		if rerr := s.idempotency.ReleaseIdempotencyKey(ctx, key); rerr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(rerr))
		}
		return
	}
	if cerr := s.idempotency.CompleteIdempotencyKey(ctx, key, order.OrderID, s.idempotencyTTL); cerr != nil {
		s.logger.Warn("Failed to record idempotency result",
			zap.String("key", key),
			zap.String("order_id", order.OrderID),
			zap.Error(cerr))
	}
}

func validateCheckout(userID string, req *CreateOrderRequest) error {
	if userID == "" {
		return accessDenied("user is required")
	}
	if field := req.ShippingAddress.MissingField(); field != "" {
		return validationError("shipping_address."+field, "shipping address %s is required", field)
	}
	if !req.PaymentMethod.Valid() {
		return validationError("payment_method", "unsupported payment method %q", req.PaymentMethod)
	}
	return nil
}

// loadOwnedOrder fetches an order and checks that userID owns it.
func loadOwnedOrder(ctx context.Context, orders OrderRepository, orderID, userID string) (*models.Order, error) {
	order, err := orders.GetOrderByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, accessDenied("order %s belongs to another user", orderID)
	}
	return order, nil
}

func generateOrderID(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:5])
	return fmt.Sprintf("ORD%d%s", t.UnixMilli(), suffix)
}

func failureReason(err error) string {
	de, ok := AsError(err)
	if !ok {
		return "internal"
	}
	return strings.ToLower(string(de.Code))
}
