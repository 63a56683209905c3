package memory

import (
	"context"
	"sync"
	"testing"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, stock int) *models.Product {
	return &models.Product{ID: id, Name: id, Price: decimal.NewFromInt(10), StockQuantity: stock, IsActive: true}
}

func TestStockIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.UpsertProduct(ctx, product("p", 2)))

	ok, err := s.DecrementStock(ctx, "p", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DecrementStock(ctx, "p", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DecrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IncrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := s.GetProductByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestConcurrentDecrement(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.UpsertProduct(ctx, product("p", 50)))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		n  int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.DecrementStock(ctx, "p", 1); ok {
				mu.Lock()
				n++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, n)
	p, err := s.GetProductByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveCart(ctx, &models.Cart{
		UserID: "u1",
		Items:  []models.CartItem{{ID: "l1", ProductID: "p", Quantity: 1, PriceAtTime: decimal.NewFromInt(10)}},
	}))

	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	cart.Items[0].Quantity = 99

	cart, err = s.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, 1, cart.TotalItems)

	order := &models.Order{OrderID: "ORD1", UserID: "u1", Items: []models.OrderItem{{ProductID: "p", Quantity: 1}}}
	require.NoError(t, s.CreateOrder(ctx, order))
	order.Items[0].Quantity = 7

	stored, err := s.GetOrderByOrderID(ctx, "ORD1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].Quantity)
}

func TestMissingRowsAreNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetProductByID(ctx, "p")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetOrderByOrderID(ctx, "ORD1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, s.ClearCart(ctx, "u1"))
	_, err = s.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound, "clearing a missing cart does not create one")
}

func TestCreateOrderRejectsDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, &models.Order{OrderID: "ORD1", UserID: "u1"}))
	assert.Error(t, s.CreateOrder(ctx, &models.Order{OrderID: "ORD1", UserID: "u2"}))
}

func TestCancelOrderRestocksOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.UpsertProduct(ctx, product("p", 0)))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{
		OrderID:     "ORD1",
		UserID:      "u1",
		OrderStatus: models.OrderStatusPlaced,
		Items: []models.OrderItem{
			{ProductID: "p", Quantity: 3},
			{ProductID: "gone", Quantity: 1},
		},
	}))

	skipped, ok, err := s.CancelOrder(ctx, "ORD1", models.CancellableStatuses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"gone"}, skipped)

	_, ok, err = s.CancelOrder(ctx, "ORD1", models.CancellableStatuses)
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := s.GetProductByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockQuantity)
}

func TestConditionalPaymentStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, &models.Order{
		OrderID: "ORD1", UserID: "u1", PaymentStatus: models.PaymentStatusPending,
	}))

	pending := []models.PaymentStatus{models.PaymentStatusPending}
	ok, err := s.UpdatePaymentStatus(ctx, "ORD1", models.PaymentStatusPaid, pending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdatePaymentStatus(ctx, "ORD1", models.PaymentStatusFailed, pending)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdatePaymentStatus(ctx, "ORD404", models.PaymentStatusPaid, pending)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessedEvents(t *testing.T) {
	s := New()
	ctx := context.Background()

	done, err := s.IsEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkEventProcessed(ctx, "e1", models.EventTypePaymentFailed))
	done, err = s.IsEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, done)
}
