package service

import (
	"context"
	"errors"
	"testing"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemandsForSumsVariants(t *testing.T) {
	cart := &models.Cart{Items: []models.CartItem{
		{ProductID: "b", Quantity: 1, SelectedSize: "M"},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3, SelectedSize: "L"},
	}}
	products := map[string]*models.Product{"b": {ID: "b", Name: "Bee"}}

	demands := demandsFor(cart, products)
	assert.Equal(t, []StockDemand{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Name: "Bee", Quantity: 4},
	}, demands)
}

// flakyProducts fails the decrement of one product with a storage error
type flakyProducts struct {
	*memory.Store
	broken string
}

func (f flakyProducts) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if productID == f.broken {
		return false, errDatabaseDown
	}
	return f.Store.DecrementStock(ctx, productID, quantity)
}

func TestDecrementAllRestoresOnStorageError(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "10", 4)
	f.addProduct(t, "b", "10", 4)
	adjuster := NewStockAdjuster(flakyProducts{Store: f.store, broken: "b"})

	err := adjuster.DecrementAll(context.Background(), []StockDemand{
		{ProductID: "a", Quantity: 3},
		{ProductID: "b", Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDatabaseDown))
	assert.Equal(t, 4, f.stockOf(t, "a"))
}

func TestRestoreSurvivesCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "10", 1)
	adjuster := NewStockAdjuster(f.store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	adjuster.Restore(ctx, []StockDemand{{ProductID: "a", Quantity: 2}, {ProductID: "gone", Quantity: 1}})

	assert.Equal(t, 3, f.stockOf(t, "a"))
}
