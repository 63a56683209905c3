package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

var testAddress = models.Address{
	Name:    "Asha Rao",
	Phone:   "9876543210",
	Street:  "12 MG Road",
	City:    "Bengaluru",
	State:   "KA",
	Pincode: "560001",
	Country: "India",
}

type fixture struct {
	store     *memory.Store
	carts     *CartService
	orders    *OrderService
	lifecycle *LifecycleManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore()
}

func newFixtureWithStore() *fixture {
	st := memory.New()
	return newFixtureWith(st, st, st)
}

func newFixtureWith(st *memory.Store, products ProductRepository, orders OrderRepository) *fixture {
	f := &fixture{
		store:     st,
		carts:     NewCartService(st, products),
		orders:    NewOrderService(products, st, orders, nil, nil, DefaultFeeSchedule()),
		lifecycle: NewLifecycleManager(orders, nil, nil),
	}
	f.orders.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) addProduct(t *testing.T, id, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:            id,
		Name:          "Product " + id,
		ImageURL:      "https://img.example.com/" + id + ".jpg",
		Price:         decimal.RequireFromString(price),
		OriginalPrice: decimal.RequireFromString(price),
		StockQuantity: stock,
		ColorOptions:  []string{},
		SizeOptions:   []string{},
		IsActive:      true,
	}
	require.NoError(t, f.store.UpsertProduct(context.Background(), p))
	return p
}

// seed adds a well-stocked product without a *testing.T, for property tests.
func (f *fixture) seed(id string, price int) {
	_ = f.store.UpsertProduct(context.Background(), &models.Product{
		ID:            id,
		Name:          "Product " + id,
		Price:         decimal.NewFromInt(int64(price)),
		StockQuantity: 1000,
		IsActive:      true,
	})
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) setStock(t *testing.T, id string, stock int) {
	t.Helper()
	p, err := f.store.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	p.StockQuantity = stock
	require.NoError(t, f.store.UpsertProduct(context.Background(), p))
}

func (f *fixture) addToCart(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, &AddItemRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) cartOf(t *testing.T, userID string) *models.Cart {
	t.Helper()
	cart, err := f.carts.GetCart(context.Background(), userID)
	require.NoError(t, err)
	return cart
}

func (f *fixture) checkout(t *testing.T, userID string, method models.PaymentMethod) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), userID, checkoutRequest(method))
	require.NoError(t, err)
	return order
}

func checkoutRequest(method models.PaymentMethod) *CreateOrderRequest {
	return &CreateOrderRequest{ShippingAddress: testAddress, PaymentMethod: method}
}

func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	de, ok := AsError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code, de.Message)
	return de
}

// fakeLocker is an in-process Locker
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
	seq  int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("tok-%d", l.seq)
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *fakeLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// fakeIdempotency is an in-process IdempotencyStore
type fakeIdempotency struct {
	mu   sync.Mutex
	vals map[string]string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{vals: make(map[string]string)}
}

func (f *fakeIdempotency) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vals[key]; ok {
		return false, nil
	}
	f.vals[key] = "pending"
	return true, nil
}

func (f *fakeIdempotency) GetIdempotencyResult(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.vals[key]; v != "pending" {
		return v, nil
	}
	return "", nil
}

func (f *fakeIdempotency) CompleteIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vals[key] == "pending" {
		f.vals[key] = value
	}
	return nil
}

func (f *fakeIdempotency) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vals, key)
	return nil
}

// failingOrders rejects every order insert
type failingOrders struct {
	*memory.Store
}

var errDatabaseDown = errors.New("database down")

func (failingOrders) CreateOrder(ctx context.Context, order *models.Order) error {
	return errDatabaseDown
}

// drainingProducts simulates another buyer taking the last units of one
// product between the stock check and the decrement.
type drainingProducts struct {
	*memory.Store
	drained string
}

func (d drainingProducts) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if productID == d.drained {
		return false, nil
	}
	return d.Store.DecrementStock(ctx, productID, quantity)
}
