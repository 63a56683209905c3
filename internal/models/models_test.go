package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRecalculate(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: "a", Quantity: 2, PriceAtTime: decimal.RequireFromString("19.99")},
		{ProductID: "b", Quantity: 1, PriceAtTime: decimal.NewFromInt(100)},
	}}
	cart.Recalculate()
	assert.Equal(t, "139.98", cart.TotalAmount.String())
	assert.Equal(t, 3, cart.TotalItems)

	cart.Items = nil
	cart.Recalculate()
	assert.True(t, cart.TotalAmount.IsZero())
	assert.Zero(t, cart.TotalItems)
	assert.True(t, cart.IsEmpty())
}

func TestCartItemMatchesVariant(t *testing.T) {
	item := CartItem{ProductID: "p", SelectedColor: "Red", SelectedSize: "M"}
	assert.True(t, item.Matches("p", "Red", "M"))
	assert.False(t, item.Matches("p", "Red", "L"))
	assert.False(t, item.Matches("p", "", "M"))
	assert.False(t, item.Matches("q", "Red", "M"))
}

func TestProductOptions(t *testing.T) {
	p := &Product{ColorOptions: []string{"Red", "Blue"}}
	assert.True(t, p.OffersColor("red"))
	assert.True(t, p.OffersColor(""))
	assert.False(t, p.OffersColor("Green"))
	assert.True(t, p.OffersSize("XL"), "no declared sizes accepts any size")
}

func TestAddressMissingFieldAndTrim(t *testing.T) {
	a := Address{Name: " Asha ", Phone: "1", Street: "s", City: "c", State: "st", Pincode: "p", Country: "IN"}
	assert.Empty(t, a.MissingField())
	assert.Equal(t, "Asha", a.Trimmed().Name)

	a.Pincode = "  "
	assert.Equal(t, "pincode", a.MissingField())
	assert.Equal(t, "name", Address{}.MissingField())
}

func TestAddressColumnRoundTrip(t *testing.T) {
	a := Address{Name: "Asha", City: "Bengaluru", Country: "India"}
	v, err := a.Value()
	require.NoError(t, err)
	s, ok := v.(string)
	require.True(t, ok, "JSONB is written as text")

	var fromString, fromBytes, fromNull Address
	require.NoError(t, fromString.Scan(s))
	require.NoError(t, fromBytes.Scan([]byte(s)))
	require.NoError(t, fromNull.Scan(nil))
	assert.Equal(t, a, fromString)
	assert.Equal(t, a, fromBytes)
	assert.Equal(t, Address{}, fromNull)

	assert.Error(t, fromNull.Scan(42))
}

func TestOrderCloneDoesNotShareItems(t *testing.T) {
	o := &Order{OrderID: "ORD1", Items: []OrderItem{{ProductID: "p", Quantity: 1}}}
	cp := o.Clone()
	cp.Items[0].Quantity = 5
	cp.OrderStatus = OrderStatusShipped

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Empty(t, o.OrderStatus)
	assert.Nil(t, (*Order)(nil).Clone())
}

func TestItemData(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{ProductID: "p", Quantity: 2, Price: decimal.NewFromInt(100)},
		{ProductID: "q", Quantity: 1, Price: decimal.RequireFromString("9.50")},
	}}
	data := o.ItemData()
	require.Len(t, data, 2)
	assert.Equal(t, OrderItemData{ProductID: "p", Quantity: 2, UnitPrice: decimal.NewFromInt(100)}, data[0])
	assert.Equal(t, "9.5", data[1].UnitPrice.String())
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	raw, err := json.Marshal(Order{TotalAmount: decimal.RequireFromString("275.50")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"total_amount":275.5`)
}

func TestStatuses(t *testing.T) {
	assert.True(t, PaymentMethodCOD.Valid())
	assert.False(t, PaymentMethod("cash").Valid())
	assert.True(t, PaymentStatusFailed.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())

	for _, st := range OrderStatuses {
		assert.True(t, st.Valid(), st)
	}
	assert.False(t, OrderStatus("lost").Valid())

	assert.True(t, OrderStatusPlaced.Cancellable())
	assert.True(t, OrderStatusConfirmed.Cancellable())
	for _, st := range []OrderStatus{
		OrderStatusShipped, OrderStatusAtWarehouse, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled,
	} {
		assert.False(t, st.Cancellable(), st)
	}
}
