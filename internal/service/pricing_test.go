package service

import (
	"testing"
	"time"

	"storefront-orders/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestQuote(t *testing.T) {
	fees := DefaultFeeSchedule()

	tests := []struct {
		name     string
		subtotal string
		method   models.PaymentMethod
		cod      string
		shipping string
		total    string
	}{
		{"cod below threshold", "200", models.PaymentMethodCOD, "25", "50", "275"},
		{"online above threshold", "600", models.PaymentMethodOnline, "0", "0", "600"},
		{"card exactly at threshold ships free", "500", models.PaymentMethodCard, "0", "0", "500"},
		{"cod just below threshold", "499.99", models.PaymentMethodCOD, "25", "50", "574.99"},
		{"cod above threshold", "1000", models.PaymentMethodCOD, "25", "0", "1025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fees.Quote(decimal.RequireFromString(tt.subtotal), tt.method)
			assert.Equal(t, tt.cod, c.CODFee.String())
			assert.Equal(t, tt.shipping, c.ShippingFee.String())
			assert.Equal(t, tt.total, c.Total.String())
		})
	}
}

func TestQuoteTotalInvariant(t *testing.T) {
	fees := DefaultFeeSchedule()
	methods := []models.PaymentMethod{models.PaymentMethodCOD, models.PaymentMethodOnline, models.PaymentMethodCard}

	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")
		method := rapid.SampledFrom(methods).Draw(t, "method")
		subtotal := decimal.New(cents, -2)

		c := fees.Quote(subtotal, method)

		if !c.Total.Equal(c.Subtotal.Add(c.CODFee).Add(c.ShippingFee)) {
			t.Fatalf("total %s != %s + %s + %s", c.Total, c.Subtotal, c.CODFee, c.ShippingFee)
		}
		wantCOD := decimal.Zero
		if method == models.PaymentMethodCOD {
			wantCOD = decimal.NewFromInt(25)
		}
		if !c.CODFee.Equal(wantCOD) {
			t.Fatalf("cod fee %s for %s", c.CODFee, method)
		}
		wantShipping := decimal.Zero
		if subtotal.LessThan(decimal.NewFromInt(500)) {
			wantShipping = decimal.NewFromInt(50)
		}
		if !c.ShippingFee.Equal(wantShipping) {
			t.Fatalf("shipping fee %s for subtotal %s", c.ShippingFee, subtotal)
		}
	})
}

func TestEstimatedDelivery(t *testing.T) {
	fees := DefaultFeeSchedule()

	placed := time.Date(2024, 12, 28, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), fees.EstimatedDelivery(placed))

	ist := time.FixedZone("IST", 5*3600+1800)
	placed = time.Date(2024, 3, 1, 2, 0, 0, 0, ist) // Feb 29 20:30 UTC
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), fees.EstimatedDelivery(placed))
}
