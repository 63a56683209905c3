package service

import (
	"time"

	"storefront-orders/internal/models"

	"github.com/shopspring/decimal"
)

// FeeSchedule holds the configurable checkout charges
type FeeSchedule struct {
	CODFee                decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	DeliveryLeadDays      int
}

// DefaultFeeSchedule returns the standard storefront charges
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		CODFee:                decimal.NewFromInt(25),
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(50),
		DeliveryLeadDays:      7,
	}
}

// Charges is the money breakdown frozen into an order
type Charges struct {
	Subtotal    decimal.Decimal
	CODFee      decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Quote computes fees for a subtotal. Shipping is charged strictly below
// the threshold; COD carries a flat surcharge.
func (f FeeSchedule) Quote(subtotal decimal.Decimal, method models.PaymentMethod) Charges {
	codFee := decimal.Zero
	if method == models.PaymentMethodCOD {
		codFee = f.CODFee
	}

	shippingFee := decimal.Zero
	if subtotal.LessThan(f.FreeShippingThreshold) {
		shippingFee = f.ShippingFee
	}

	return Charges{
		Subtotal:    subtotal,
		CODFee:      codFee,
		ShippingFee: shippingFee,
		Total:       subtotal.Add(codFee).Add(shippingFee),
	}
}

// EstimatedDelivery returns the delivery date for an order placed at t
func (f FeeSchedule) EstimatedDelivery(t time.Time) time.Time {
	d := t.UTC().AddDate(0, 0, f.DeliveryLeadDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
