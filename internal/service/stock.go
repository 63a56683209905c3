package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const compensationTimeout = 5 * time.Second

// StockDemand is the total quantity a checkout takes from one product
type StockDemand struct {
	ProductID string
	Name      string
	Quantity  int
}

// StockAdjuster applies conditional stock decrements for a checkout with
// compensation, so a checkout takes stock from every product or from none.
type StockAdjuster struct {
	products ProductRepository
	logger   *zap.Logger
}

// NewStockAdjuster creates a new stock adjuster
func NewStockAdjuster(products ProductRepository) *StockAdjuster {
	return &StockAdjuster{
		products: products,
		logger:   util.Component("stock"),
	}
}

// DecrementAll takes every demand or none. A rejected conditional
// decrement surfaces as INSUFFICIENT_STOCK after the already-applied
// decrements are given back.
func (sa *StockAdjuster) DecrementAll(ctx context.Context, demands []StockDemand) error {
	ctx, span := util.StartSpan(ctx, "StockAdjuster.DecrementAll", attribute.Int("products", len(demands)))
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockDecrementLatency.Observe(time.Since(start).Seconds())
	}()

	applied := make([]StockDemand, 0, len(demands))
	for _, d := range demands {
		ok, err := sa.products.DecrementStock(ctx, d.ProductID, d.Quantity)
		if err != nil {
			sa.Restore(ctx, applied)
			util.RecordError(span, err)
			return fmt.Errorf("failed to decrement stock for product %s: %w", d.ProductID, err)
		}

		if !ok {
			util.StockConflictsTotal.Inc()
			sa.Restore(ctx, applied)

			available := 0
			if p, err := sa.products.GetProductByID(ctx, d.ProductID); err == nil {
				available = p.StockQuantity
			}
			sa.logger.Info("Conditional stock decrement rejected",
				zap.String("product_id", d.ProductID),
				zap.Int("requested", d.Quantity),
				zap.Int("available", available))
			return insufficientStock(d.ProductID, d.Name, d.Quantity, available)
		}

		applied = append(applied, d)
	}

	return nil
}

// Restore gives back previously decremented stock. It runs detached from
// the caller's cancellation so an aborted request cannot strand stock.
func (sa *StockAdjuster) Restore(ctx context.Context, demands []StockDemand) {
	if len(demands) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for _, d := range demands {
		ok, err := sa.products.IncrementStock(ctx, d.ProductID, d.Quantity)
		switch {
		case err != nil:
			util.StockCompensationsTotal.WithLabelValues("error").Inc()
			sa.logger.Error("Failed to compensate stock decrement",
				zap.String("product_id", d.ProductID),
				zap.Int("quantity", d.Quantity),
				zap.Error(err))
		case !ok:
			util.StockCompensationsTotal.WithLabelValues("missing").Inc()
			sa.logger.Warn("Product vanished before stock compensation",
				zap.String("product_id", d.ProductID),
				zap.Int("quantity", d.Quantity))
		default:
			util.StockCompensationsTotal.WithLabelValues("ok").Inc()
		}
	}
}

// demandsFor sums cart quantities per product, since variants of one
// product share a single stock counter. Output is ordered by product ID.
func demandsFor(cart *models.Cart, products map[string]*models.Product) []StockDemand {
	totals := make(map[string]int)
	for _, item := range cart.Items {
		totals[item.ProductID] += item.Quantity
	}

	demands := make([]StockDemand, 0, len(totals))
	for id, qty := range totals {
		d := StockDemand{ProductID: id, Quantity: qty}
		if p, ok := products[id]; ok {
			d.Name = p.Name
		}
		demands = append(demands, d)
	}
	sort.Slice(demands, func(i, j int) bool {
		return demands[i].ProductID < demands[j].ProductID
	})
	return demands
}
