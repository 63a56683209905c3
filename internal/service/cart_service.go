package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CartService handles the per-user cart
type CartService struct {
	carts    CartRepository
	products ProductRepository
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(carts CartRepository, products ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   util.Component("cart"),
	}
}

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selected_color"`
	SelectedSize  string `json:"selected_size"`
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart", attribute.String("user_id", userID))
	defer span.End()

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	return s.withProducts(ctx, cart), nil
}

// AddItem puts a product variant in the cart, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID string, req *AddItemRequest) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem",
		attribute.String("user_id", userID),
		attribute.String("product_id", req.ProductID))
	defer span.End()

	if userID == "" {
		return nil, accessDenied("user is required")
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, validationError("quantity", "quantity must be at least 1")
	}

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.IsActive) {
		return nil, notFound("product %s not found", req.ProductID)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if !product.OffersColor(req.SelectedColor) {
		return nil, validationError("selected_color", "color %q is not available for %s", req.SelectedColor, product.Name)
	}
	if !product.OffersSize(req.SelectedSize) {
		return nil, validationError("selected_size", "size %q is not available for %s", req.SelectedSize, product.Name)
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	// Advisory only; checkout re-checks against the summed cart quantity.
	if product.StockQuantity < quantity {
		return nil, insufficientStock(product.ID, product.Name, quantity, product.StockQuantity)
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].Matches(product.ID, req.SelectedColor, req.SelectedSize) {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ID:            uuid.New().String(),
			UserID:        userID,
			ProductID:     product.ID,
			Quantity:      quantity,
			SelectedColor: req.SelectedColor,
			SelectedSize:  req.SelectedSize,
			PriceAtTime:   product.Price,
		})
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Bool("merged", merged))

	return s.withProducts(ctx, cart), nil
}

// UpdateItem sets a line's quantity. A quantity of zero or less removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem",
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID))
	defer span.End()

	cart, idx, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	op := "update"
	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		op = "remove"
	} else {
		cart.Items[idx].Quantity = quantity
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues(op).Inc()
	return s.withProducts(ctx, cart), nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem",
		attribute.String("user_id", userID),
		attribute.String("item_id", itemID))
	defer span.End()

	cart, idx, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues("remove").Inc()
	return s.withProducts(ctx, cart), nil
}

// Clear empties the cart. Clearing a missing cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.Clear", attribute.String("user_id", userID))
	defer span.End()

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	util.CartOperationsTotal.WithLabelValues("clear").Inc()
	return nil
}

func (s *CartService) loadOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	now := time.Now().UTC()
	cart = &models.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) findItem(ctx context.Context, userID, itemID string) (*models.Cart, int, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, notFound("cart item %s not found", itemID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load cart: %w", err)
	}

	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return cart, i, nil
		}
	}
	return nil, 0, notFound("cart item %s not found", itemID)
}

// withProducts attaches the live product to each line for display. Lines
// whose product has gone away are returned without one.
func (s *CartService) withProducts(ctx context.Context, cart *models.Cart) *models.Cart {
	if cart.IsEmpty() {
		return cart
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve cart products",
			zap.String("user_id", cart.UserID), zap.Error(err))
		return cart
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range cart.Items {
		cart.Items[i].Product = byID[cart.Items[i].ProductID]
	}
	return cart
}
