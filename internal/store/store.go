package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection for readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs. Missing IDs are
// simply absent from the result.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// DecrementStock subtracts quantity only if enough stock remains.
// Returns false when the row is missing or stock is insufficient.
func (s *Store) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		 WHERE id = $2 AND stock_quantity >= $1`,
		quantity, productID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return affectedOne(res)
}

// IncrementStock adds quantity back. Returns false if the product is gone.
func (s *Store) IncrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2",
		quantity, productID)
	if err != nil {
		return false, fmt.Errorf("failed to increment stock: %w", err)
	}
	return affectedOne(res)
}

// UpsertProduct inserts or fully replaces a catalog record
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, brand, category, subcategory, description, image_url,
			additional_images, price, original_price, stock_quantity, color_options, size_options, is_active)
		VALUES (:id, :name, :brand, :category, :subcategory, :description, :image_url,
			:additional_images, :price, :original_price, :stock_quantity, :color_options, :size_options, :is_active)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			additional_images = EXCLUDED.additional_images,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			stock_quantity = EXCLUDED.stock_quantity,
			color_options = EXCLUDED.color_options,
			size_options = EXCLUDED.size_options,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()`

	row := *p
	row.AdditionalImages = nonNil(row.AdditionalImages)
	row.ColorOptions = nonNil(row.ColorOptions)
	row.SizeOptions = nonNil(row.SizeOptions)

	_, err := s.db.NamedExecContext(ctx, query, &row)
	return err
}

// nonNil keeps pq from sending NULL for an empty TEXT[] column.
func nonNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}

// GetCart loads a cart with its lines in insertion order
func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &cart.Items,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	return &cart, nil
}

// SaveCart replaces the persisted lines and totals of a cart
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.Recalculate()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, cart, `
		INSERT INTO carts (user_id, total_amount, total_items)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			total_amount = EXCLUDED.total_amount,
			total_items = EXCLUDED.total_items,
			updated_at = NOW()
		RETURNING user_id, total_amount, total_items, created_at, updated_at`,
		cart.UserID, cart.TotalAmount, cart.TotalItems)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", cart.UserID); err != nil {
		return fmt.Errorf("failed to reset cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		item.UserID = cart.UserID
		item.Position = i
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO cart_items (id, user_id, product_id, quantity, selected_color, selected_size, price_at_time, position)
			VALUES (:id, :user_id, :product_id, :quantity, :selected_color, :selected_size, :price_at_time, :position)`,
			item)
		if err != nil {
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	return tx.Commit()
}

// ClearCart empties a cart. A missing cart is left missing.
func (s *Store) ClearCart(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE carts SET total_amount = 0, total_items = 0, updated_at = NOW() WHERE user_id = $1",
		userID); err != nil {
		return fmt.Errorf("failed to reset cart totals: %w", err)
	}

	return tx.Commit()
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
