package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are numbers at the JSON boundary, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID               string          `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Brand            string          `db:"brand" json:"brand"`
	Category         string          `db:"category" json:"category"`
	Subcategory      string          `db:"subcategory" json:"subcategory"`
	Description      string          `db:"description" json:"description"`
	ImageURL         string          `db:"image_url" json:"image_url"`
	AdditionalImages pq.StringArray  `db:"additional_images" json:"additional_images"`
	Price            decimal.Decimal `db:"price" json:"price"`
	OriginalPrice    decimal.Decimal `db:"original_price" json:"original_price"`
	StockQuantity    int             `db:"stock_quantity" json:"stock_quantity"`
	ColorOptions     pq.StringArray  `db:"color_options" json:"color_options"`
	SizeOptions      pq.StringArray  `db:"size_options" json:"size_options"`
	IsActive         bool            `db:"is_active" json:"is_active"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OffersColor reports whether color is selectable for the product.
// Products without declared options accept any value.
func (p *Product) OffersColor(color string) bool {
	return offers(p.ColorOptions, color)
}

// OffersSize reports whether size is selectable for the product.
func (p *Product) OffersSize(size string) bool {
	return offers(p.SizeOptions, size)
}

func offers(options []string, value string) bool {
	if value == "" || len(options) == 0 {
		return true
	}
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return true
		}
	}
	return false
}

// Cart is the per-user pre-purchase collection of lines
type Cart struct {
	UserID      string          `db:"user_id" json:"user_id"`
	Items       []CartItem      `db:"-" json:"items"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	TotalItems  int             `db:"total_items" json:"total_items"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CartItem is a single cart line. Lines are distinct per product and variant.
type CartItem struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"-"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Quantity      int             `db:"quantity" json:"quantity"`
	SelectedColor string          `db:"selected_color" json:"selected_color,omitempty"`
	SelectedSize  string          `db:"selected_size" json:"selected_size,omitempty"`
	PriceAtTime   decimal.Decimal `db:"price_at_time" json:"price_at_time"`
	Position      int             `db:"position" json:"-"`
	Product       *Product        `db:"-" json:"product,omitempty"`
}

// Matches reports whether the line holds the given product variant.
func (ci *CartItem) Matches(productID, color, size string) bool {
	return ci.ProductID == productID && ci.SelectedColor == color && ci.SelectedSize == size
}

// LineTotal returns price_at_time * quantity.
func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.PriceAtTime.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Recalculate derives TotalAmount and TotalItems from the lines.
// Repositories call it before every persist.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
		count += c.Items[i].Quantity
	}
	c.TotalAmount = total
	c.TotalItems = count
}

// Clone returns a copy whose item slice is not shared.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	return &cp
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Address is the shipping address copied by value into an order
type Address struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// MissingField returns the json name of the first blank field, or "".
func (a Address) MissingField() string {
	fields := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"phone", a.Phone},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a Address) Trimmed() Address {
	return Address{
		Name:    strings.TrimSpace(a.Name),
		Phone:   strings.TrimSpace(a.Phone),
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
		Country: strings.TrimSpace(a.Country),
	}
}

// Value stores the address as JSONB. lib/pq sends []byte as bytea, so the
// document goes out as a string.
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the address from a JSONB column.
func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = Address{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Address", src)
	}
}

// Order is the immutable snapshot of a completed checkout
type Order struct {
	ID                    int64           `db:"id" json:"-"`
	OrderID               string          `db:"order_id" json:"order_id"`
	UserID                string          `db:"user_id" json:"user_id"`
	Items                 []OrderItem     `db:"-" json:"items"`
	ShippingAddress       Address         `db:"shipping_address" json:"shipping_address"`
	PaymentMethod         PaymentMethod   `db:"payment_method" json:"payment_method"`
	PaymentStatus         PaymentStatus   `db:"payment_status" json:"payment_status"`
	OrderStatus           OrderStatus     `db:"order_status" json:"order_status"`
	EstimatedDeliveryDate time.Time       `db:"estimated_delivery_date" json:"estimated_delivery_date"`
	Subtotal              decimal.Decimal `db:"subtotal" json:"subtotal"`
	CODFee                decimal.Decimal `db:"cod_fee" json:"cod_fee"`
	ShippingFee           decimal.Decimal `db:"shipping_fee" json:"shipping_fee"`
	TotalAmount           decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a purchased line captured by value
type OrderItem struct {
	ID            int64           `db:"id" json:"-"`
	OrderID       string          `db:"order_id" json:"-"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Name          string          `db:"name" json:"name"`
	ImageURL      string          `db:"image_url" json:"image_url"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Price         decimal.Decimal `db:"price" json:"price"`
	SelectedColor string          `db:"selected_color" json:"selected_color,omitempty"`
	SelectedSize  string          `db:"selected_size" json:"selected_size,omitempty"`
	Position      int             `db:"position" json:"-"`
}

// Clone returns a deep copy so callers can't alias ledger state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
