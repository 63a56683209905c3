// Package catalog parses product catalog exports for bulk import.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-orders/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var requiredColumns = []string{"name", "category", "subcategory", "price", "original_price", "description", "image_url", "brand"}

// RowError reports a malformed CSV record
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseCSV reads products from a CSV export with a header row. Option
// columns hold comma-separated values. Rows without an id column get a
// stable id derived from brand and name, so re-importing updates in place.
func ParseCSV(r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing required column %q", c)
		}
	}

	var products []models.Product
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}

		p, err := parseRow(record, cols)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		products = append(products, p)
	}

	return products, nil
}

func parseRow(record []string, cols map[string]int) (models.Product, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	p := models.Product{
		ID:               get("id"),
		Name:             get("name"),
		Brand:            get("brand"),
		Category:         get("category"),
		Subcategory:      get("subcategory"),
		Description:      get("description"),
		ImageURL:         get("image_url"),
		AdditionalImages: splitOptions(get("additional_images")),
		ColorOptions:     splitOptions(get("color_options")),
		SizeOptions:      splitOptions(get("size_options")),
		IsActive:         true,
	}
	if p.Name == "" {
		return p, errors.New("name is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.Brand+"|"+p.Name)).String()
	}

	var err error
	if p.Price, err = parseMoney(get("price")); err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	if p.OriginalPrice, err = parseMoney(get("original_price")); err != nil {
		return p, fmt.Errorf("original_price: %w", err)
	}

	if raw := get("stock_quantity"); raw != "" {
		if p.StockQuantity, err = strconv.Atoi(raw); err != nil {
			return p, fmt.Errorf("stock_quantity: %w", err)
		}
		if p.StockQuantity < 0 {
			return p, errors.New("stock_quantity must not be negative")
		}
	}

	if raw := get("is_active"); raw != "" {
		if p.IsActive, err = strconv.ParseBool(raw); err != nil {
			return p, fmt.Errorf("is_active: %w", err)
		}
	}

	return p, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("must not be negative")
	}
	return d.Round(2), nil
}

func splitOptions(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
