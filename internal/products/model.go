package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Its price is the authoritative unit price used
// when order totals are recomputed.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}
