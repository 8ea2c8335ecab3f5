package production

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Composition describes how one finished good is produced: the labor cost,
// the yield (units produced per batch) and the ingredient items grouped in
// categories. The same ingredient may appear in several categories; the
// allocator aggregates its usage.
type Composition struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	TargetInventoryID int64           `json:"target_inventory_id"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	Yield             int64           `json:"yield"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Categories        []Category      `json:"categories,omitempty"`
}

// Category groups composition items.
type Category struct {
	ID            int64  `json:"id"`
	CompositionID int64  `json:"composition_id"`
	Name          string `json:"name"`
	Items         []Item `json:"items,omitempty"`
}

// Item is one ingredient requirement within a category. StockUsed is the
// quantity consumed per produced unit.
type Item struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	InventoryID int64           `json:"inventory_id"`
	StockUsed   decimal.Decimal `json:"stock_used"`
	Cost        decimal.Decimal `json:"cost"`
}

// BatchRun is the append-only log of one allocator invocation. Processed may
// be lower than the operator requested.
type BatchRun struct {
	ID            int64     `json:"id"`
	CompositionID int64     `json:"composition_id"`
	ActorID       *int64    `json:"actor_id,omitempty"`
	Processed     int64     `json:"processed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Deduction reports how much of one ingredient an allocation consumed.
type Deduction struct {
	InventoryID int64           `json:"inventory_id"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Allocation is the outcome of a deploy run.
type Allocation struct {
	CompositionID int64           `json:"composition_id"`
	Requested     int64           `json:"requested"`
	Processed     int64           `json:"processed"`
	Produced      decimal.Decimal `json:"produced"`
	Deductions    []Deduction     `json:"deductions"`
	Partial       bool            `json:"partial"`
}

// ListFilter filters composition listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

var (
	// ErrNotDeployable marks a composition that cannot be processed at all:
	// no items, non-positive yield, non-positive request, or zero feasible
	// batches given current stock.
	ErrNotDeployable = errors.New("production: composition cannot be deployed")
)
