package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is the authoritative stock record. Stock is never written
// directly; every mutation of an audited field goes through the ledger or
// the history recorder.
type Inventory struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Stock     decimal.Decimal `json:"stock"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HistoryType tags the origin of a history entry.
type HistoryType string

const (
	// HistoryTypeFieldChange marks an audited field edit.
	HistoryTypeFieldChange HistoryType = "field_change"
	// HistoryTypeStockAdjustment marks a ledger stock movement.
	HistoryTypeStockAdjustment HistoryType = "stock_adjustment"
)

// HistoryEntry is an immutable audit record. Entries are appended only and
// only when a tracked field actually changed.
type HistoryEntry struct {
	ID          int64       `json:"id"`
	InventoryID int64       `json:"inventory_id"`
	ActorID     *int64      `json:"actor_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        HistoryType `json:"type"`
	Previous    string      `json:"previous"`
	New         string      `json:"new"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AdjustParams describes a single ledger movement.
type AdjustParams struct {
	InventoryID int64
	Delta       decimal.Decimal
	Reason      string
	ActorID     int64
}

// Movement reports the before/after state of a committed adjustment.
type Movement struct {
	InventoryID int64           `json:"inventory_id"`
	Previous    decimal.Decimal `json:"previous"`
	New         decimal.Decimal `json:"new"`
	Entry       HistoryEntry    `json:"entry"`
}

// ListFilter filters inventory listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

// ErrInsufficientStock triggered when a negative delta would push stock below zero.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrInvalidDelta indicates a zero adjustment delta.
var ErrInvalidDelta = errors.New("inventory: delta must be non zero")
