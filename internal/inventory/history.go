package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TrackedField enumerates the audited inventory fields. The set is fixed;
// comparisons are typed per field rather than coerced through strings.
type TrackedField string

const (
	FieldName  TrackedField = "name"
	FieldPrice TrackedField = "price"
	FieldSKU   TrackedField = "sku"
	FieldStock TrackedField = "stock"
)

// Proposed carries candidate values for tracked fields. Nil pointers mean
// "leave unchanged". Description, when set, overrides the field-specific
// default description on every resulting entry.
type Proposed struct {
	Name        *string
	Price       *decimal.Decimal
	SKU         *string
	Stock       *decimal.Decimal
	Description string
}

// FieldChange is one detected difference between current and proposed values.
type FieldChange struct {
	Field    TrackedField
	Previous string
	New      string
}

var fieldTitles = map[TrackedField]string{
	FieldName:  "Perubahan Nama",
	FieldPrice: "Perubahan Harga",
	FieldSKU:   "Perubahan SKU",
	FieldStock: "Perubahan Stok",
}

var fieldDescriptions = map[TrackedField]string{
	FieldName:  "Nama inventaris diperbarui",
	FieldPrice: "Harga inventaris diperbarui",
	FieldSKU:   "SKU inventaris diperbarui",
	FieldStock: "Stok inventaris diperbarui",
}

// DiffTracked compares the record's current values against the proposed ones
// and returns one change per field whose value actually differs. No-op diffs
// produce nothing, keeping the audit trail meaningful.
func DiffTracked(inv Inventory, p Proposed) []FieldChange {
	var changes []FieldChange
	if p.Name != nil && *p.Name != inv.Name {
		changes = append(changes, FieldChange{Field: FieldName, Previous: inv.Name, New: *p.Name})
	}
	if p.Price != nil && !p.Price.Equal(inv.Price) {
		changes = append(changes, FieldChange{Field: FieldPrice, Previous: inv.Price.String(), New: p.Price.String()})
	}
	if p.SKU != nil && *p.SKU != inv.SKU {
		changes = append(changes, FieldChange{Field: FieldSKU, Previous: inv.SKU, New: *p.SKU})
	}
	if p.Stock != nil && !p.Stock.Equal(inv.Stock) {
		changes = append(changes, FieldChange{Field: FieldStock, Previous: inv.Stock.String(), New: p.Stock.String()})
	}
	return changes
}

// RecordChanges writes one history entry per changed tracked field. The
// caller is responsible for persisting the new field values themselves;
// recording is pure append.
func RecordChanges(ctx context.Context, store Store, inv Inventory, p Proposed, actorID int64) ([]HistoryEntry, error) {
	changes := DiffTracked(inv, p)
	if len(changes) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	entries := make([]HistoryEntry, 0, len(changes))
	for _, change := range changes {
		description := fieldDescriptions[change.Field]
		if p.Description != "" {
			description = p.Description
		}
		entry := HistoryEntry{
			InventoryID: inv.ID,
			ActorID:     nullableActor(actorID),
			Title:       fieldTitles[change.Field],
			Description: description,
			Type:        HistoryTypeFieldChange,
			Previous:    change.Previous,
			New:         change.New,
			CreatedAt:   now,
		}
		id, err := store.InsertHistory(ctx, entry)
		if err != nil {
			return nil, err
		}
		entry.ID = id
		entries = append(entries, entry)
	}
	return entries, nil
}

// Apply copies the proposed values onto the record.
func (p Proposed) Apply(inv *Inventory) {
	if p.Name != nil {
		inv.Name = *p.Name
	}
	if p.Price != nil {
		inv.Price = *p.Price
	}
	if p.SKU != nil {
		inv.SKU = *p.SKU
	}
	if p.Stock != nil {
		inv.Stock = *p.Stock
	}
}
