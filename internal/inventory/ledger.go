package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Store exposes the transactional operations the ledger and the history
// recorder need. The production implementation wraps a pgx transaction;
// other modules embed it in their own transactional repositories so that
// every stock mutation of one business operation commits or rolls back
// together.
type Store interface {
	GetForUpdate(ctx context.Context, id int64) (Inventory, error)
	SetStock(ctx context.Context, id int64, stock decimal.Decimal) error
	UpdateFields(ctx context.Context, inv Inventory) error
	InsertHistory(ctx context.Context, entry HistoryEntry) (int64, error)
}

// Adjust applies a delta to an inventory record under a row-level exclusive
// lock. A negative delta that would push stock below zero fails with
// ErrInsufficientStock and performs no mutation. The movement is audited as
// a stock_adjustment history entry.
func Adjust(ctx context.Context, store Store, p AdjustParams) (Movement, error) {
	if p.Delta.IsZero() {
		return Movement{}, ErrInvalidDelta
	}
	inv, err := store.GetForUpdate(ctx, p.InventoryID)
	if err != nil {
		return Movement{}, err
	}

	newStock := inv.Stock.Add(p.Delta)
	if newStock.IsNegative() {
		return Movement{}, fmt.Errorf("%w: %s", ErrInsufficientStock, inv.Name)
	}

	previous := inv.Stock
	if err := store.SetStock(ctx, inv.ID, newStock); err != nil {
		return Movement{}, err
	}

	entry := HistoryEntry{
		InventoryID: inv.ID,
		ActorID:     nullableActor(p.ActorID),
		Title:       "Penyesuaian Stok",
		Description: p.Reason,
		Type:        HistoryTypeStockAdjustment,
		Previous:    previous.String(),
		New:         newStock.String(),
		CreatedAt:   time.Now().UTC(),
	}
	id, err := store.InsertHistory(ctx, entry)
	if err != nil {
		return Movement{}, err
	}
	entry.ID = id

	return Movement{InventoryID: inv.ID, Previous: previous, New: newStock, Entry: entry}, nil
}

func nullableActor(actorID int64) *int64 {
	if actorID == 0 {
		return nil
	}
	return &actorID
}
