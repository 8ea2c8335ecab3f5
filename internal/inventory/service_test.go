package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type memoryRepo struct {
	inventories map[int64]Inventory
	histories   []HistoryEntry
	nextID      int64
	nextHistID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{inventories: make(map[int64]Inventory)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, &memoryStore{repo: r})
}

func (r *memoryRepo) Create(ctx context.Context, inv Inventory) (int64, error) {
	r.nextID++
	inv.ID = r.nextID
	r.inventories[inv.ID] = inv
	return inv.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Inventory, error) {
	inv, ok := r.inventories[id]
	if !ok {
		return Inventory{}, fmt.Errorf("inventory: %w", shared.ErrNotFound)
	}
	return inv, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Inventory, int, error) {
	items := make([]Inventory, 0, len(r.inventories))
	for _, inv := range r.inventories {
		items = append(items, inv)
	}
	return items, len(items), nil
}

func (r *memoryRepo) ListHistories(ctx context.Context, inventoryID int64, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for _, e := range r.histories {
		if e.InventoryID == inventoryID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type memoryStore struct {
	repo *memoryRepo
}

func (s *memoryStore) GetForUpdate(ctx context.Context, id int64) (Inventory, error) {
	return s.repo.Get(ctx, id)
}

func (s *memoryStore) SetStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	inv, ok := s.repo.inventories[id]
	if !ok {
		return fmt.Errorf("inventory: %w", shared.ErrNotFound)
	}
	inv.Stock = stock
	s.repo.inventories[id] = inv
	return nil
}

func (s *memoryStore) UpdateFields(ctx context.Context, inv Inventory) error {
	if _, ok := s.repo.inventories[inv.ID]; !ok {
		return fmt.Errorf("inventory: %w", shared.ErrNotFound)
	}
	s.repo.inventories[inv.ID] = inv
	return nil
}

func (s *memoryStore) InsertHistory(ctx context.Context, entry HistoryEntry) (int64, error) {
	s.repo.nextHistID++
	entry.ID = s.repo.nextHistID
	s.repo.histories = append(s.repo.histories, entry)
	return entry.ID, nil
}

func seedInventory(t *testing.T, repo *memoryRepo, stock string) Inventory {
	t.Helper()
	id, err := repo.Create(context.Background(), Inventory{
		Name:  "Gula Pasir",
		Stock: decimal.RequireFromString(stock),
		Unit:  "kg",
		Price: decimal.RequireFromString("15000"),
		SKU:   "GLP-001",
	})
	require.NoError(t, err)
	inv, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func TestAdjustDeductsAndAudits(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	movement, err := svc.Adjust(context.Background(), AdjustInput{
		InventoryID: inv.ID,
		Delta:       decimal.RequireFromString("-4"),
		Reason:      "Checkout pesanan #ORD-1",
		ActorID:     7,
	})
	require.NoError(t, err)
	require.True(t, movement.New.Equal(decimal.RequireFromString("6")))

	got, err := repo.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(decimal.RequireFromString("6")))

	require.Len(t, repo.histories, 1)
	entry := repo.histories[0]
	require.Equal(t, HistoryTypeStockAdjustment, entry.Type)
	require.Equal(t, "10", entry.Previous)
	require.Equal(t, "6", entry.New)
	require.Equal(t, "Checkout pesanan #ORD-1", entry.Description)
	require.NotNil(t, entry.ActorID)
	require.Equal(t, int64(7), *entry.ActorID)
}

func TestAdjustInsufficientStockLeavesNoTrace(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	_, err := svc.Adjust(context.Background(), AdjustInput{
		InventoryID: inv.ID,
		Delta:       decimal.RequireFromString("-11"),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := repo.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, got.Stock.Equal(decimal.RequireFromString("10")))
	require.Empty(t, repo.histories)
}

func TestAdjustZeroDelta(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	_, err := svc.Adjust(context.Background(), AdjustInput{InventoryID: inv.ID, Delta: decimal.Zero})
	require.ErrorIs(t, err, ErrInvalidDelta)
}

func TestAdjustExactDepletionAllowed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	movement, err := svc.Adjust(context.Background(), AdjustInput{
		InventoryID: inv.ID,
		Delta:       decimal.RequireFromString("-10"),
	})
	require.NoError(t, err)
	require.True(t, movement.New.IsZero())
}

func TestUpdateRecordsOnlyChangedFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	newName := "Gula Pasir Premium"
	newPrice := decimal.RequireFromString("17500")
	sameSKU := inv.SKU
	updated, entries, err := svc.Update(context.Background(), UpdateInput{
		ID: inv.ID,
		Proposed: Proposed{
			Name:  &newName,
			Price: &newPrice,
			SKU:   &sameSKU,
		},
		ActorID: 3,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, newName, updated.Name)
	require.True(t, updated.Price.Equal(newPrice))

	// second submission with the exact same values must be a no-op
	_, entries, err = svc.Update(context.Background(), UpdateInput{
		ID: inv.ID,
		Proposed: Proposed{
			Name:  &newName,
			Price: &newPrice,
			SKU:   &sameSKU,
		},
	})
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Len(t, repo.histories, 2)
}

func TestDiffTrackedComparesDecimalsByValue(t *testing.T) {
	inv := Inventory{Name: "Tepung", Price: decimal.RequireFromString("10.50"), SKU: "TPG-1", Stock: decimal.RequireFromString("3")}
	price := decimal.RequireFromString("10.5")
	changes := DiffTracked(inv, Proposed{Price: &price})
	require.Empty(t, changes)
}

func TestUpdateDescriptionOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	inv := seedInventory(t, repo, "10")

	stock := decimal.RequireFromString("25")
	_, entries, err := svc.Update(context.Background(), UpdateInput{
		ID:       inv.ID,
		Proposed: Proposed{Stock: &stock, Description: "Stock opname gudang"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, HistoryTypeFieldChange, entries[0].Type)
	require.Equal(t, "Stock opname gudang", entries[0].Description)
	require.Equal(t, "Perubahan Stok", entries[0].Title)
}
