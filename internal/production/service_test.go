package production

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type fakeRepo struct {
	inventories  map[int64]inventory.Inventory
	histories    []inventory.HistoryEntry
	compositions map[int64]Composition
	runs         []BatchRun
	nextID       int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		inventories:  make(map[int64]inventory.Inventory),
		compositions: make(map[int64]Composition),
	}
}

// WithTx snapshots state so an aborted allocation rolls back like a real
// transaction would.
func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	invSnap := make(map[int64]inventory.Inventory, len(r.inventories))
	for k, v := range r.inventories {
		invSnap[k] = v
	}
	histSnap := append([]inventory.HistoryEntry(nil), r.histories...)
	runSnap := append([]BatchRun(nil), r.runs...)
	if err := fn(ctx, &fakeTx{repo: r}); err != nil {
		r.inventories = invSnap
		r.histories = histSnap
		r.runs = runSnap
		return err
	}
	return nil
}

func (r *fakeRepo) Create(ctx context.Context, comp Composition) (int64, error) {
	r.nextID++
	comp.ID = r.nextID
	r.compositions[comp.ID] = comp
	return comp.ID, nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Composition, error) {
	comp, ok := r.compositions[id]
	if !ok {
		return Composition{}, fmt.Errorf("composition: %w", shared.ErrNotFound)
	}
	return comp, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Composition, int, error) {
	items := make([]Composition, 0, len(r.compositions))
	for _, comp := range r.compositions {
		items = append(items, comp)
	}
	return items, len(items), nil
}

func (r *fakeRepo) ListBatchRuns(ctx context.Context, compositionID int64, limit int) ([]BatchRun, error) {
	var runs []BatchRun
	for _, run := range r.runs {
		if run.CompositionID == compositionID {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) GetForUpdate(ctx context.Context, id int64) (inventory.Inventory, error) {
	inv, ok := t.repo.inventories[id]
	if !ok {
		return inventory.Inventory{}, fmt.Errorf("inventory: %w", shared.ErrNotFound)
	}
	return inv, nil
}

func (t *fakeTx) SetStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	inv := t.repo.inventories[id]
	inv.Stock = stock
	t.repo.inventories[id] = inv
	return nil
}

func (t *fakeTx) UpdateFields(ctx context.Context, inv inventory.Inventory) error {
	t.repo.inventories[inv.ID] = inv
	return nil
}

func (t *fakeTx) InsertHistory(ctx context.Context, entry inventory.HistoryEntry) (int64, error) {
	t.repo.nextID++
	entry.ID = t.repo.nextID
	t.repo.histories = append(t.repo.histories, entry)
	return entry.ID, nil
}

func (t *fakeTx) InsertBatchRun(ctx context.Context, run BatchRun) (int64, error) {
	t.repo.nextID++
	run.ID = t.repo.nextID
	t.repo.runs = append(t.repo.runs, run)
	return run.ID, nil
}

type notification struct {
	RecipientID int64
	Title       string
	Description string
}

type fakeNotifier struct {
	pushed []notification
}

func (n *fakeNotifier) Push(ctx context.Context, recipientID int64, title, description, link string) error {
	n.pushed = append(n.pushed, notification{RecipientID: recipientID, Title: title, Description: description})
	return nil
}

func (n *fakeNotifier) titles() []string {
	out := make([]string, 0, len(n.pushed))
	for _, p := range n.pushed {
		out = append(out, p.Title)
	}
	return out
}

func seedIngredient(repo *fakeRepo, name, stock string) int64 {
	repo.nextID++
	id := repo.nextID
	repo.inventories[id] = inventory.Inventory{
		ID:    id,
		Name:  name,
		Stock: decimal.RequireFromString(stock),
		Unit:  "kg",
	}
	return id
}

func testService(repo *fakeRepo, notifier *fakeNotifier) *Service {
	return NewService(repo, notifier, slog.Default())
}

// fixture: yield 1, ingredient A needs 3 per batch, B needs 4 per batch
func seedComposition(repo *fakeRepo, aID, bID, targetID int64) int64 {
	repo.nextID++
	id := repo.nextID
	repo.compositions[id] = Composition{
		ID:                id,
		Name:              "Roti Manis",
		TargetInventoryID: targetID,
		Yield:             1,
		Categories: []Category{
			{Name: "Bahan Utama", Items: []Item{
				{InventoryID: aID, StockUsed: decimal.RequireFromString("3")},
				{InventoryID: bID, StockUsed: decimal.RequireFromString("4")},
			}},
		},
	}
	return id
}

func stockOf(t *testing.T, repo *fakeRepo, id int64) decimal.Decimal {
	t.Helper()
	inv, ok := repo.inventories[id]
	require.True(t, ok)
	return inv.Stock
}

func TestDeployCapsAtMostConstrainedIngredient(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	aID := seedIngredient(repo, "Tepung", "10")
	bID := seedIngredient(repo, "Gula", "20")
	targetID := seedIngredient(repo, "Roti Manis", "0")
	compID := seedComposition(repo, aID, bID, targetID)

	alloc, err := svc.Deploy(context.Background(), compID, 5, 7)
	require.NoError(t, err)

	// min(5, floor(10/3)=3, floor(20/4)=5) = 3
	require.Equal(t, int64(3), alloc.Processed)
	require.True(t, alloc.Partial)
	require.True(t, stockOf(t, repo, aID).Equal(decimal.RequireFromString("1")))
	require.True(t, stockOf(t, repo, bID).Equal(decimal.RequireFromString("8")))
	require.True(t, stockOf(t, repo, targetID).Equal(decimal.RequireFromString("3")))

	require.Len(t, repo.runs, 1)
	require.Equal(t, int64(3), repo.runs[0].Processed)
	require.NotNil(t, repo.runs[0].ActorID)
	require.Equal(t, int64(7), *repo.runs[0].ActorID)

	// two ingredient deductions plus the finished-good credit
	require.Len(t, repo.histories, 3)
	require.Equal(t, []string{"Pemakaian Bahan", "Pemakaian Bahan", "Produksi Sebagian"}, notifier.titles())
}

func TestDeployFullCompletion(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	aID := seedIngredient(repo, "Tepung", "10")
	bID := seedIngredient(repo, "Gula", "20")
	targetID := seedIngredient(repo, "Roti Manis", "0")
	compID := seedComposition(repo, aID, bID, targetID)

	alloc, err := svc.Deploy(context.Background(), compID, 2, 7)
	require.NoError(t, err)
	require.Equal(t, int64(2), alloc.Processed)
	require.False(t, alloc.Partial)
	require.Contains(t, notifier.titles(), "Produksi Selesai")
	require.NotContains(t, notifier.titles(), "Produksi Sebagian")
}

func TestDeployZeroFeasibleAbortsWithoutMutation(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	aID := seedIngredient(repo, "Tepung", "2")
	bID := seedIngredient(repo, "Gula", "20")
	targetID := seedIngredient(repo, "Roti Manis", "0")
	compID := seedComposition(repo, aID, bID, targetID)

	_, err := svc.Deploy(context.Background(), compID, 5, 7)
	require.ErrorIs(t, err, ErrNotDeployable)

	require.True(t, stockOf(t, repo, aID).Equal(decimal.RequireFromString("2")))
	require.True(t, stockOf(t, repo, bID).Equal(decimal.RequireFromString("20")))
	require.True(t, stockOf(t, repo, targetID).IsZero())
	require.Empty(t, repo.runs)
	require.Empty(t, repo.histories)
	require.Equal(t, []string{"Produksi Gagal"}, notifier.titles())
}

func TestDeployMissingIngredientForcesZeroFeasible(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	aID := seedIngredient(repo, "Tepung", "100")
	targetID := seedIngredient(repo, "Roti Manis", "0")
	compID := seedComposition(repo, aID, 9999, targetID)

	_, err := svc.Deploy(context.Background(), compID, 5, 7)
	require.ErrorIs(t, err, ErrNotDeployable)
	require.True(t, stockOf(t, repo, aID).Equal(decimal.RequireFromString("100")))
	require.Empty(t, repo.runs)
}

func TestDeployShortCircuitsWithoutTransaction(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := testService(repo, notifier)

	targetID := seedIngredient(repo, "Roti Manis", "0")

	repo.nextID++
	emptyID := repo.nextID
	repo.compositions[emptyID] = Composition{
		ID: emptyID, Name: "Kosong", TargetInventoryID: targetID, Yield: 1,
	}

	_, err := svc.Deploy(context.Background(), emptyID, 5, 7)
	require.ErrorIs(t, err, ErrNotDeployable)

	aID := seedIngredient(repo, "Tepung", "10")
	compID := seedComposition(repo, aID, aID, targetID)

	_, err = svc.Deploy(context.Background(), compID, 0, 7)
	require.ErrorIs(t, err, ErrNotDeployable)

	badYield := repo.compositions[compID]
	badYield.Yield = 0
	repo.compositions[compID] = badYield
	_, err = svc.Deploy(context.Background(), compID, 5, 7)
	require.ErrorIs(t, err, ErrNotDeployable)

	require.Empty(t, repo.histories)
	require.Empty(t, repo.runs)
	for _, p := range notifier.pushed {
		require.Equal(t, "Produksi Gagal", p.Title)
	}
}

func TestRequirementsAggregatesAcrossCategories(t *testing.T) {
	comp := Composition{
		Yield: 2,
		Categories: []Category{
			{Items: []Item{{InventoryID: 1, StockUsed: decimal.RequireFromString("1.5")}}},
			{Items: []Item{
				{InventoryID: 1, StockUsed: decimal.RequireFromString("0.5")},
				{InventoryID: 2, StockUsed: decimal.Zero},
			}},
		},
	}
	reqs := requirements(comp)
	require.Len(t, reqs, 1)
	require.Equal(t, int64(1), reqs[0].InventoryID)
	// (1.5 + 0.5) x yield 2
	require.True(t, reqs[0].NeedPerBatch.Equal(decimal.RequireFromString("4")))
}
