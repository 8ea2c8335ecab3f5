package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type memoryRepo struct {
	records map[int64]DataExport
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]DataExport)}
}

func (r *memoryRepo) Create(ctx context.Context, kind ExportKind, actorID *int64) (DataExport, error) {
	r.nextID++
	exp := DataExport{
		ID:        r.nextID,
		Kind:      kind,
		Status:    StatusPending,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	r.records[exp.ID] = exp
	return exp, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (DataExport, error) {
	exp, ok := r.records[id]
	if !ok {
		return DataExport{}, fmt.Errorf("export: %w", shared.ErrNotFound)
	}
	return exp, nil
}

func (r *memoryRepo) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	exp, ok := r.records[id]
	if !ok || exp.Status != StatusPending {
		return false, nil
	}
	exp.Status = StatusProcessing
	r.records[id] = exp
	return true, nil
}

func (r *memoryRepo) MarkSuccess(ctx context.Context, id int64, filePath string) error {
	exp := r.records[id]
	exp.Status = StatusSuccess
	exp.FilePath = filePath
	exp.Error = ""
	r.records[id] = exp
	return nil
}

func (r *memoryRepo) MarkFailed(ctx context.Context, id int64, message string) error {
	exp := r.records[id]
	exp.Status = StatusFailed
	exp.Error = message
	r.records[id] = exp
	return nil
}

type fakeOrders struct {
	items []orders.Order
	err   error
}

func (f *fakeOrders) List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	if filter.Page > 1 {
		return nil, len(f.items), nil
	}
	return f.items, len(f.items), nil
}

func sampleOrders() []orders.Order {
	return []orders.Order{
		{
			Number:       "ORD-20260828-AB12CD34",
			CustomerName: "Budi",
			Status:       orders.StatusPaid,
			Total:        decimal.RequireFromString("78000"),
			Channel:      "pos",
			CreatedAt:    time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
		{
			Number:       "ORD-20260828-EF56GH78",
			CustomerName: "Sari",
			Status:       orders.StatusPending,
			Total:        decimal.RequireFromString("36000"),
			Channel:      "online",
			CreatedAt:    time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestGenerateWritesWorkbookAndSettlesSuccess(t *testing.T) {
	repo := newMemoryRepo()
	dir := t.TempDir()
	svc := NewService(repo, &fakeOrders{items: sampleOrders()}, dir, slog.Default())

	exp, err := svc.Request(context.Background(), KindOrders, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Generate(context.Background(), exp.ID))

	got, err := svc.Get(context.Background(), exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, got.Status)
	require.Equal(t, filepath.Join(dir, fmt.Sprintf("orders-%d.xlsx", exp.ID)), got.FilePath)

	f, err := excelize.OpenFile(got.FilePath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	number, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	require.Equal(t, "ORD-20260828-AB12CD34", number)
	total, err := f.GetCellValue("Sheet1", "D3")
	require.NoError(t, err)
	require.Equal(t, "Rp 36.000", total)
}

func TestGenerateFailureSettlesFailedWithMessage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeOrders{err: errors.New("db down")}, t.TempDir(), slog.Default())

	exp, err := svc.Request(context.Background(), KindOrders, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Generate(context.Background(), exp.ID))

	got, err := svc.Get(context.Background(), exp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Contains(t, got.Error, "db down")
}

func TestGenerateSkipsAlreadyClaimedRecord(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeOrders{items: sampleOrders()}, t.TempDir(), slog.Default())

	exp, err := svc.Request(context.Background(), KindOrders, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Generate(context.Background(), exp.ID))

	// redelivery of the same job must not overwrite the settled record
	settled, err := svc.Get(context.Background(), exp.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Generate(context.Background(), exp.ID))

	again, err := svc.Get(context.Background(), exp.ID)
	require.NoError(t, err)
	require.Equal(t, settled, again)
}

func TestRequestRejectsUnknownKind(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeOrders{}, t.TempDir(), slog.Default())
	_, err := svc.Request(context.Background(), ExportKind("customers"), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}
