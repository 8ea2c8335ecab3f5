package exports

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// RepositoryPort abstracts export record persistence.
type RepositoryPort interface {
	Create(ctx context.Context, kind ExportKind, actorID *int64) (DataExport, error)
	Get(ctx context.Context, id int64) (DataExport, error)
	MarkProcessing(ctx context.Context, id int64) (bool, error)
	MarkSuccess(ctx context.Context, id int64, filePath string) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

// OrderSource supplies the rows a workbook is rendered from.
type OrderSource interface {
	List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, int, error)
}

// Service tracks export records and renders workbooks in the worker.
type Service struct {
	repo      RepositoryPort
	ordersSrc OrderSource
	dir       string
	logger    *slog.Logger
}

// NewService constructs Service. dir is the directory finished workbooks are
// written to.
func NewService(repo RepositoryPort, ordersSrc OrderSource, dir string, logger *slog.Logger) *Service {
	return &Service{repo: repo, ordersSrc: ordersSrc, dir: dir, logger: logger}
}

// Request creates a pending export record. The caller enqueues the matching
// background job with the returned id.
func (s *Service) Request(ctx context.Context, kind ExportKind, actorID int64) (DataExport, error) {
	if kind != KindOrders {
		return DataExport{}, fmt.Errorf("%w: jenis ekspor tidak dikenal", shared.ErrValidation)
	}
	return s.repo.Create(ctx, kind, nullableActor(actorID))
}

// Get fetches one export record for status polling.
func (s *Service) Get(ctx context.Context, id int64) (DataExport, error) {
	return s.repo.Get(ctx, id)
}

// Generate runs in the worker: renders the workbook and settles the record
// on success or failed. A record that is no longer pending is skipped, which
// makes duplicate job deliveries harmless.
func (s *Service) Generate(ctx context.Context, id int64) error {
	claimed, err := s.repo.MarkProcessing(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Info("export already claimed", slog.Int64("export_id", id))
		return nil
	}

	path, err := s.render(ctx, id)
	if err != nil {
		s.logger.Error("export generation failed", slog.Int64("export_id", id), slog.Any("error", err))
		if markErr := s.repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			return markErr
		}
		return nil
	}
	return s.repo.MarkSuccess(ctx, id, path)
}

func (s *Service) render(ctx context.Context, id int64) (string, error) {
	const pageSize = 500
	var all []orders.Order
	for page := 1; ; page++ {
		batch, total, err := s.ordersSrc.List(ctx, orders.ListFilter{Page: page, PerPage: pageSize})
		if err != nil {
			return "", fmt.Errorf("list orders: %w", err)
		}
		all = append(all, batch...)
		if len(all) >= total || len(batch) == 0 {
			break
		}
	}

	f := buildOrdersWorkbook(all)
	path := filepath.Join(s.dir, fmt.Sprintf("orders-%d.xlsx", id))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func nullableActor(actorID int64) *int64 {
	if actorID == 0 {
		return nil
	}
	return &actorID
}
