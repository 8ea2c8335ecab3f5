package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Create(ctx context.Context, comp Composition) (int64, error)
	Get(ctx context.Context, id int64) (Composition, error)
	List(ctx context.Context, filter ListFilter) ([]Composition, int, error)
	ListBatchRuns(ctx context.Context, compositionID int64, limit int) ([]BatchRun, error)
}

// Notifier is the fire-and-forget notification sink. Failures are logged,
// never propagated into the allocation result.
type Notifier interface {
	Push(ctx context.Context, recipientID int64, title, description, link string) error
}

// Service computes and executes batch allocations.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs Service.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create validates and stores a new composition.
func (s *Service) Create(ctx context.Context, comp Composition) (Composition, error) {
	if comp.Name == "" {
		return Composition{}, fmt.Errorf("%w: nama komposisi wajib diisi", shared.ErrValidation)
	}
	if comp.Yield <= 0 {
		return Composition{}, fmt.Errorf("%w: production batch harus lebih dari nol", shared.ErrValidation)
	}
	if comp.LaborCost.IsNegative() {
		return Composition{}, fmt.Errorf("%w: biaya tenaga kerja tidak boleh negatif", shared.ErrValidation)
	}
	for _, cat := range comp.Categories {
		for _, item := range cat.Items {
			if item.StockUsed.IsNegative() {
				return Composition{}, fmt.Errorf("%w: pemakaian stok tidak boleh negatif", shared.ErrValidation)
			}
		}
	}
	id, err := s.repo.Create(ctx, comp)
	if err != nil {
		return Composition{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get fetches one composition including categories and items.
func (s *Service) Get(ctx context.Context, id int64) (Composition, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered composition page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Composition, int, error) {
	return s.repo.List(ctx, filter)
}

// BatchRuns lists the newest allocation runs of one composition.
func (s *Service) BatchRuns(ctx context.Context, compositionID int64, limit int) ([]BatchRun, error) {
	if _, err := s.repo.Get(ctx, compositionID); err != nil {
		return nil, err
	}
	return s.repo.ListBatchRuns(ctx, compositionID, limit)
}

// errNothingFeasible aborts the allocation transaction when no batch fits.
var errNothingFeasible = errors.New("production: zero feasible batches")

// Deploy allocates up to requested batches of a composition. The feasible
// count is capped by the most constrained ingredient; ingredient deductions,
// the finished-good credit and the batch log commit atomically. Partial
// completion is a success with a reduced count, never a partial mutation.
func (s *Service) Deploy(ctx context.Context, compositionID, requested, actorID int64) (Allocation, error) {
	comp, err := s.repo.Get(ctx, compositionID)
	if err != nil {
		return Allocation{}, err
	}

	alloc := Allocation{CompositionID: comp.ID, Requested: requested, Produced: decimal.Zero}

	// short-circuits happen before any transaction is opened
	reqs := requirements(comp)
	switch {
	case requested <= 0:
		s.push(ctx, actorID, "Produksi Gagal", fmt.Sprintf("%s: jumlah batch harus lebih dari nol.", comp.Name))
		return alloc, fmt.Errorf("%w: jumlah batch harus lebih dari nol", ErrNotDeployable)
	case comp.Yield <= 0:
		s.push(ctx, actorID, "Produksi Gagal", fmt.Sprintf("%s: production batch komposisi tidak valid.", comp.Name))
		return alloc, fmt.Errorf("%w: production batch tidak valid", ErrNotDeployable)
	case len(reqs) == 0:
		s.push(ctx, actorID, "Produksi Gagal", fmt.Sprintf("%s: komposisi tidak memiliki bahan.", comp.Name))
		return alloc, fmt.Errorf("%w: komposisi tidak memiliki bahan", ErrNotDeployable)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		stocks := make(map[int64]decimal.Decimal, len(reqs))
		names := make(map[int64]string, len(reqs))
		for _, req := range reqs {
			inv, err := repo.GetForUpdate(ctx, req.InventoryID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					// a vanished ingredient forces zero feasible batches
					return errNothingFeasible
				}
				return err
			}
			stocks[req.InventoryID] = inv.Stock
			names[req.InventoryID] = inv.Name
		}

		feasible := feasibleBatches(requested, reqs, stocks)
		if feasible <= 0 {
			return errNothingFeasible
		}

		batches := decimal.NewFromInt(feasible)
		for _, req := range reqs {
			quantity := req.NeedPerBatch.Mul(batches)
			if _, err := inventory.Adjust(ctx, repo, inventory.AdjustParams{
				InventoryID: req.InventoryID,
				Delta:       quantity.Neg(),
				Reason:      fmt.Sprintf("Produksi %s (%d batch)", comp.Name, feasible),
				ActorID:     actorID,
			}); err != nil {
				return err
			}
			alloc.Deductions = append(alloc.Deductions, Deduction{
				InventoryID: req.InventoryID,
				Name:        names[req.InventoryID],
				Quantity:    quantity,
			})
		}

		produced := batches.Mul(decimal.NewFromInt(comp.Yield))
		if _, err := inventory.Adjust(ctx, repo, inventory.AdjustParams{
			InventoryID: comp.TargetInventoryID,
			Delta:       produced,
			Reason:      fmt.Sprintf("Hasil produksi %s (%d batch)", comp.Name, feasible),
			ActorID:     actorID,
		}); err != nil {
			return err
		}

		if _, err := repo.InsertBatchRun(ctx, BatchRun{
			CompositionID: comp.ID,
			ActorID:       nullableActor(actorID),
			Processed:     feasible,
		}); err != nil {
			return err
		}

		alloc.Processed = feasible
		alloc.Produced = produced
		return nil
	})
	if err != nil {
		if errors.Is(err, errNothingFeasible) {
			s.push(ctx, actorID, "Produksi Gagal",
				fmt.Sprintf("%s: stok bahan tidak mencukupi, maksimal 0 batch dapat diproses.", comp.Name))
			return alloc, fmt.Errorf("%w: stok bahan tidak mencukupi", ErrNotDeployable)
		}
		alloc.Deductions = nil
		return Allocation{CompositionID: comp.ID, Requested: requested, Produced: decimal.Zero}, err
	}

	for _, d := range alloc.Deductions {
		s.push(ctx, actorID, "Pemakaian Bahan",
			fmt.Sprintf("%s terpakai %s untuk produksi %s.", d.Name, d.Quantity.String(), comp.Name))
	}
	if alloc.Processed == requested {
		s.push(ctx, actorID, "Produksi Selesai",
			fmt.Sprintf("%s: %d batch berhasil diproses.", comp.Name, alloc.Processed))
	} else {
		alloc.Partial = true
		s.push(ctx, actorID, "Produksi Sebagian",
			fmt.Sprintf("%s: diminta %d batch, hanya %d batch diproses karena stok bahan terbatas.",
				comp.Name, requested, alloc.Processed))
	}
	return alloc, nil
}

func (s *Service) push(ctx context.Context, recipientID int64, title, description string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, recipientID, title, description, ""); err != nil {
		s.logger.Warn("production notification failed", slog.Any("error", err))
	}
}

func nullableActor(actorID int64) *int64 {
	if actorID == 0 {
		return nil
	}
	return &actorID
}
