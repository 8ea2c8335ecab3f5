package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
	Create(ctx context.Context, inv Inventory) (int64, error)
	Get(ctx context.Context, id int64) (Inventory, error)
	List(ctx context.Context, filter ListFilter) ([]Inventory, int, error)
	ListHistories(ctx context.Context, inventoryID int64, limit int) ([]HistoryEntry, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes a new inventory record.
type CreateInput struct {
	ProductID *int64
	Name      string
	Stock     decimal.Decimal
	Unit      string
	Price     decimal.Decimal
	SKU       string
}

// UpdateInput carries proposed tracked-field values for an existing record.
type UpdateInput struct {
	ID       int64
	Proposed Proposed
	ActorID  int64
}

// AdjustInput describes a manual stock adjustment.
type AdjustInput struct {
	InventoryID int64
	Delta       decimal.Decimal
	Reason      string
	ActorID     int64
}

// Create registers a new inventory record. Creation itself is not audited;
// history starts with the first change.
func (s *Service) Create(ctx context.Context, input CreateInput) (Inventory, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" || input.SKU == "" {
		return Inventory{}, errors.New("inventory: name and sku required")
	}
	if input.Stock.IsNegative() {
		return Inventory{}, errors.New("inventory: initial stock must be >= 0")
	}
	if input.Price.IsNegative() {
		return Inventory{}, errors.New("inventory: price must be >= 0")
	}
	inv := Inventory{
		ProductID: input.ProductID,
		Name:      input.Name,
		Stock:     input.Stock,
		Unit:      input.Unit,
		Price:     input.Price,
		SKU:       input.SKU,
	}
	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return Inventory{}, err
	}
	return s.repo.Get(ctx, id)
}

// Adjust applies a stock delta through the ledger inside one transaction.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Movement, error) {
	if input.Reason == "" {
		input.Reason = "Penyesuaian stok manual"
	}
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, store Store) error {
		var err error
		movement, err = Adjust(ctx, store, AdjustParams{
			InventoryID: input.InventoryID,
			Delta:       input.Delta,
			Reason:      input.Reason,
			ActorID:     input.ActorID,
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// Update applies proposed tracked-field values, recording one history entry
// per field that actually changed. Unchanged fields produce no entries.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Inventory, []HistoryEntry, error) {
	if input.Proposed.Stock != nil && input.Proposed.Stock.IsNegative() {
		return Inventory{}, nil, fmt.Errorf("%w: stock below zero", ErrInsufficientStock)
	}
	var (
		updated Inventory
		entries []HistoryEntry
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, store Store) error {
		inv, err := store.GetForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		entries, err = RecordChanges(ctx, store, inv, input.Proposed, input.ActorID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			updated = inv
			return nil
		}
		input.Proposed.Apply(&inv)
		if err := store.UpdateFields(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return Inventory{}, nil, err
	}
	return updated, entries, nil
}

// Get fetches one inventory record.
func (s *Service) Get(ctx context.Context, id int64) (Inventory, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered inventory page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Inventory, int, error) {
	return s.repo.List(ctx, filter)
}

// Histories lists audit entries for a record.
func (s *Service) Histories(ctx context.Context, inventoryID int64, limit int) ([]HistoryEntry, error) {
	return s.repo.ListHistories(ctx, inventoryID, limit)
}
