package pettycash

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
}

// Service keeps the petty cash book. Credits are balance-guarded under the
// cash box lock so concurrent withdrawals cannot overdraw.
type Service struct {
	repo RepositoryPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RecordInput describes one new entry.
type RecordInput struct {
	Type        EntryType
	Amount      decimal.Decimal
	Description string
	ActorID     int64
}

// Record appends a debit or credit entry. A credit exceeding the current
// balance fails with ErrInsufficientBalance and writes nothing.
func (s *Service) Record(ctx context.Context, in RecordInput) (Entry, error) {
	if !in.Type.Valid() {
		return Entry{}, fmt.Errorf("%w: jenis entri tidak dikenal", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return Entry{}, fmt.Errorf("%w: jumlah harus lebih dari nol", shared.ErrValidation)
	}
	if in.Description == "" {
		return Entry{}, fmt.Errorf("%w: keterangan wajib diisi", shared.ErrValidation)
	}

	entry := Entry{
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		ActorID:     nullableActor(in.ActorID),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if err := repo.LockCashBox(ctx); err != nil {
			return err
		}
		if in.Type == TypeCredit {
			balance, err := repo.Balance(ctx)
			if err != nil {
				return err
			}
			if balance.LessThan(in.Amount) {
				return fmt.Errorf("%w: saldo %s, diminta %s", ErrInsufficientBalance, shared.FormatRupiah(balance), shared.FormatRupiah(in.Amount))
			}
		}
		id, err := repo.Insert(ctx, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Balance returns the current cash box balance.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.Balance(ctx)
}

// List returns a filtered entry page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	return s.repo.List(ctx, filter)
}

func nullableActor(actorID int64) *int64 {
	if actorID == 0 {
		return nil
	}
	return &actorID
}
