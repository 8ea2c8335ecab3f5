package pettycash

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type memoryRepo struct {
	entries []Entry
	nextID  int64
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := append([]Entry(nil), r.entries...)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.entries = snap
		return err
	}
	return nil
}

func (r *memoryRepo) Balance(ctx context.Context) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, e := range r.entries {
		if e.Type == TypeDebit {
			balance = balance.Add(e.Amount)
		} else {
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	return r.entries, len(r.entries), nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) LockCashBox(ctx context.Context) error { return nil }

func (t *memoryTx) Balance(ctx context.Context) (decimal.Decimal, error) {
	return t.repo.Balance(ctx)
}

func (t *memoryTx) Insert(ctx context.Context, e Entry) (int64, error) {
	t.repo.nextID++
	e.ID = t.repo.nextID
	t.repo.entries = append(t.repo.entries, e)
	return e.ID, nil
}

func TestRecordDebitAndCredit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.Record(context.Background(), RecordInput{
		Type:        TypeDebit,
		Amount:      decimal.RequireFromString("100000"),
		Description: "Setoran awal",
		ActorID:     7,
	})
	require.NoError(t, err)

	entry, err := svc.Record(context.Background(), RecordInput{
		Type:        TypeCredit,
		Amount:      decimal.RequireFromString("25000"),
		Description: "Beli galon",
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)

	balance, err := svc.Balance(context.Background())
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.RequireFromString("75000")))
}

func TestRecordCreditOverdrawRejected(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.Record(context.Background(), RecordInput{
		Type:        TypeDebit,
		Amount:      decimal.RequireFromString("10000"),
		Description: "Setoran",
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), RecordInput{
		Type:        TypeCredit,
		Amount:      decimal.RequireFromString("10001"),
		Description: "Terlalu besar",
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Len(t, repo.entries, 1)
}

func TestRecordValidation(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.Record(context.Background(), RecordInput{
		Type: EntryType("transfer"), Amount: decimal.RequireFromString("1"), Description: "x",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Record(context.Background(), RecordInput{
		Type: TypeDebit, Amount: decimal.Zero, Description: "x",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Record(context.Background(), RecordInput{
		Type: TypeDebit, Amount: decimal.RequireFromString("1"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestExactDepletionAllowed(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.Record(context.Background(), RecordInput{
		Type: TypeDebit, Amount: decimal.RequireFromString("500"), Description: "Setoran",
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), RecordInput{
		Type: TypeCredit, Amount: decimal.RequireFromString("500"), Description: "Habiskan",
	})
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background())
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}
