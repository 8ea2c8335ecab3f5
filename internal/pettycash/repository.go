package pettycash

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/db"
)

// cashBoxLockKey serializes balance-checked writes on the single cash box.
const cashBoxLockKey = 420001

// TxRepository is the transactional surface for balance-guarded writes.
type TxRepository interface {
	LockCashBox(ctx context.Context) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	Insert(ctx context.Context, e Entry) (int64, error)
}

// Repository persists petty cash entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Balance derives the current balance outside a transaction, for display.
func (r *Repository) Balance(ctx context.Context) (decimal.Decimal, error) {
	return scanBalance(ctx, r.pool)
}

// List returns a filtered entry page, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	query := `SELECT id, type, amount, description, actor_id, created_at FROM petty_cash_entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM petty_cash_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Type != "" {
		argCount++
		clause := ` AND type = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(filter.Type))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query += ` ORDER BY id DESC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.Description, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockCashBox(ctx context.Context) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, cashBoxLockKey)
	return err
}

func (r *txRepository) Balance(ctx context.Context) (decimal.Decimal, error) {
	return scanBalance(ctx, r.tx)
}

func (r *txRepository) Insert(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO petty_cash_entries (type, amount, description, actor_id, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`,
		string(e.Type), e.Amount, e.Description, e.ActorID).Scan(&id)
	return id, err
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanBalance(ctx context.Context, q rowQuerier) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN type='debit' THEN amount ELSE -amount END), 0)
FROM petty_cash_entries`).Scan(&balance)
	return balance, err
}
