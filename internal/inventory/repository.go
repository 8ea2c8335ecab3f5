package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/db"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction scoped
// to a Store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// Create inserts a new inventory record.
func (r *Repository) Create(ctx context.Context, inv Inventory) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO inventories (product_id, name, stock, unit, price, sku, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING id`,
		inv.ProductID, inv.Name, inv.Stock, inv.Unit, inv.Price, inv.SKU).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

// Get fetches one inventory record.
func (r *Repository) Get(ctx context.Context, id int64) (Inventory, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, product_id, name, stock, unit, price, sku, created_at, updated_at
FROM inventories WHERE id=$1`, id)
	return scanInventory(row)
}

// List returns a filtered page of inventories plus the unfiltered total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Inventory, int, error) {
	page := shared.NewPagination(filter.Page, filter.PerPage, 0)
	pattern := "%" + filter.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventories WHERE ($1 = '%%' OR name ILIKE $1 OR sku ILIKE $1)`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, product_id, name, stock, unit, price, sku, created_at, updated_at
FROM inventories
WHERE ($1 = '%%' OR name ILIKE $1 OR sku ILIKE $1)
ORDER BY name ASC
LIMIT $2 OFFSET $3`, pattern, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListHistories returns audit entries for an inventory record, newest first.
func (r *Repository) ListHistories(ctx context.Context, inventoryID int64, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, inventory_id, actor_id, title, description, type, previous_value, new_value, created_at
FROM inventory_histories WHERE inventory_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, inventoryID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.InventoryID, &entry.ActorID, &entry.Title, &entry.Description, &entry.Type, &entry.Previous, &entry.New, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByProduct resolves the inventory record linked to a sellable product.
func (r *Repository) GetByProduct(ctx context.Context, productID int64) (Inventory, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, product_id, name, stock, unit, price, sku, created_at, updated_at
FROM inventories WHERE product_id=$1`, productID)
	return scanInventory(row)
}

// txStore implements Store over a pgx transaction.
type txStore struct {
	tx pgx.Tx
}

// NewTxStore wraps a transaction into a Store. Other modules embed the
// result in their own transactional repositories so stock mutations share
// the caller's transaction boundary.
func NewTxStore(tx pgx.Tx) Store {
	return &txStore{tx: tx}
}

func (s *txStore) GetForUpdate(ctx context.Context, id int64) (Inventory, error) {
	row := s.tx.QueryRow(ctx, `SELECT id, product_id, name, stock, unit, price, sku, created_at, updated_at
FROM inventories WHERE id=$1 FOR UPDATE`, id)
	return scanInventory(row)
}

func (s *txStore) SetStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	tag, err := s.tx.Exec(ctx, `UPDATE inventories SET stock=$2, updated_at=NOW() WHERE id=$1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (s *txStore) UpdateFields(ctx context.Context, inv Inventory) error {
	tag, err := s.tx.Exec(ctx, `UPDATE inventories SET name=$2, price=$3, sku=$4, stock=$5, updated_at=NOW() WHERE id=$1`,
		inv.ID, inv.Name, inv.Price, inv.SKU, inv.Stock)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory %d: %w", inv.ID, shared.ErrNotFound)
	}
	return nil
}

func (s *txStore) InsertHistory(ctx context.Context, entry HistoryEntry) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO inventory_histories (inventory_id, actor_id, title, description, type, previous_value, new_value, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		entry.InventoryID, entry.ActorID, entry.Title, entry.Description, string(entry.Type), entry.Previous, entry.New, entry.CreatedAt).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (Inventory, error) {
	var inv Inventory
	err := row.Scan(&inv.ID, &inv.ProductID, &inv.Name, &inv.Stock, &inv.Unit, &inv.Price, &inv.SKU, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inventory{}, fmt.Errorf("inventory: %w", shared.ErrNotFound)
		}
		return Inventory{}, err
	}
	return inv, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("sku: %w", shared.ErrDuplicate)
	}
	return err
}
