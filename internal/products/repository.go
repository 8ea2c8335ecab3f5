package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/platform/db"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// TxRepository groups the operations a product update needs inside one
// transaction: the product write itself plus the linked inventory record,
// so tracked-field changes are audited atomically.
type TxRepository interface {
	inventory.Store
	UpdateProduct(ctx context.Context, p Product) error
	FindInventoryByProductForUpdate(ctx context.Context, productID int64) (inventory.Inventory, error)
}

// Repository persists products in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ErrInventoryNotLinked indicates the product has no inventory record.
var ErrInventoryNotLinked = errors.New("products: no linked inventory")

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT id, name, sku, price, unit, is_active, created_at, updated_at FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		clause := ` AND is_active = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filters.Page, filters.PerPage, total)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Unit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, sku, price, unit, is_active, created_at, updated_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Unit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product: %w", shared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, sku, price, unit, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6) RETURNING id`, p.Name, p.SKU, p.Price, p.Unit, p.IsActive, now).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, fmt.Errorf("sku: %w", shared.ErrDuplicate)
		}
		return Product{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, Store: inventory.NewTxStore(tx)})
	})
}

type txRepository struct {
	inventory.Store
	tx pgx.Tx
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET name=$2, sku=$3, price=$4, unit=$5, is_active=$6, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Name, p.SKU, p.Price, p.Unit, p.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("sku: %w", shared.ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", p.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) FindInventoryByProductForUpdate(ctx context.Context, productID int64) (inventory.Inventory, error) {
	var inv inventory.Inventory
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, name, stock, unit, price, sku, created_at, updated_at
FROM inventories WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&inv.ID, &inv.ProductID, &inv.Name, &inv.Stock, &inv.Unit, &inv.Price, &inv.SKU, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Inventory{}, ErrInventoryNotLinked
		}
		return inventory.Inventory{}, err
	}
	return inv, nil
}
