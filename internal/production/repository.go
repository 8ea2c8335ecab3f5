package production

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/platform/db"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// TxRepository is the transactional surface the allocator runs against. It
// embeds the inventory store so ingredient deductions, the finished-good
// credit and the batch log land in one transaction.
type TxRepository interface {
	inventory.Store
	InsertBatchRun(ctx context.Context, run BatchRun) (int64, error)
}

// Repository persists compositions and batch runs in PostgreSQL.
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
		return fn(ctx, &txRepository{tx: tx, Store: inventory.NewTxStore(tx)})
	})
}

// Create stores a composition with its categories and items atomically.
func (r *Repository) Create(ctx context.Context, comp Composition) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO hpp_compositions (name, target_inventory_id, labor_cost, production_batch, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING id`,
			comp.Name, comp.TargetInventoryID, comp.LaborCost, comp.Yield).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert composition: %w", err)
		}
		for _, cat := range comp.Categories {
			var catID int64
			err = tx.QueryRow(ctx, `INSERT INTO hpp_composition_categories (composition_id, name) VALUES ($1,$2) RETURNING id`,
				id, cat.Name).Scan(&catID)
			if err != nil {
				return fmt.Errorf("insert composition category: %w", err)
			}
			for _, item := range cat.Items {
				_, err = tx.Exec(ctx, `INSERT INTO hpp_composition_items (category_id, inventory_id, stock_used, cost) VALUES ($1,$2,$3,$4)`,
					catID, item.InventoryID, item.StockUsed, item.Cost)
				if err != nil {
					return fmt.Errorf("insert composition item: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get loads one composition with its categories and items.
func (r *Repository) Get(ctx context.Context, id int64) (Composition, error) {
	var comp Composition
	err := r.pool.QueryRow(ctx, `SELECT id, name, target_inventory_id, labor_cost, production_batch, created_at, updated_at
FROM hpp_compositions WHERE id=$1`, id).
		Scan(&comp.ID, &comp.Name, &comp.TargetInventoryID, &comp.LaborCost, &comp.Yield, &comp.CreatedAt, &comp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Composition{}, fmt.Errorf("composition: %w", shared.ErrNotFound)
		}
		return Composition{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT c.id, c.composition_id, c.name, i.id, i.category_id, i.inventory_id, i.stock_used, i.cost
FROM hpp_composition_categories c
LEFT JOIN hpp_composition_items i ON i.category_id = c.id
WHERE c.composition_id = $1
ORDER BY c.id ASC, i.id ASC`, id)
	if err != nil {
		return Composition{}, err
	}
	defer rows.Close()

	byCategory := make(map[int64]int)
	for rows.Next() {
		var cat Category
		var itemID, itemCategoryID, itemInventoryID *int64
		var stockUsed, cost *decimal.Decimal
		if err := rows.Scan(&cat.ID, &cat.CompositionID, &cat.Name, &itemID, &itemCategoryID, &itemInventoryID, &stockUsed, &cost); err != nil {
			return Composition{}, err
		}
		idx, ok := byCategory[cat.ID]
		if !ok {
			comp.Categories = append(comp.Categories, cat)
			idx = len(comp.Categories) - 1
			byCategory[cat.ID] = idx
		}
		if itemID != nil {
			comp.Categories[idx].Items = append(comp.Categories[idx].Items, Item{
				ID:          *itemID,
				CategoryID:  *itemCategoryID,
				InventoryID: *itemInventoryID,
				StockUsed:   *stockUsed,
				Cost:        *cost,
			})
		}
	}
	return comp, rows.Err()
}

// List returns a filtered composition page without nested items.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Composition, int, error) {
	query := `SELECT id, name, target_inventory_id, labor_cost, production_batch, created_at, updated_at FROM hpp_compositions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM hpp_compositions WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+filter.Search+"%")
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

	var items []Composition
	for rows.Next() {
		var comp Composition
		if err := rows.Scan(&comp.ID, &comp.Name, &comp.TargetInventoryID, &comp.LaborCost, &comp.Yield, &comp.CreatedAt, &comp.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, comp)
	}
	return items, total, rows.Err()
}

// ListBatchRuns returns the newest runs of one composition.
func (r *Repository) ListBatchRuns(ctx context.Context, compositionID int64, limit int) ([]BatchRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, composition_id, actor_id, processed, created_at
FROM hpp_batch_histories WHERE composition_id=$1 ORDER BY id DESC LIMIT $2`, compositionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var run BatchRun
		if err := rows.Scan(&run.ID, &run.CompositionID, &run.ActorID, &run.Processed, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type txRepository struct {
	inventory.Store
	tx pgx.Tx
}

func (r *txRepository) InsertBatchRun(ctx context.Context, run BatchRun) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO hpp_batch_histories (composition_id, actor_id, processed, created_at)
VALUES ($1,$2,$3,NOW()) RETURNING id`,
		run.CompositionID, run.ActorID, run.Processed).Scan(&id)
	return id, err
}
