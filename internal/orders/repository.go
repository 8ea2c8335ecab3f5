package orders

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

// TxRepository groups everything one reconciliation needs inside a single
// transaction: order and line writes plus the inventory ledger store, so a
// failed line rolls back every stock movement of the request.
type TxRepository interface {
	inventory.Store
	InsertOrder(ctx context.Context, o Order) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	UpdateCustomerName(ctx context.Context, id int64, name string) error
	SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error
	SetOrderStatus(ctx context.Context, id int64, status Status) error
	InsertLine(ctx context.Context, line Line) (int64, error)
	UpdateLineQuantity(ctx context.Context, lineID, quantity int64) error
	DeleteLine(ctx context.Context, lineID int64) error
	GetLines(ctx context.Context, orderID int64) ([]Line, error)
	GetLineProduct(ctx context.Context, productID int64) (LineProduct, error)
}

// Repository persists orders in PostgreSQL.
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

// Get fetches one order with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `SELECT id, number, customer_name, status, total, channel, created_at, updated_at
FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Number, &o.CustomerName, &o.Status, &o.Total, &o.Channel, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("order: %w", shared.ErrNotFound)
		}
		return Order{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity FROM order_lines WHERE order_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

// List returns a filtered order page, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	query := `SELECT id, number, customer_name, status, total, channel, created_at, updated_at FROM orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM orders WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Status != "" {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		argCount++
		clause := ` AND (number ILIKE $` + strconv.Itoa(argCount) + ` OR customer_name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.Status, &o.Total, &o.Channel, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

type txRepository struct {
	inventory.Store
	tx pgx.Tx
}

func (r *txRepository) InsertOrder(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO orders (number, customer_name, status, total, channel, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id`,
		o.Number, o.CustomerName, string(o.Status), o.Total, o.Channel).Scan(&id)
	return id, err
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.tx.QueryRow(ctx, `SELECT id, number, customer_name, status, total, channel, created_at, updated_at
FROM orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&o.ID, &o.Number, &o.CustomerName, &o.Status, &o.Total, &o.Channel, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("order: %w", shared.ErrNotFound)
		}
		return Order{}, err
	}
	return o, nil
}

func (r *txRepository) UpdateCustomerName(ctx context.Context, id int64, name string) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET customer_name=$2, updated_at=NOW() WHERE id=$1`, id, name)
	return err
}

func (r *txRepository) SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET total=$2, updated_at=NOW() WHERE id=$1`, id, total)
	return err
}

func (r *txRepository) SetOrderStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	return err
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO order_lines (order_id, product_id, quantity) VALUES ($1,$2,$3) RETURNING id`,
		line.OrderID, line.ProductID, line.Quantity).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateLineQuantity(ctx context.Context, lineID, quantity int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE order_lines SET quantity=$2 WHERE id=$1`, lineID, quantity)
	return err
}

func (r *txRepository) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM order_lines WHERE id=$1`, lineID)
	return err
}

func (r *txRepository) GetLines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, order_id, product_id, quantity FROM order_lines WHERE order_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *txRepository) GetLineProduct(ctx context.Context, productID int64) (LineProduct, error) {
	var lp LineProduct
	err := r.tx.QueryRow(ctx, `SELECT p.id, p.name, p.price, i.id
FROM products p JOIN inventories i ON i.product_id = p.id
WHERE p.id=$1`, productID).Scan(&lp.ProductID, &lp.Name, &lp.Price, &lp.InventoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LineProduct{}, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
		}
		return LineProduct{}, err
	}
	return lp, nil
}
