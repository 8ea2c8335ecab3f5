package notify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one notification and returns it with identity filled in.
func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO notifications (recipient_id, title, description, link, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id, created_at`,
		n.RecipientID, n.Title, n.Description, n.Link).Scan(&n.ID, &n.CreatedAt)
	return n, err
}

// ListByRecipient returns the newest notifications of one recipient.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, recipient_id, title, description, link, read_at, created_at
FROM notifications WHERE recipient_id=$1 ORDER BY id DESC LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Description, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkRead stamps one notification of a recipient as read.
func (r *Repository) MarkRead(ctx context.Context, recipientID, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET read_at=NOW() WHERE id=$1 AND recipient_id=$2 AND read_at IS NULL`, id, recipientID)
	return err
}
