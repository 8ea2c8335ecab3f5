package exports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Repository persists export records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores a pending export record.
func (r *Repository) Create(ctx context.Context, kind ExportKind, actorID *int64) (DataExport, error) {
	var exp DataExport
	err := r.pool.QueryRow(ctx, `INSERT INTO data_exports (kind, status, actor_id, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW()) RETURNING id, kind, status, actor_id, created_at, updated_at`,
		string(kind), string(StatusPending), actorID).
		Scan(&exp.ID, &exp.Kind, &exp.Status, &exp.ActorID, &exp.CreatedAt, &exp.UpdatedAt)
	return exp, err
}

// Get fetches one export record.
func (r *Repository) Get(ctx context.Context, id int64) (DataExport, error) {
	var exp DataExport
	var filePath, errMsg *string
	err := r.pool.QueryRow(ctx, `SELECT id, kind, status, file_path, error, actor_id, created_at, updated_at
FROM data_exports WHERE id=$1`, id).
		Scan(&exp.ID, &exp.Kind, &exp.Status, &filePath, &errMsg, &exp.ActorID, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DataExport{}, fmt.Errorf("export: %w", shared.ErrNotFound)
		}
		return DataExport{}, err
	}
	if filePath != nil {
		exp.FilePath = *filePath
	}
	if errMsg != nil {
		exp.Error = *errMsg
	}
	return exp, nil
}

// MarkProcessing flips a pending record to processing. It reports false when
// the record is no longer pending, which guards duplicate job deliveries.
func (r *Repository) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE data_exports SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		string(StatusProcessing), id, string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSuccess finishes a record with the generated file path.
func (r *Repository) MarkSuccess(ctx context.Context, id int64, filePath string) error {
	_, err := r.pool.Exec(ctx, `UPDATE data_exports SET status=$1, file_path=$2, error=NULL, updated_at=NOW() WHERE id=$3`,
		string(StatusSuccess), filePath, id)
	return err
}

// MarkFailed finishes a record with a diagnostic message.
func (r *Repository) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := r.pool.Exec(ctx, `UPDATE data_exports SET status=$1, error=$2, updated_at=NOW() WHERE id=$3`,
		string(StatusFailed), message, id)
	return err
}
