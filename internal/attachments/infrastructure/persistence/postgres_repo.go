package persistence

import (
	"context"

	"github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements domain.Repository on the task store's
// Postgres pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps a pool whose schema already carries the
// attachments table.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListByTask returns the task's attachments newest-first.
func (r *PostgresRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, file_name, storage_path, size_bytes, mime_type, created_at
		FROM attachments
		WHERE task_id = $1
		ORDER BY created_at DESC, id DESC`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileName, &a.StoragePath,
			&a.SizeBytes, &a.MimeType, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// Insert records attachment metadata.
func (r *PostgresRepository) Insert(ctx context.Context, a domain.Attachment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attachments (id, task_id, file_name, storage_path, size_bytes, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.TaskID, a.FileName, a.StoragePath, a.SizeBytes, a.MimeType, a.CreatedAt)
	return err
}

// Delete removes a metadata row.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM attachments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
