// Package persistence stores attachment metadata alongside the task tables,
// sharing the task store's database handle so the ON DELETE CASCADE foreign
// key can do its work.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/google/uuid"
)

// ErrAttachmentNotFound marks a delete against a missing metadata row.
var ErrAttachmentNotFound = errors.New("attachment not found")

// timeLayout matches the task store's fixed-width timestamp encoding.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements domain.Repository on the task store's SQLite
// database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open database that already carries the
// attachments table (bootstrapped by the task store schema).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListByTask returns the task's attachments newest-first.
func (r *SQLiteRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, file_name, storage_path, size_bytes, mime_type, created_at
		FROM attachments
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC`,
		taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var (
			a                          domain.Attachment
			idStr, taskStr, createdStr string
		)
		if err := rows.Scan(&idStr, &taskStr, &a.FileName, &a.StoragePath,
			&a.SizeBytes, &a.MimeType, &createdStr); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parsing attachment id: %w", err)
		}
		if a.TaskID, err = uuid.Parse(taskStr); err != nil {
			return nil, fmt.Errorf("parsing task id: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// Insert records attachment metadata.
func (r *SQLiteRepository) Insert(ctx context.Context, a domain.Attachment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attachments (id, task_id, file_name, storage_path, size_bytes, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.TaskID.String(), a.FileName, a.StoragePath,
		a.SizeBytes, a.MimeType, a.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a metadata row.
func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
