// Package persistence provides the remote task store implementations the
// synchronization core talks to: a local SQLite store, a Postgres store, and
// a circuit-breaker decorator applicable to either.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so lexicographic ordering of the stored text
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	completed INTEGER NOT NULL DEFAULT 0,
	due_date TEXT,
	recurrence_pattern TEXT,
	recurrence_interval INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	mime_type TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_task_created ON attachments(task_id, created_at DESC);
`

// SQLiteRemote implements domain.Remote on a local SQLite database. It is
// the default store in local mode. Deleting a task cascades to its
// attachment rows through the schema's foreign key, which is the store's
// referential policy rather than the core's responsibility.
type SQLiteRemote struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and bootstraps the
// schema, creating the parent directory if needed. Use ":memory:" for an
// ephemeral store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRemote, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// The modernc driver does not allow concurrent writers on one connection
	// pool; a single connection sidesteps SQLITE_BUSY under test load.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &SQLiteRemote{db: db}, nil
}

// DB exposes the underlying handle so the attachment repository can share
// the same database file.
func (r *SQLiteRemote) DB() *sql.DB { return r.db }

// Close releases the database handle.
func (r *SQLiteRemote) Close() error { return r.db.Close() }

// ListTasks returns the owner's tasks newest-created-first.
func (r *SQLiteRemote) ListTasks(ctx context.Context, owner uuid.UUID) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, completed, due_date,
		       recurrence_pattern, recurrence_interval, created_at, updated_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`,
		owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertTask persists the task under a store-assigned identity and returns
// the canonical row.
func (r *SQLiteRemote) InsertTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	canonical := t.Clone()
	canonical.ID = uuid.New()

	var description sql.NullString
	if canonical.Description != "" {
		description = sql.NullString{String: canonical.Description, Valid: true}
	}
	var dueDate sql.NullString
	if canonical.DueDate != nil {
		dueDate = sql.NullString{String: canonical.DueDate.Format(timeLayout), Valid: true}
	}
	var pattern sql.NullString
	var interval sql.NullInt64
	if canonical.Recurrence != nil {
		pattern = sql.NullString{String: string(canonical.Recurrence.Pattern), Valid: true}
		interval = sql.NullInt64{Int64: int64(canonical.Recurrence.Interval), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, completed, due_date,
		                   recurrence_pattern, recurrence_interval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		canonical.ID.String(),
		canonical.Owner.String(),
		canonical.Title,
		description,
		boolToInt(canonical.Completed),
		dueDate,
		pattern,
		interval,
		canonical.CreatedAt.Format(timeLayout),
		canonical.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return domain.Task{}, err
	}
	return canonical, nil
}

// UpdateTask applies a partial update and stamps updated_at.
func (r *SQLiteRemote) UpdateTask(ctx context.Context, id uuid.UUID, f domain.Fields) error {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeLayout)}

	if f.Title != nil {
		set = append(set, "title = ?")
		args = append(args, strings.TrimSpace(*f.Title))
	}
	if f.Description != nil {
		set = append(set, "description = ?")
		args = append(args, nullableString(strings.TrimSpace(*f.Description)))
	}
	if f.Completed != nil {
		set = append(set, "completed = ?")
		args = append(args, boolToInt(*f.Completed))
	}
	if f.ClearDueDate {
		set = append(set, "due_date = NULL")
	} else if f.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, f.DueDate.UTC().Format(timeLayout))
	}
	if f.ClearRecurrence {
		set = append(set, "recurrence_pattern = NULL", "recurrence_interval = NULL")
	} else if f.Recurrence != nil {
		set = append(set, "recurrence_pattern = ?", "recurrence_interval = ?")
		args = append(args, string(f.Recurrence.Pattern), f.Recurrence.Interval)
	}

	args = append(args, id.String())
	res, err := r.db.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task; attachment rows go with it via the cascade.
func (r *SQLiteRemote) DeleteTask(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		idStr, ownerStr, createdStr, updatedStr string
		title                                   string
		description, dueStr, pattern            sql.NullString
		completed                               int
		interval                                sql.NullInt64
	)
	if err := row.Scan(&idStr, &ownerStr, &title, &description, &completed,
		&dueStr, &pattern, &interval, &createdStr, &updatedStr); err != nil {
		return domain.Task{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing task id: %w", err)
	}
	owner, err := uuid.Parse(ownerStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing owner id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	t := domain.Task{
		ID:          id,
		Owner:       owner,
		Title:       title,
		Description: description.String,
		Completed:   completed != 0,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if dueStr.Valid {
		due, err := time.Parse(time.RFC3339Nano, dueStr.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("parsing due_date: %w", err)
		}
		t.DueDate = &due
	}
	if pattern.Valid && interval.Valid {
		t.Recurrence = &domain.Recurrence{
			Pattern:  domain.Pattern(pattern.String),
			Interval: int(interval.Int64),
		}
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsNotFound reports whether the error marks a missing row on either store.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, sql.ErrNoRows)
}
