package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	due_date TIMESTAMPTZ,
	recurrence_pattern TEXT,
	recurrence_interval INTEGER,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS attachments (
	id UUID PRIMARY KEY,
	task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	mime_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_task_created ON attachments(task_id, created_at DESC);
`

// PostgresRemote implements domain.Remote on PostgreSQL. It is the shared
// store when several sessions or devices sync against the same collection.
type PostgresRemote struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database and bootstraps the schema.
func OpenPostgres(ctx context.Context, url string) (*PostgresRemote, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &PostgresRemote{pool: pool}, nil
}

// Pool exposes the connection pool so the attachment repository can share it.
func (r *PostgresRemote) Pool() *pgxpool.Pool { return r.pool }

// Close releases the connection pool.
func (r *PostgresRemote) Close() { r.pool.Close() }

// ListTasks returns the owner's tasks newest-created-first.
func (r *PostgresRemote) ListTasks(ctx context.Context, owner uuid.UUID) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, title, description, completed, due_date,
		       recurrence_pattern, recurrence_interval, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`,
		owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var (
			t           domain.Task
			description *string
			pattern     *string
			interval    *int
		)
		if err := rows.Scan(&t.ID, &t.Owner, &t.Title, &description, &t.Completed,
			&t.DueDate, &pattern, &interval, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			t.Description = *description
		}
		if pattern != nil && interval != nil {
			t.Recurrence = &domain.Recurrence{Pattern: domain.Pattern(*pattern), Interval: *interval}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertTask persists the task under a store-assigned identity and returns
// the canonical row.
func (r *PostgresRemote) InsertTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	canonical := t.Clone()
	canonical.ID = uuid.New()

	var description *string
	if canonical.Description != "" {
		description = &canonical.Description
	}
	var pattern *string
	var interval *int
	if canonical.Recurrence != nil {
		p := string(canonical.Recurrence.Pattern)
		pattern = &p
		interval = &canonical.Recurrence.Interval
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, completed, due_date,
		                   recurrence_pattern, recurrence_interval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		canonical.ID, canonical.Owner, canonical.Title, description, canonical.Completed,
		canonical.DueDate, pattern, interval, canonical.CreatedAt, canonical.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	return canonical, nil
}

// UpdateTask applies a partial update and stamps updated_at.
func (r *PostgresRemote) UpdateTask(ctx context.Context, id uuid.UUID, f domain.Fields) error {
	set := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }
	if f.Title != nil {
		set = append(set, "title = "+next())
		args = append(args, strings.TrimSpace(*f.Title))
	}
	if f.Description != nil {
		set = append(set, "description = "+next())
		args = append(args, nullablePtr(strings.TrimSpace(*f.Description)))
	}
	if f.Completed != nil {
		set = append(set, "completed = "+next())
		args = append(args, *f.Completed)
	}
	if f.ClearDueDate {
		set = append(set, "due_date = NULL")
	} else if f.DueDate != nil {
		set = append(set, "due_date = "+next())
		args = append(args, f.DueDate.UTC())
	}
	if f.ClearRecurrence {
		set = append(set, "recurrence_pattern = NULL", "recurrence_interval = NULL")
	} else if f.Recurrence != nil {
		set = append(set, "recurrence_pattern = "+next())
		args = append(args, string(f.Recurrence.Pattern))
		set = append(set, "recurrence_interval = "+next())
		args = append(args, f.Recurrence.Interval)
	}

	args = append(args, id)
	query := "UPDATE tasks SET " + strings.Join(set, ", ") + " WHERE id = " + fmt.Sprintf("$%d", len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task; attachment rows cascade.
func (r *PostgresRemote) DeleteTask(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func nullablePtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
