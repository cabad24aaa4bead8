package domain

import (
	"context"

	"github.com/google/uuid"
)

// Remote is the contract the synchronization core expects from the remote
// task store. Implementations live in infrastructure; the store never sees
// the transport.
type Remote interface {
	// ListTasks returns the owner's full task list, newest-created-first.
	ListTasks(ctx context.Context, owner uuid.UUID) ([]Task, error)
	// InsertTask persists a new task and returns the canonical row. The
	// returned task replaces the caller's provisional entry, so its ID is
	// authoritative.
	InsertTask(ctx context.Context, t Task) (Task, error)
	// UpdateTask applies a partial update to the identified task.
	UpdateTask(ctx context.Context, id uuid.UUID, f Fields) error
	// DeleteTask removes the identified task.
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

// Feed is the change-notification channel for an owner's task collection.
// Subscribe registers a callback fired on any insert, update, or delete
// affecting the owner's tasks regardless of origin; the returned cancel
// function tears the subscription down. Publish fans a change out to every
// subscriber of the owner, including ones in other sessions.
type Feed interface {
	Subscribe(ctx context.Context, owner uuid.UUID, onChange func()) (cancel func(), err error)
	Publish(ctx context.Context, owner uuid.UUID) error
}
