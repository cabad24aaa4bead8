package domain

import "errors"

// Validation failures are rejected locally before any remote call.
var (
	ErrEmptyTitle    = errors.New("task title cannot be empty")
	ErrBadRecurrence = errors.New("recurrence requires a known pattern and interval >= 1")
	ErrTaskNotFound  = errors.New("task not found")
)

// Classification sentinels for remote-call failures. The store wraps the
// transport error with the sentinel matching the failed operation so callers
// can branch with errors.Is without depending on the transport.
var (
	ErrFetch  = errors.New("fetching tasks failed")
	ErrCreate = errors.New("creating task failed")
	ErrUpdate = errors.New("updating task failed")
	ErrDelete = errors.New("deleting task failed")
)
