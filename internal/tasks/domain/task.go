// Package domain holds the task model, the recurrence engine, the filter
// predicates, and the contract the synchronization core expects from the
// remote store.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pattern is the recurrence cadence of a task.
type Pattern string

const (
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
)

// IsValid reports whether p is one of the known patterns.
func (p Pattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	default:
		return false
	}
}

// Recurrence describes how a task repeats. Both fields are always set on a
// recurring task; a non-recurring task carries a nil *Recurrence.
type Recurrence struct {
	Pattern  Pattern `json:"pattern"`
	Interval int     `json:"interval"`
}

// Task is a single entry in the owner's list. Tasks are passed and stored by
// value; the store hands out copies and merges partial updates itself, so the
// model stays a plain struct rather than an encapsulated aggregate.
type Task struct {
	ID          uuid.UUID   `json:"id"`
	Owner       uuid.UUID   `json:"owner"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Completed   bool        `json:"completed"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewTask builds a provisional task for optimistic insertion. The generated ID
// is temporary until the remote store confirms the insert and hands back the
// canonical row.
func NewTask(owner uuid.UUID, title, description string, dueDate *time.Time, rec *Recurrence) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	if rec != nil {
		if !rec.Pattern.IsValid() {
			return Task{}, ErrBadRecurrence
		}
		if rec.Interval < 1 {
			return Task{}, ErrBadRecurrence
		}
	}

	now := time.Now().UTC()
	t := Task{
		ID:          uuid.New(),
		Owner:       owner,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dueDate != nil {
		d := dueDate.UTC()
		t.DueDate = &d
	}
	if rec != nil {
		r := *rec
		t.Recurrence = &r
	}
	return t, nil
}

// Clone returns a deep copy. The pointer fields are duplicated so a snapshot
// taken for rollback cannot be mutated through the live cache entry.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Recurrence != nil {
		r := *t.Recurrence
		c.Recurrence = &r
	}
	return c
}

// IsRecurring reports whether the task repeats after completion.
func (t Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// Fields carries a partial update. Nil pointers mean "leave unchanged"; the
// Clear flags express setting a nullable field back to absent.
type Fields struct {
	Title           *string
	Description     *string
	Completed       *bool
	DueDate         *time.Time
	ClearDueDate    bool
	Recurrence      *Recurrence
	ClearRecurrence bool
}

// IsZero reports whether the update changes nothing.
func (f Fields) IsZero() bool {
	return f.Title == nil && f.Description == nil && f.Completed == nil &&
		f.DueDate == nil && !f.ClearDueDate && f.Recurrence == nil && !f.ClearRecurrence
}

// Validate rejects updates that would break the model's invariants before any
// network round trip is attempted.
func (f Fields) Validate() error {
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return ErrEmptyTitle
	}
	if f.Recurrence != nil {
		if !f.Recurrence.Pattern.IsValid() || f.Recurrence.Interval < 1 {
			return ErrBadRecurrence
		}
	}
	return nil
}

// Apply merges the partial update into the task and stamps UpdatedAt.
func (t *Task) Apply(f Fields) {
	if f.Title != nil {
		t.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		t.Description = strings.TrimSpace(*f.Description)
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	if f.ClearDueDate {
		t.DueDate = nil
	} else if f.DueDate != nil {
		d := f.DueDate.UTC()
		t.DueDate = &d
	}
	if f.ClearRecurrence {
		t.Recurrence = nil
	} else if f.Recurrence != nil {
		r := *f.Recurrence
		t.Recurrence = &r
	}
	t.UpdatedAt = time.Now().UTC()
}
