package domain

import (
	"strings"
	"time"
)

// Filter selects a view over the task list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
	FilterToday     Filter = "today"
	FilterUpcoming  Filter = "upcoming"
)

// IsValid reports whether f is one of the known filter modes.
func (f Filter) IsValid() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted, FilterOverdue, FilterToday, FilterUpcoming:
		return true
	default:
		return false
	}
}

// StartOfDay truncates t to midnight in its own location. Due-date
// comparisons operate on calendar days, never exact timestamps.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Matches applies the filter predicate to a task, with "today" derived from
// now at calendar-day granularity.
func (f Filter) Matches(t Task, now time.Time) bool {
	today := StartOfDay(now)
	var due time.Time
	hasDue := t.DueDate != nil
	if hasDue {
		due = StartOfDay(t.DueDate.In(now.Location()))
	}

	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return !t.Completed && hasDue && due.Before(today)
	case FilterToday:
		return hasDue && due.Equal(today)
	case FilterUpcoming:
		return !t.Completed && hasDue && due.After(today)
	default:
		return true
	}
}

// MatchesQuery reports whether the task matches a free-text search: a
// case-insensitive substring match against title or description. An empty
// query matches everything; an absent description never matches a non-empty
// query on its own.
func (t Task) MatchesQuery(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), query)
}
