// Package services contains the application services of the synchronization
// core: the SyncStore that owns the local cache and the pure view projector
// that derives filtered lists and statistics from it.
package services

import (
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
)

// Stats are aggregate counts over the full, unfiltered cache. They use the
// same day-normalized predicates as the filters, so completed+pending always
// equals total.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
}

// Project derives the visible subset of tasks: the free-text search narrows
// first, then the filter predicate. Input order is preserved; the input slice
// is never mutated. Identical inputs always produce identical output.
func Project(tasks []domain.Task, filter domain.Filter, query string, now time.Time) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.MatchesQuery(query) {
			continue
		}
		if !filter.Matches(t, now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Compute tallies statistics over the full task list, independent of any
// active filter or search.
func Compute(tasks []domain.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if domain.FilterOverdue.Matches(t, now) {
			s.Overdue++
		}
		if domain.FilterToday.Matches(t, now) {
			s.Today++
		}
		if domain.FilterUpcoming.Matches(t, now) {
			s.Upcoming++
		}
	}
	return s
}
