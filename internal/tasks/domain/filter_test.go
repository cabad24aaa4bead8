package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskWith(t *testing.T, title string, completed bool, due *time.Time) domain.Task {
	t.Helper()
	tsk, err := domain.NewTask(uuid.New(), title, "", due, nil)
	require.NoError(t, err)
	tsk.Completed = completed
	return tsk
}

func TestFilter_Matches(t *testing.T) {
	now := time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	// Same calendar day as now, different time of day.
	todayMorning := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

	a := taskWith(t, "A", true, nil)
	b := taskWith(t, "B", false, &yesterday)
	c := taskWith(t, "C", false, &todayMorning)
	d := taskWith(t, "D", false, &tomorrow)
	e := taskWith(t, "E", true, &todayMorning)

	tests := []struct {
		filter domain.Filter
		task   domain.Task
		want   bool
	}{
		{domain.FilterAll, a, true},
		{domain.FilterAll, b, true},
		{domain.FilterPending, a, false},
		{domain.FilterPending, b, true},
		{domain.FilterPending, c, true},
		{domain.FilterCompleted, a, true},
		{domain.FilterCompleted, c, false},
		{domain.FilterOverdue, b, true},
		{domain.FilterOverdue, c, false},
		{domain.FilterOverdue, a, false},
		{domain.FilterToday, c, true},
		{domain.FilterToday, e, true}, // completed tasks still count as due today
		{domain.FilterToday, b, false},
		{domain.FilterUpcoming, d, true},
		{domain.FilterUpcoming, c, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter)+"/"+tt.task.Title, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.task, now))
		})
	}
}

func TestFilter_Overdue_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	// Due later today by timestamp, but the same calendar day: not overdue.
	laterToday := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)

	tsk := taskWith(t, "later", false, &laterToday)

	assert.False(t, domain.FilterOverdue.Matches(tsk, now))
	assert.True(t, domain.FilterToday.Matches(tsk, now))
}

func TestFilter_IsValid(t *testing.T) {
	assert.True(t, domain.FilterOverdue.IsValid())
	assert.False(t, domain.Filter("someday").IsValid())
}

func TestTask_MatchesQuery(t *testing.T) {
	groceries := taskWith(t, "Buy groceries", false, nil)
	callMom := taskWith(t, "Call mom", false, nil)
	withDesc, err := domain.NewTask(uuid.New(), "Errand", "pick up dry cleaning", nil, nil)
	require.NoError(t, err)

	assert.True(t, groceries.MatchesQuery("groce"))
	assert.True(t, groceries.MatchesQuery("GROCE"))
	assert.False(t, callMom.MatchesQuery("groce"))
	assert.True(t, withDesc.MatchesQuery("dry clean"))
	assert.True(t, callMom.MatchesQuery(""))
	assert.True(t, callMom.MatchesQuery("   "))
}
