package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *persistence.SQLiteRemote {
	t.Helper()
	remote, err := persistence.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })
	return remote
}

func mustTask(t *testing.T, owner uuid.UUID, title string) domain.Task {
	t.Helper()
	tsk, err := domain.NewTask(owner, title, "", nil, nil)
	require.NoError(t, err)
	return tsk
}

func TestOpenSQLite_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".taskdeck", "taskdeck.db")

	remote, err := persistence.OpenSQLite(context.Background(), path)

	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })
	_, err = os.Stat(path)
	assert.NoError(t, err)

	tasks, err := remote.ListTasks(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSQLiteRemote_InsertAssignsCanonicalID(t *testing.T) {
	remote := openSQLite(t)
	owner := uuid.New()
	provisional := mustTask(t, owner, "task")

	canonical, err := remote.InsertTask(context.Background(), provisional)

	require.NoError(t, err)
	assert.NotEqual(t, provisional.ID, canonical.ID)
	assert.Equal(t, provisional.Title, canonical.Title)
	assert.Equal(t, owner, canonical.Owner)
}

func TestSQLiteRemote_ListNewestFirst(t *testing.T) {
	remote := openSQLite(t)
	owner := uuid.New()
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		tsk := mustTask(t, owner, title)
		tsk.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		tsk.UpdatedAt = tsk.CreatedAt
		_, err := remote.InsertTask(ctx, tsk)
		require.NoError(t, err)
	}

	tasks, err := remote.ListTasks(ctx, owner)

	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func TestSQLiteRemote_ListScopedToOwner(t *testing.T) {
	remote := openSQLite(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	_, err := remote.InsertTask(ctx, mustTask(t, owner, "mine"))
	require.NoError(t, err)
	_, err = remote.InsertTask(ctx, mustTask(t, other, "theirs"))
	require.NoError(t, err)

	tasks, err := remote.ListTasks(ctx, owner)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "mine", tasks[0].Title)
}

func TestSQLiteRemote_RoundTripsOptionalFields(t *testing.T) {
	remote := openSQLite(t)
	ctx := context.Background()
	owner := uuid.New()

	due := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	rec := &domain.Recurrence{Pattern: domain.PatternMonthly, Interval: 2}
	tsk, err := domain.NewTask(owner, "rent", "pay landlord", &due, rec)
	require.NoError(t, err)

	_, err = remote.InsertTask(ctx, tsk)
	require.NoError(t, err)
	tasks, err := remote.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Equal(t, "pay landlord", got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, *rec, *got.Recurrence)
}

func TestSQLiteRemote_UpdatePartialFields(t *testing.T) {
	remote := openSQLite(t)
	ctx := context.Background()
	owner := uuid.New()
	canonical, err := remote.InsertTask(ctx, mustTask(t, owner, "before"))
	require.NoError(t, err)

	title := "after"
	completed := true
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	err = remote.UpdateTask(ctx, canonical.ID, domain.Fields{Title: &title, Completed: &completed, DueDate: &due})
	require.NoError(t, err)

	tasks, err := remote.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "after", tasks[0].Title)
	assert.True(t, tasks[0].Completed)
	require.NotNil(t, tasks[0].DueDate)
	assert.True(t, due.Equal(*tasks[0].DueDate))
	assert.True(t, tasks[0].UpdatedAt.After(canonical.UpdatedAt))
}

func TestSQLiteRemote_UpdateClearsNullables(t *testing.T) {
	remote := openSQLite(t)
	ctx := context.Background()
	owner := uuid.New()
	due := time.Now().UTC()
	rec := &domain.Recurrence{Pattern: domain.PatternDaily, Interval: 1}
	tsk, err := domain.NewTask(owner, "task", "", &due, rec)
	require.NoError(t, err)
	canonical, err := remote.InsertTask(ctx, tsk)
	require.NoError(t, err)

	err = remote.UpdateTask(ctx, canonical.ID, domain.Fields{ClearDueDate: true, ClearRecurrence: true})
	require.NoError(t, err)

	tasks, err := remote.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].DueDate)
	assert.Nil(t, tasks[0].Recurrence)
}

func TestSQLiteRemote_UpdateUnknownTask(t *testing.T) {
	remote := openSQLite(t)

	title := "x"
	err := remote.UpdateTask(context.Background(), uuid.New(), domain.Fields{Title: &title})

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestSQLiteRemote_DeleteCascadesAttachments(t *testing.T) {
	remote := openSQLite(t)
	ctx := context.Background()
	owner := uuid.New()
	canonical, err := remote.InsertTask(ctx, mustTask(t, owner, "with attachment"))
	require.NoError(t, err)

	_, err = remote.DB().ExecContext(ctx, `
		INSERT INTO attachments (id, task_id, file_name, storage_path, size_bytes, mime_type, created_at)
		VALUES (?, ?, 'notes.txt', 'p/notes.txt', 12, 'text/plain', ?)`,
		uuid.NewString(), canonical.ID.String(), time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	require.NoError(t, remote.DeleteTask(ctx, canonical.ID))

	var count int
	err = remote.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM attachments WHERE task_id = ?", canonical.ID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "deleting a task cascades to its attachment rows")
}

func TestSQLiteRemote_DeleteUnknownTask(t *testing.T) {
	remote := openSQLite(t)

	err := remote.DeleteTask(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
