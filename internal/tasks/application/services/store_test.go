package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/identity"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/infrastructure/push"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// fakeRemote is an in-memory remote store. It keeps rows newest-first like
// the real implementations and can be told to fail or stall per operation.
type fakeRemote struct {
	mu   sync.Mutex
	rows []domain.Task

	listErr   error
	insertErr error
	updateErr error
	deleteErr error

	insertGate chan struct{}
	updateGate chan struct{}

	inserts int
	updates int
	deletes int
	lists   int
}

func (f *fakeRemote) ListTasks(_ context.Context, owner uuid.UUID) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Task, 0, len(f.rows))
	for _, t := range f.rows {
		if t.Owner == owner {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) InsertTask(_ context.Context, t domain.Task) (domain.Task, error) {
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return domain.Task{}, f.insertErr
	}
	canonical := t.Clone()
	canonical.ID = uuid.New() // the remote store assigns the final identity
	f.rows = append([]domain.Task{canonical}, f.rows...)
	return canonical.Clone(), nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id uuid.UUID, fields domain.Fields) error {
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Apply(fields)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

func (f *fakeRemote) DeleteTask(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

func (f *fakeRemote) seed(t *testing.T, owner uuid.UUID, titles ...string) []domain.Task {
	t.Helper()
	for _, title := range titles {
		tsk, err := domain.NewTask(owner, title, "", nil, nil)
		require.NoError(t, err)
		f.rows = append([]domain.Task{tsk}, f.rows...)
	}
	return f.rows
}

// recordingNotifier captures outcome messages for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(msg string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func newStore(remote domain.Remote, feed domain.Feed, owner uuid.UUID) (*services.SyncStore, *recordingNotifier) {
	notifier := &recordingNotifier{}
	store := services.NewSyncStore(remote, feed, identity.NewStaticSession(owner), notifier, nil)
	return store, notifier
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestSyncStore_Load_ReplacesCacheNewestFirst(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "first", "second", "third")
	store, _ := newStore(remote, nil, owner)

	require.NoError(t, store.Load(context.Background(), true))

	assert.Equal(t, []string{"third", "second", "first"}, titles(store.Snapshot()))
	assert.False(t, store.Loading())
}

func TestSyncStore_Load_FailureLeavesCacheUnchanged(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "kept")
	store, notifier := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))

	remote.listErr = errBoom
	err := store.Load(context.Background(), true)

	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Equal(t, []string{"kept"}, titles(store.Snapshot()))
	assert.Equal(t, 1, notifier.errorCount())
	assert.False(t, store.Loading())
}

func TestSyncStore_Load_Idempotent(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "a", "b")
	store, _ := newStore(remote, nil, owner)

	require.NoError(t, store.Load(context.Background(), true))
	first := store.Snapshot()
	require.NoError(t, store.Load(context.Background(), false))

	assert.Equal(t, first, store.Snapshot())
}

func TestSyncStore_Create_PrependsBeforeConfirmation(t *testing.T) {
	owner := uuid.New()
	gate := make(chan struct{})
	remote := &fakeRemote{insertGate: gate}
	remote.seed(t, owner, "existing")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Create(context.Background(), "optimistic", "", nil, nil)
	}()

	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return len(snap) == 2 && snap[0].Title == "optimistic"
	}, time.Second, time.Millisecond, "provisional entry should be at the head before remote confirmation")
	provisionalID := store.Snapshot()[0].ID

	close(gate)
	<-done

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "optimistic", snap[0].Title)
	assert.NotEqual(t, provisionalID, snap[0].ID, "temporary id must not survive reconciliation")
}

func TestSyncStore_Create_ExactRollbackOnFailure(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{insertErr: errBoom}
	remote.seed(t, owner, "existing")
	store, notifier := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	before := store.Snapshot()

	_, err := store.Create(context.Background(), "doomed", "", nil, nil)

	assert.ErrorIs(t, err, domain.ErrCreate)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, 1, notifier.errorCount())
}

func TestSyncStore_Create_RejectsEmptyTitleLocally(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	store, _ := newStore(remote, nil, owner)

	_, err := store.Create(context.Background(), "   ", "", nil, nil)

	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	assert.Zero(t, remote.inserts, "validation failures must not reach the network")
	assert.Empty(t, store.Snapshot())
}

func TestSyncStore_Update_RestoresFullSnapshotOnFailure(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "original")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	original := store.Snapshot()[0]

	remote.updateErr = errBoom
	title := "renamed"
	done := true
	err := store.Update(context.Background(), original.ID, domain.Fields{Title: &title, Completed: &done})

	assert.ErrorIs(t, err, domain.ErrUpdate)
	got := store.Snapshot()[0]
	assert.Equal(t, original, got, "rollback must restore the full prior snapshot, not just the mutated fields")
}

func TestSyncStore_Update_AppliesOptimistically(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "task")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	id := store.Snapshot()[0].ID

	desc := "details"
	require.NoError(t, store.Update(context.Background(), id, domain.Fields{Description: &desc}))

	assert.Equal(t, "details", store.Snapshot()[0].Description)
	assert.Equal(t, 1, remote.updates)
}

func TestSyncStore_Update_UnknownTask(t *testing.T) {
	owner := uuid.New()
	store, _ := newStore(&fakeRemote{}, nil, owner)

	title := "x"
	err := store.Update(context.Background(), uuid.New(), domain.Fields{Title: &title})

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestSyncStore_Update_SameTaskMutationsAreSerialized(t *testing.T) {
	owner := uuid.New()
	gate := make(chan struct{})
	remote := &fakeRemote{updateGate: gate}
	remote.seed(t, owner, "contested")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	id := store.Snapshot()[0].ID

	first := "first"
	second := "second"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = store.Update(context.Background(), id, domain.Fields{Title: &first})
	}()
	go func() {
		defer wg.Done()
		// Give the first update time to take the per-task lock.
		time.Sleep(20 * time.Millisecond)
		_ = store.Update(context.Background(), id, domain.Fields{Title: &second})
	}()

	// While the first update is stalled at the remote, the second must not
	// have applied its optimistic mutation yet.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "first", store.Snapshot()[0].Title)

	close(gate)
	wg.Wait()
	assert.Equal(t, "second", store.Snapshot()[0].Title)
	assert.Equal(t, 2, remote.updates)
}

func TestSyncStore_ToggleComplete_FlipsAndPersists(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "todo")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	id := store.Snapshot()[0].ID

	require.NoError(t, store.ToggleComplete(context.Background(), id))
	assert.True(t, store.Snapshot()[0].Completed)

	require.NoError(t, store.ToggleComplete(context.Background(), id))
	assert.False(t, store.Snapshot()[0].Completed)
}

func TestSyncStore_ToggleComplete_RevertsOnFailure(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{updateErr: errBoom}
	remote.seed(t, owner, "todo")
	store, notifier := newStore(remote, nil, owner)
	remote.updateErr = nil
	require.NoError(t, store.Load(context.Background(), true))
	remote.updateErr = errBoom
	id := store.Snapshot()[0].ID

	err := store.ToggleComplete(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrUpdate)
	assert.False(t, store.Snapshot()[0].Completed)
	assert.Equal(t, 1, notifier.errorCount())
}

func TestSyncStore_ToggleComplete_SpawnsNextOccurrence(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := &domain.Recurrence{Pattern: domain.PatternDaily, Interval: 3}
	tsk, err := domain.NewTask(owner, "water plants", "the ficus too", &due, rec)
	require.NoError(t, err)
	remote.rows = []domain.Task{tsk}

	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))

	require.NoError(t, store.ToggleComplete(context.Background(), tsk.ID))

	snap := store.Snapshot()
	require.Len(t, snap, 2, "exactly one new occurrence is spawned")
	spawned := snap[0]
	assert.Equal(t, "water plants", spawned.Title)
	assert.Equal(t, "the ficus too", spawned.Description)
	assert.False(t, spawned.Completed)
	require.NotNil(t, spawned.DueDate)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), *spawned.DueDate)
	require.NotNil(t, spawned.Recurrence)
	assert.Equal(t, *rec, *spawned.Recurrence)
	assert.Equal(t, 1, remote.inserts)
}

func TestSyncStore_ToggleComplete_SpawnFailureDoesNotRollBackToggle(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{insertErr: errBoom}
	rec := &domain.Recurrence{Pattern: domain.PatternWeekly, Interval: 1}
	tsk, err := domain.NewTask(owner, "weekly review", "", nil, rec)
	require.NoError(t, err)
	remote.rows = []domain.Task{tsk}

	store, notifier := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))

	err = store.ToggleComplete(context.Background(), tsk.ID)

	assert.NoError(t, err, "spawn failure is reported independently, not returned")
	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Completed)
	assert.Equal(t, 1, notifier.errorCount())
}

func TestSyncStore_ToggleComplete_NoSpawnWhenUncompleting(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	rec := &domain.Recurrence{Pattern: domain.PatternDaily, Interval: 1}
	tsk, err := domain.NewTask(owner, "daily", "", nil, rec)
	require.NoError(t, err)
	tsk.Completed = true
	remote.rows = []domain.Task{tsk}

	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))

	require.NoError(t, store.ToggleComplete(context.Background(), tsk.ID))

	assert.Len(t, store.Snapshot(), 1)
	assert.Zero(t, remote.inserts)
}

func TestSyncStore_Remove_OptimisticWithAppendBackOnFailure(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{deleteErr: errBoom}
	remote.seed(t, owner, "a", "b", "c")
	store, notifier := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	id := store.Snapshot()[1].ID // "b"

	err := store.Remove(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrDelete)
	snap := store.Snapshot()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, titles(snap))
	assert.Equal(t, "b", snap[len(snap)-1].Title, "failed delete appends the task back at the tail")
	assert.Equal(t, 1, notifier.errorCount())
}

func TestSyncStore_Remove_Succeeds(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "a", "b")
	store, _ := newStore(remote, nil, owner)
	require.NoError(t, store.Load(context.Background(), true))
	id := store.Snapshot()[0].ID

	require.NoError(t, store.Remove(context.Background(), id))

	assert.Equal(t, []string{"a"}, titles(store.Snapshot()))
	assert.Equal(t, 1, remote.deletes)
}

func TestSyncStore_NoOwner_AllOperationsAreNoOps(t *testing.T) {
	remote := &fakeRemote{}
	notifier := &recordingNotifier{}
	store := services.NewSyncStore(remote, nil, identity.Anonymous(), notifier, nil)

	require.NoError(t, store.Load(context.Background(), true))
	_, err := store.Create(context.Background(), "task", "", nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), uuid.New(), domain.Fields{}))
	require.NoError(t, store.ToggleComplete(context.Background(), uuid.New()))
	require.NoError(t, store.Remove(context.Background(), uuid.New()))

	assert.Zero(t, remote.lists+remote.inserts+remote.updates+remote.deletes)
	assert.Empty(t, store.Snapshot())
}

func TestSyncStore_PushRefresh_PullsRemoteChanges(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	remote.seed(t, owner, "existing")
	feed := push.NewInProcessFeed(nil)
	store, _ := newStore(remote, feed, owner)

	ctx := context.Background()
	require.NoError(t, store.Start(ctx))
	defer store.Close()
	require.Len(t, store.Snapshot(), 1)

	// A change arriving from another session: mutate the remote directly,
	// then fire the feed.
	remote.seed(t, owner, "from elsewhere")
	require.NoError(t, feed.Publish(ctx, owner))

	assert.Equal(t, []string{"from elsewhere", "existing"}, titles(store.Snapshot()))
	assert.False(t, store.Loading(), "push-triggered refreshes must not flicker the loading flag")
}

func TestSyncStore_Close_Unsubscribes(t *testing.T) {
	owner := uuid.New()
	remote := &fakeRemote{}
	feed := push.NewInProcessFeed(nil)
	store, _ := newStore(remote, feed, owner)

	ctx := context.Background()
	require.NoError(t, store.Start(ctx))
	store.Close()

	listsBefore := remote.lists
	require.NoError(t, feed.Publish(ctx, owner))
	assert.Equal(t, listsBefore, remote.lists, "a closed store must not react to feed events")
}
