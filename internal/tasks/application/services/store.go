package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/identity"
	"github.com/felixgeelhaar/taskdeck/internal/shared/infrastructure/notify"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"
)

// SyncStore owns the local task cache and keeps it consistent with the
// remote store. Mutations apply optimistically, issue the remote write, and
// roll the cache back if the write fails. A change feed subscription
// silently reloads the cache whenever the owner's collection changes in any
// session, which doubles as the reconciliation backstop.
//
// The cache mutex is never held across network I/O. Mutations on the same
// task are serialized through a per-id lock, so a second edit captures its
// rollback snapshot only after the first has settled.
type SyncStore struct {
	remote   domain.Remote
	feed     domain.Feed
	session  identity.Session
	notifier notify.Notifier
	logger   *slog.Logger

	mu      sync.RWMutex
	cache   []domain.Task
	loading bool

	locks locksByID

	cancelMu sync.Mutex
	cancel   func()
}

// NewSyncStore constructs a store. The feed may be nil when no push channel
// is configured; Start then only performs the initial load.
func NewSyncStore(remote domain.Remote, feed domain.Feed, session identity.Session, notifier notify.Notifier, logger *slog.Logger) *SyncStore {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncStore{
		remote:   remote,
		feed:     feed,
		session:  session,
		notifier: notifier,
		logger:   logger,
		locks:    locksByID{entries: make(map[uuid.UUID]*idLock)},
	}
}

// Start performs the initial load and subscribes to the change feed. It must
// be paired with Close so the subscription does not outlive the store.
func (s *SyncStore) Start(ctx context.Context) error {
	if err := s.Load(ctx, true); err != nil {
		return err
	}

	owner, ok := s.session.OwnerID()
	if !ok || s.feed == nil {
		return nil
	}

	cancel, err := s.feed.Subscribe(ctx, owner, func() {
		// Silent refresh: any change event, whatever its origin, pulls the
		// authoritative remote state. Redundant invocations are harmless.
		if err := s.Load(context.WithoutCancel(ctx), false); err != nil {
			s.logger.WarnContext(ctx, "change-feed refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to task changes: %w", err)
	}

	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()
	return nil
}

// Close tears down the change feed subscription.
func (s *SyncStore) Close() {
	s.cancelMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns a deep copy of the current cache, newest-created-first.
func (s *SyncStore) Snapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.cache))
	for i, t := range s.cache {
		out[i] = t.Clone()
	}
	return out
}

// Loading reports whether a spinner-visible load is in flight.
func (s *SyncStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Load fetches the owner's full task list and replaces the cache wholesale.
// With showSpinner the loading flag toggles around the fetch; silent reloads
// triggered by the change feed pass false so the UI does not flicker. On
// failure the cache is left untouched.
func (s *SyncStore) Load(ctx context.Context, showSpinner bool) error {
	owner, ok := s.session.OwnerID()
	if !ok {
		return nil
	}

	if showSpinner {
		s.mu.Lock()
		s.loading = true
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()
	}

	tasks, err := s.remote.ListTasks(ctx, owner)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrFetch, err)
		s.notifier.Error("Error fetching tasks", err)
		return err
	}

	s.mu.Lock()
	s.cache = tasks
	s.mu.Unlock()
	return nil
}

// Create validates the input, prepends a provisional task to the cache, and
// issues the remote insert. On success the provisional entry is replaced by
// the canonical row the remote returns; on failure it is removed again so
// the cache matches its pre-create state exactly.
func (s *SyncStore) Create(ctx context.Context, title, description string, dueDate *time.Time, rec *domain.Recurrence) (domain.Task, error) {
	owner, ok := s.session.OwnerID()
	if !ok {
		return domain.Task{}, nil
	}

	provisional, err := domain.NewTask(owner, title, description, dueDate, rec)
	if err != nil {
		s.notifier.Error("Invalid task", err)
		return domain.Task{}, err
	}

	s.mu.Lock()
	s.cache = append([]domain.Task{provisional.Clone()}, s.cache...)
	s.mu.Unlock()

	canonical, err := s.remote.InsertTask(ctx, provisional)
	if err != nil {
		s.dropByID(provisional.ID)
		err = fmt.Errorf("%w: %v", domain.ErrCreate, err)
		s.notifier.Error("Error adding task", err)
		return domain.Task{}, err
	}

	s.reconcile(provisional.ID, canonical)
	s.notifier.Info("Task added")
	s.publish(ctx, owner)
	return canonical, nil
}

// Update merges the partial fields into the cached task optimistically and
// issues the remote update. On failure the full pre-mutation snapshot is
// restored, not just the touched fields.
func (s *SyncStore) Update(ctx context.Context, id uuid.UUID, fields domain.Fields) error {
	owner, ok := s.session.OwnerID()
	if !ok {
		return nil
	}
	if err := fields.Validate(); err != nil {
		s.notifier.Error("Invalid update", err)
		return err
	}
	if fields.IsZero() {
		return nil
	}

	unlock := s.locks.acquire(id)
	defer unlock()

	snapshot, ok := s.applyOptimistic(id, fields)
	if !ok {
		return domain.ErrTaskNotFound
	}

	if err := s.remote.UpdateTask(ctx, id, fields); err != nil {
		s.restore(snapshot)
		err = fmt.Errorf("%w: %v", domain.ErrUpdate, err)
		s.notifier.Error("Error updating task", err)
		return err
	}

	s.publish(ctx, owner)
	return nil
}

// ToggleComplete flips the completion flag optimistically and issues the
// single-field remote update. When a recurring task transitions into the
// completed state, the next occurrence is spawned as a fresh task; the spawn
// is best-effort and never rolls the toggle back.
func (s *SyncStore) ToggleComplete(ctx context.Context, id uuid.UUID) error {
	owner, ok := s.session.OwnerID()
	if !ok {
		return nil
	}

	unlock := s.locks.acquire(id)

	s.mu.RLock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.RUnlock()
		unlock()
		return domain.ErrTaskNotFound
	}
	snapshot := s.cache[idx].Clone()
	s.mu.RUnlock()

	completed := !snapshot.Completed
	fields := domain.Fields{Completed: &completed}
	if _, ok := s.applyOptimistic(id, fields); !ok {
		unlock()
		return domain.ErrTaskNotFound
	}

	if err := s.remote.UpdateTask(ctx, id, fields); err != nil {
		s.restore(snapshot)
		unlock()
		err = fmt.Errorf("%w: %v", domain.ErrUpdate, err)
		s.notifier.Error("Error updating task", err)
		return err
	}
	unlock()
	s.publish(ctx, owner)

	if completed && snapshot.IsRecurring() {
		s.spawnNext(ctx, snapshot)
	}
	return nil
}

// Remove deletes the task from the cache immediately and issues the remote
// delete. On failure the removed task is appended back; losing its original
// position is accepted, the next reload restores canonical order.
func (s *SyncStore) Remove(ctx context.Context, id uuid.UUID) error {
	owner, ok := s.session.OwnerID()
	if !ok {
		return nil
	}

	unlock := s.locks.acquire(id)
	defer unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrTaskNotFound
	}
	removed := s.cache[idx].Clone()
	s.cache = append(s.cache[:idx], s.cache[idx+1:]...)
	s.mu.Unlock()

	if err := s.remote.DeleteTask(ctx, id); err != nil {
		s.mu.Lock()
		s.cache = append(s.cache, removed)
		s.mu.Unlock()
		err = fmt.Errorf("%w: %v", domain.ErrDelete, err)
		s.notifier.Error("Error deleting task", err)
		return err
	}

	s.notifier.Info("Task deleted")
	s.publish(ctx, owner)
	return nil
}

// spawnNext creates the follow-up occurrence of a just-completed recurring
// task: same title, description, and recurrence, due at the next computed
// date, not completed. Failure is reported but deliberately not propagated.
func (s *SyncStore) spawnNext(ctx context.Context, completed domain.Task) {
	base := time.Now().UTC()
	if completed.DueDate != nil {
		base = *completed.DueDate
	}
	next := domain.NextOccurrence(base, completed.Recurrence.Pattern, completed.Recurrence.Interval)

	if _, err := s.Create(ctx, completed.Title, completed.Description, &next, completed.Recurrence); err != nil {
		s.logger.WarnContext(ctx, "spawning next occurrence failed",
			"task_id", completed.ID,
			"error", err,
		)
		return
	}
	s.notifier.Info("Next occurrence created")
}

// applyOptimistic merges fields into the cached task with the given id and
// returns the pre-mutation snapshot for rollback.
func (s *SyncStore) applyOptimistic(id uuid.UUID, fields domain.Fields) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	snapshot := s.cache[idx].Clone()
	s.cache[idx].Apply(fields)
	return snapshot, true
}

// restore puts a snapshot back in place of the current cache entry. If the
// entry vanished in the meantime (a concurrent silent reload is
// authoritative) the snapshot is discarded.
func (s *SyncStore) restore(snapshot domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(snapshot.ID); idx >= 0 {
		s.cache[idx] = snapshot
	}
}

// reconcile swaps the provisional entry for the canonical row returned by
// the remote insert. The temporary id never survives the round trip: if a
// concurrent reload already replaced the list, the canonical row is either
// present already or prepended.
func (s *SyncStore) reconcile(tempID uuid.UUID, canonical domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(tempID); idx >= 0 {
		s.cache[idx] = canonical.Clone()
		return
	}
	if s.indexOf(canonical.ID) < 0 {
		s.cache = append([]domain.Task{canonical.Clone()}, s.cache...)
	}
}

func (s *SyncStore) dropByID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		s.cache = append(s.cache[:idx], s.cache[idx+1:]...)
	}
}

// indexOf requires s.mu held.
func (s *SyncStore) indexOf(id uuid.UUID) int {
	for i := range s.cache {
		if s.cache[i].ID == id {
			return i
		}
	}
	return -1
}

// publish fans the change out to other sessions. Best-effort: a missed
// publish only delays the other session until its next reload.
func (s *SyncStore) publish(ctx context.Context, owner uuid.UUID) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, owner); err != nil {
		s.logger.WarnContext(ctx, "publishing change event failed", "error", err)
	}
}

// locksByID hands out one mutex per task id so overlapping mutations on the
// same task settle in sequence. Entries are reference-counted and removed
// when the last holder releases.
type locksByID struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func (l *locksByID) acquire(id uuid.UUID) (release func()) {
	l.mu.Lock()
	e := l.entries[id]
	if e == nil {
		e = &idLock{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
