// Package push implements the change-notification channel for task
// collections. A feed carries no payload: subscribers react to any change to
// the owner's tasks by silently reloading from the remote store, which keeps
// the channel origin-agnostic and tolerant of redundant delivery.
package push

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// InProcessFeed delivers change events synchronously to subscribers in the
// same process. It is the local-mode feed, used when no Redis or RabbitMQ
// broker is configured, and the default feed in tests.
type InProcessFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]func()
	logger *slog.Logger
}

// NewInProcessFeed creates an empty in-process feed.
func NewInProcessFeed(logger *slog.Logger) *InProcessFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessFeed{
		subs:   make(map[uuid.UUID]map[int]func()),
		logger: logger,
	}
}

// Subscribe registers onChange for the owner. The returned cancel function
// is idempotent.
func (f *InProcessFeed) Subscribe(_ context.Context, owner uuid.UUID, onChange func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	if f.subs[owner] == nil {
		f.subs[owner] = make(map[int]func())
	}
	f.subs[owner][id] = onChange

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[owner], id)
			if len(f.subs[owner]) == 0 {
				delete(f.subs, owner)
			}
		})
	}, nil
}

// Publish invokes every subscriber registered for the owner. Callbacks run
// on the caller's goroutine.
func (f *InProcessFeed) Publish(_ context.Context, owner uuid.UUID) error {
	f.mu.Lock()
	callbacks := make([]func(), 0, len(f.subs[owner]))
	for _, cb := range f.subs[owner] {
		callbacks = append(callbacks, cb)
	}
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}
