package cli

import (
	"fmt"
	"strings"

	attachapp "github.com/felixgeelhaar/taskdeck/internal/attachments/application"
	"github.com/felixgeelhaar/taskdeck/internal/identity"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	Store       *services.SyncStore
	Attachments *attachapp.Registry
	Feed        domain.Feed
	Session     identity.Session
}

var app *App

// RequireOwner returns an error when no owner session is configured. The
// services treat missing owners as no-ops; commands that mutate state call
// this first so the no-op does not pass for success.
func (a *App) RequireOwner() error {
	if _, ok := a.Session.OwnerID(); !ok {
		return fmt.Errorf("no owner configured, set TASKDECK_OWNER_ID")
	}
	return nil
}

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// ResolveTask finds a task in the store's cache whose ID matches the given
// string, accepting unambiguous hex prefixes of at least four characters.
func (a *App) ResolveTask(ref string) (domain.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		for _, t := range a.Store.Snapshot() {
			if t.ID == id {
				return t, nil
			}
		}
		return domain.Task{}, fmt.Errorf("no task with id %s", ref)
	}

	if len(ref) < 4 {
		return domain.Task{}, fmt.Errorf("task reference %q too short, use at least 4 characters", ref)
	}

	var matches []domain.Task
	for _, t := range a.Store.Snapshot() {
		if strings.HasPrefix(t.ID.String(), ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Task{}, fmt.Errorf("no task matching %q", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, fmt.Errorf("task reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}
