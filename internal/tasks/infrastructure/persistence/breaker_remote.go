package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker wrapped around a remote store.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns conservative settings: trip after five
// consecutive failures, probe again after ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerRemote wraps a domain.Remote with a circuit breaker so a dead
// transport fails fast instead of stalling every optimistic operation on a
// full network timeout. An open breaker surfaces as an ordinary remote
// error; the store's rollback and notification paths apply unchanged.
type BreakerRemote struct {
	inner   domain.Remote
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerRemote wraps inner with a circuit breaker.
func NewBreakerRemote(inner domain.Remote, cfg BreakerConfig, logger *slog.Logger) *BreakerRemote {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "task-remote",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A missing row is a caller problem, not transport health.
			return err == nil || errors.Is(err, domain.ErrTaskNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerRemote{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (r *BreakerRemote) ListTasks(ctx context.Context, owner uuid.UUID) ([]domain.Task, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.ListTasks(ctx, owner)
	})
	if err != nil {
		return nil, err
	}
	tasks, _ := result.([]domain.Task)
	return tasks, nil
}

func (r *BreakerRemote) InsertTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.InsertTask(ctx, t)
	})
	if err != nil {
		return domain.Task{}, err
	}
	canonical, _ := result.(domain.Task)
	return canonical, nil
}

func (r *BreakerRemote) UpdateTask(ctx context.Context, id uuid.UUID, f domain.Fields) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.inner.UpdateTask(ctx, id, f)
	})
	return err
}

func (r *BreakerRemote) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.inner.DeleteTask(ctx, id)
	})
	return err
}
