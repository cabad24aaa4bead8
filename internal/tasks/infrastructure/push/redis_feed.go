package push

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "taskdeck.changes."

// RedisFeed carries change events across sessions through Redis pub/sub.
// Each owner has a dedicated channel; messages have no payload beyond the
// wakeup itself.
type RedisFeed struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisFeed creates a feed on an established Redis client.
func NewRedisFeed(client *redis.Client, logger *slog.Logger) *RedisFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisFeed{client: client, logger: logger}
}

func ownerChannel(owner uuid.UUID) string {
	return channelPrefix + owner.String()
}

// Subscribe listens on the owner's channel and fires onChange for every
// message until cancel is called or ctx ends.
func (f *RedisFeed) Subscribe(ctx context.Context, owner uuid.UUID, onChange func()) (func(), error) {
	sub := f.client.Subscribe(ctx, ownerChannel(owner))
	// Force the subscription onto the wire before returning so a publish
	// issued right after Subscribe is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				onChange()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				f.logger.Warn("closing redis subscription failed", "error", err)
			}
		})
	}, nil
}

// Publish wakes every session subscribed to the owner's channel.
func (f *RedisFeed) Publish(ctx context.Context, owner uuid.UUID) error {
	return f.client.Publish(ctx, ownerChannel(owner), "changed").Err()
}
