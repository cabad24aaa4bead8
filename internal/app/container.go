// Package app wires configuration into the concrete services: the remote
// task store, the change feed, the synchronization store, and the
// attachment registry.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"

	attachapp "github.com/felixgeelhaar/taskdeck/internal/attachments/application"
	attachdomain "github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/felixgeelhaar/taskdeck/internal/attachments/infrastructure/blob"
	attachpersistence "github.com/felixgeelhaar/taskdeck/internal/attachments/infrastructure/persistence"
	"github.com/felixgeelhaar/taskdeck/internal/identity"
	"github.com/felixgeelhaar/taskdeck/internal/shared/infrastructure/notify"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/infrastructure/persistence"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/infrastructure/push"
	"github.com/felixgeelhaar/taskdeck/pkg/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Container holds the wired application services and owns their lifecycle.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Session identity.Session

	Remote      domain.Remote
	Feed        domain.Feed
	Store       *services.SyncStore
	Attachments *attachapp.Registry

	closers []func() error
}

// NewContainer builds the dependency graph from configuration. Store
// selection follows DATABASE_URL: a postgres URL wires the Postgres remote,
// anything else a local SQLite file. The change feed prefers Redis, then
// RabbitMQ, then falls back to the in-process feed.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Session: identity.Anonymous(),
	}

	if cfg.OwnerID != "" {
		owner, err := uuid.Parse(cfg.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKDECK_OWNER_ID: %w", err)
		}
		c.Session = identity.NewStaticSession(owner)
	}

	var (
		remote         domain.Remote
		attachmentRepo attachdomain.Repository
	)
	if cfg.UsesPostgres() {
		pg, err := persistence.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { pg.Close(); return nil })
		remote = pg
		attachmentRepo = attachpersistence.NewPostgresRepository(pg.Pool())
		logger.Info("using postgres task store")
	} else {
		lite, err := persistence.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, lite.Close)
		remote = lite
		attachmentRepo = attachpersistence.NewSQLiteRepository(lite.DB())
		logger.Info("using sqlite task store", "path", cfg.DatabaseURL)
	}

	if cfg.BreakerEnabled {
		breakerCfg := persistence.DefaultBreakerConfig()
		if cfg.BreakerFailureThreshold > 0 {
			breakerCfg.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
		}
		if cfg.BreakerTimeout > 0 {
			breakerCfg.Timeout = cfg.BreakerTimeout
		}
		remote = persistence.NewBreakerRemote(remote, breakerCfg, logger)
	}
	c.Remote = remote

	feed, err := c.initFeed(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Feed = feed

	notifier := notify.NewSlogNotifier(logger)
	c.Store = services.NewSyncStore(c.Remote, c.Feed, c.Session, notifier, logger)

	secret := []byte(cfg.SignedURLSecret)
	if len(secret) == 0 {
		// Without a configured secret, signed URLs stay valid only for the
		// lifetime of this process.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			c.Close()
			return nil, fmt.Errorf("generating signing secret: %w", err)
		}
	}
	blobs, err := blob.NewFSStore(cfg.AttachmentDir, secret, cfg.AttachmentBaseURL)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Attachments = attachapp.NewRegistry(attachmentRepo, blobs, c.Session, notifier, logger, cfg.SignedURLTTL)

	return c, nil
}

func (c *Container) initFeed(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Feed, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKDECK_REDIS_URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		logger.Info("using redis change feed")
		return push.NewRedisFeed(client, logger), nil
	}

	if cfg.RabbitMQURL != "" {
		feed, err := push.NewRabbitFeed(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, feed.Close)
		logger.Info("using rabbitmq change feed")
		return feed, nil
	}

	logger.Info("using in-process change feed")
	return push.NewInProcessFeed(logger), nil
}

// Close releases held resources in reverse acquisition order.
func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("closing resource failed", "error", err)
		}
	}
	c.closers = nil
}
