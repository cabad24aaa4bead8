package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/adapter/cli/attach"
	"github.com/felixgeelhaar/taskdeck/adapter/cli/task"
	"github.com/felixgeelhaar/taskdeck/internal/app"
	"github.com/felixgeelhaar/taskdeck/pkg/config"
	"github.com/felixgeelhaar/taskdeck/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Load the task view and subscribe to the change feed before any
	// command reads from the store.
	if err := container.Store.Start(ctx); err != nil {
		logger.Error("failed to load tasks", "error", err)
		os.Exit(1)
	}

	cli.SetApp(&cli.App{
		Store:       container.Store,
		Attachments: container.Attachments,
		Feed:        container.Feed,
		Session:     container.Session,
	})

	cli.AddCommand(task.Cmd)
	cli.AddCommand(attach.Cmd)

	cli.Execute(ctx)
}
