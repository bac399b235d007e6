// Package commands implements the taskctl subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/pimtask/internal/config"
	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/editor"
	"github.com/benvon/pimtask/internal/logger"
	"github.com/benvon/pimtask/internal/queue"
	"github.com/benvon/pimtask/internal/temporal"
	"go.uber.org/zap"
)

// env holds the connections a command works with
type env struct {
	cfg         *config.Config
	zones       *temporal.SystemZones
	tasks       *database.TaskRepository
	collections *database.CollectionRepository
	store       editor.Store
	logger      *zap.Logger
	closers     []func() error
}

// openEnv connects to the database, and to RabbitMQ when configured so CLI
// edits publish the same task events as the server.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	zapLogger, err := logger.NewDevelopmentLogger(cfg.ServerDebugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e := &env{
		cfg:         cfg,
		zones:       temporal.NewSystemZones(cfg.LocalTimezone),
		collections: database.NewCollectionRepository(db),
		logger:      zapLogger,
		closers:     []func() error{db.Close},
	}
	e.tasks = database.NewTaskRepository(db, e.zones)
	e.tasks.SetLogger(zapLogger)
	e.store = e.tasks

	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, 1, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_task_events_disabled", zap.Error(err))
		} else {
			e.store = queue.NewPublishingStore(e.tasks, jobQueue, zapLogger)
			e.closers = append(e.closers, jobQueue.Close)
		}
	}
	return e, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close connection: %v\n", err)
		}
	}
	_ = logger.Sync(e.logger)
}
