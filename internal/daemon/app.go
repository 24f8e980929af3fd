// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/oldtube/internal/log"
)

// Task is a periodic maintenance job owned by the App.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// App owns background maintenance and delegates server management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	tasks   []Task
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, tasks ...Task) *App {
	return &App{logger: logger, manager: manager, tasks: tasks}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, task := range a.tasks {
		if task.Interval <= 0 || task.Run == nil {
			continue
		}
		g.Go(func() error {
			a.runTask(ctx, task)
			return nil
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// runTask failures are logged and retried on the next tick.
func (a *App) runTask(ctx context.Context, task Task) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "task.failed").
					Str("task", task.Name).
					Msg("maintenance task failed")
			}
		}
	}
}
