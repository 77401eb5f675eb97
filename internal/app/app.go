// Package app orchestrates the gateway's components: it initializes and
// starts every configured adapter, runs the maintenance scheduler, and
// handles graceful shutdown on context cancellation.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polygate-bot/polygate/internal/adapter"
	"github.com/polygate-bot/polygate/internal/scheduler"
)

const stopTimeout = 10 * time.Second

// App runs the adapters and the scheduler until the context is cancelled.
type App struct {
	logger    *slog.Logger
	adapters  []*adapter.Adapter
	scheduler *scheduler.Scheduler
}

// New assembles the application from already-constructed components.
func New(logger *slog.Logger, adapters []*adapter.Adapter, sched *scheduler.Scheduler) *App {
	return &App{
		logger:    logger.With("component", "app"),
		adapters:  adapters,
		scheduler: sched,
	}
}

// Run initializes and starts every adapter, starts the scheduler, then
// blocks until ctx is cancelled or a component fails. Shutdown stops the
// adapters (idempotent) and the scheduler before returning.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	for _, ad := range a.adapters {
		ad := ad
		g.Go(func() error {
			log := a.logger.With("platform", string(ad.Platform()))

			if err := ad.Initialize(gCtx); err != nil {
				log.Error("adapter initialization failed", "error", err)
				return err
			}
			if err := ad.Start(gCtx); err != nil {
				log.Error("adapter start failed", "error", err)
				return err
			}

			<-gCtx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := ad.Stop(stopCtx); err != nil {
				log.Error("adapter stop failed", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("failed to start scheduler", "error", err)
			return err
		}

		<-gCtx.Done()

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("error stopping scheduler", "error", err)
		}
		return nil
	})

	a.logger.Info("gateway running", "adapters", len(a.adapters))
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("gateway stopped due to error", "error", err)
		return err
	}

	a.logger.Info("gateway stopped gracefully")
	return nil
}
