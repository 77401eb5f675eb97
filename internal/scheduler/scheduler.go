// Package scheduler runs the gateway's periodic maintenance using gocron.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/polygate-bot/polygate/internal/config"
	"github.com/polygate-bot/polygate/internal/store"
)

// Scheduler owns the gocron instance and the registered maintenance job.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	store     store.Store

	mu      sync.Mutex
	running bool
}

// New creates a scheduler; jobs are registered and started by Start.
func New(logger *slog.Logger, cfg config.SchedulerConfig, st store.Store) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		store:     st,
	}, nil
}

// Start registers the maintenance job and starts ticking. Disabled
// scheduling is not an error; Start just logs and returns.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if !s.cfg.Enabled || s.cfg.MaintenanceSchedule == "" {
		s.logger.Info("scheduler disabled, no maintenance will run")
		return nil
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cfg.MaintenanceSchedule, false),
		gocron.NewTask(func(ctx context.Context) {
			start := time.Now()
			s.logger.Info("running store maintenance")
			if err := s.store.RunMaintenance(ctx); err != nil {
				s.logger.Error("store maintenance failed", "error", err)
				return
			}
			s.logger.Info("store maintenance finished",
				"duration_ms", time.Since(start).Milliseconds())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("scheduler started", "maintenance_schedule", s.cfg.MaintenanceSchedule)
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}
