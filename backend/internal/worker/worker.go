// Package worker runs the background jobs of the service: interval loops for the
// expiry sweep and the outbox dispatcher, and cron-scheduled housekeeping.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plantao/backend/internal/notify"
	"plantao/backend/internal/service"
)

// Job one pass of a periodic task
type Job func(ctx context.Context) error

// Runner runs a Job on a fixed interval until its context is cancelled.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	logger   *zap.Logger
}

// New creates a runner. A non-positive interval falls back to one minute.
func New(name string, interval time.Duration, job Job, logger *zap.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.With(zap.String("worker", name)),
	}
}

// Name of the runner, used in logs
func (r *Runner) Name() string { return r.name }

// Run blocks until ctx is done. The job runs once right away, then on every tick.
// A failing pass is logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("worker iniciado", zap.Duration("interval", r.interval))
	defer r.logger.Info("worker encerrado")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.job(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("falha na execução do worker", zap.Error(err))
	}
}

// NewSweeper expires stale postings and lifts finished suspensions.
func NewSweeper(svc service.SweepService, interval time.Duration, logger *zap.Logger) *Runner {
	return New("sweeper", interval, func(ctx context.Context) error {
		stats, err := svc.RunOnce(ctx)
		if stats.ExpiredPostings > 0 || stats.LiftedSuspensions > 0 {
			logger.Info("varredura concluída",
				zap.Int("expired_postings", stats.ExpiredPostings),
				zap.Int("lifted_suspensions", stats.LiftedSuspensions),
			)
		}
		return err
	}, logger)
}

// OutboxDrainer sends one batch of pending notifications
type OutboxDrainer interface {
	RunOnce(ctx context.Context) (notify.DispatchStats, error)
}

// NewDispatcher drains the notification outbox.
func NewDispatcher(d OutboxDrainer, interval time.Duration, logger *zap.Logger) *Runner {
	return New("dispatcher", interval, func(ctx context.Context) error {
		stats, err := d.RunOnce(ctx)
		if stats.Sent > 0 || stats.Retried > 0 || stats.Failed > 0 {
			logger.Info("notificações despachadas",
				zap.Int("sent", stats.Sent),
				zap.Int("retried", stats.Retried),
				zap.Int("failed", stats.Failed),
			)
		}
		return err
	}, logger)
}
