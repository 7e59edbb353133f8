package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs jobs on cron specs in the business timezone. A run still in
// progress when the next one is due is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler creates an empty schedule evaluated in loc.
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Named("cron").Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Add registers job under a standard five-field spec or a descriptor such as @daily.
func (s *Scheduler) Add(name, spec string, job Job) error {
	log := s.logger.With(zap.String("job", name))
	_, err := s.cron.AddFunc(spec, func() {
		ctx := s.context()
		if ctx.Err() != nil {
			return
		}
		if err := job(ctx); err != nil && ctx.Err() == nil {
			log.Error("falha na tarefa agendada", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("agenda %q inválida para %s: %w", spec, name, err)
	}
	log.Info("tarefa agendada", zap.String("spec", spec))
	return nil
}

// Len number of registered jobs
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Run starts the schedule and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// OutboxPurger removes delivered notifications past retention
type OutboxPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// PurgeOutbox job that trims the notification outbox.
func PurgeOutbox(p OutboxPurger, retention time.Duration) Job {
	return func(ctx context.Context) error {
		_, err := p.Purge(ctx, retention)
		return err
	}
}

// cronLogger adapts zap to cron.Logger. Scheduler chatter goes to debug.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
