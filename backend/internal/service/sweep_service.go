package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plantao/backend/internal/model"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	pkgerrors "plantao/backend/pkg/errors"
)

const (
	sweepBatchSize     = 100
	expiredObservation = "expirada automaticamente"
)

// SweepStats what one sweep pass changed
type SweepStats struct {
	ExpiredPostings   int
	LiftedSuspensions int
}

// SweepService time-driven transitions: posting expiry and suspension end
type SweepService interface {
	// RunOnce expires one batch of postings and lifts one batch of suspensions.
	RunOnce(ctx context.Context) (SweepStats, error)
	ExpirePostings(ctx context.Context) (int, error)
	LiftExpiredSuspensions(ctx context.Context) (int, error)
}

type sweepService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewSweepService creates a SweepService
func NewSweepService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) SweepService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &sweepService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

func (s *sweepService) RunOnce(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	n, err := s.ExpirePostings(ctx)
	stats.ExpiredPostings = n
	if err != nil {
		return stats, err
	}
	n, err = s.LiftExpiredSuspensions(ctx)
	stats.LiftedSuspensions = n
	return stats, err
}

// ExpirePostings hard-expires OPEN postings past expires_at to CANCELLED.
// A posting changed concurrently is skipped and picked up again next pass if still due.
func (s *sweepService) ExpirePostings(ctx context.Context) (int, error) {
	now := s.now()
	postings, err := s.repo.Posting.ListExpired(ctx, now, sweepBatchSize)
	if err != nil {
		s.logger.Error("falha ao listar vagas expiradas", zap.Error(err))
		return 0, err
	}

	expired := 0
	for i := range postings {
		p := &postings[i]
		if err := transition(p, model.PostingCancelled); err != nil {
			continue
		}
		p.AppendObservation(now, expiredObservation)
		p.CancelledAt = &now
		p.UpdatedBy = model.StrPtr(model.SystemActor)

		if err := s.repo.Posting.Update(ctx, p); err != nil {
			if pkgerrors.IsOptimisticLock(err) {
				s.logger.Debug("vaga alterada durante a varredura", zap.String("posting_id", p.PostingID))
				continue
			}
			s.logger.Error("falha ao expirar vaga", zap.String("posting_id", p.PostingID), zap.Error(err))
			return expired, err
		}
		expired++

		publishAll(ctx, s.notifier, s.logger, pushMessage(p.OwnerID(), notify.EventPostingExpired,
			"Vaga expirada",
			"Sua vaga de substituição expirou sem candidatos e foi encerrada.",
			p.PostingID))
	}

	if expired > 0 {
		s.logger.Info("vagas expiradas", zap.Int("count", expired))
	}
	return expired, nil
}

// LiftExpiredSuspensions ends suspensions whose period is over.
func (s *sweepService) LiftExpiredSuspensions(ctx context.Context) (int, error) {
	now := s.now()
	suspensions, err := s.repo.Suspension.ListExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		s.logger.Error("falha ao listar suspensões vencidas", zap.Error(err))
		return 0, err
	}

	lifted := 0
	for _, sus := range suspensions {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := tx.Suspension.Lift(ctx, sus.SuspensionID, now); err != nil {
				return err
			}
			pro, err := tx.Professional.GetByID(ctx, sus.ProfessionalID)
			if err != nil {
				return err
			}
			// a later suspension may still be running
			if !pro.IsSuspended || pro.SuspensionActive(now) {
				return nil
			}
			pro.LiftSuspension()
			pro.UpdatedBy = model.StrPtr(model.SystemActor)
			return tx.Professional.Update(ctx, pro)
		})
		if err != nil {
			if pkgerrors.IsOptimisticLock(err) {
				continue
			}
			s.logger.Error("falha ao encerrar suspensão", zap.String("suspension_id", sus.SuspensionID), zap.Error(err))
			return lifted, err
		}
		lifted++
	}

	if lifted > 0 {
		s.logger.Info("suspensões encerradas", zap.Int("count", lifted))
	}
	return lifted, nil
}
