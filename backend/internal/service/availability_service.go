package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/config"
	"plantao/backend/internal/dto"
	"plantao/backend/internal/model"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	pkgerrors "plantao/backend/pkg/errors"
)

const minJustificationLength = 10

// AvailabilityService online/offline toggling under a daily cap with escalating lockout
type AvailabilityService interface {
	Activate(ctx context.Context, professionalID string) (*dto.AvailabilityStatusResponse, error)
	Deactivate(ctx context.Context, professionalID string, req *dto.DeactivateRequest) (*dto.AvailabilityStatusResponse, error)
	GetStatus(ctx context.Context, professionalID string) (*dto.AvailabilityStatusResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	cfg      *config.SubstitutionConfig
	notifier Notifier
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewAvailabilityService creates an AvailabilityService
func NewAvailabilityService(cfg *config.SubstitutionConfig, repo *repository.Repository, notifier Notifier, logger *zap.Logger) AvailabilityService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &availabilityService{
		repo:     repo,
		cfg:      cfg,
		notifier: notifier,
		loc:      businessLocation(cfg, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// Activate / Deactivate
// ════════════════════════════════════════════════════════════

func (s *availabilityService) Activate(ctx context.Context, professionalID string) (*dto.AvailabilityStatusResponse, error) {
	pro, err := s.load(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := s.today(now)
	state := toggleStateOf(pro)
	state.ResetIfNewDay(today)

	if pro.IsSuspended {
		if pro.SuspensionActive(now) {
			return nil, ErrSuspended
		}
		// lapsed suspension: lifted here, persisted with the toggle
		pro.LiftSuspension()
	}
	if pro.LockedOut(now) {
		return nil, s.lockoutErr(*pro.LockoutUntil)
	}
	if pro.Available {
		return nil, fmt.Errorf("%w: você já está disponível", ErrInvalidState)
	}
	if !state.CanActivate(s.cfg.DailyToggleLimit) {
		return nil, s.refuse(ctx, pro, &state, today, now)
	}

	state.Activations++
	state.applyTo(pro)
	pro.SetAvailable(true)
	pro.UpdatedBy = &professionalID

	if err := s.save(ctx, pro, model.ToggleActivate, "", now); err != nil {
		return nil, err
	}
	s.logger.Info("disponibilidade ativada",
		zap.String("professional_id", professionalID),
		zap.Int("activations_today", state.Activations),
	)
	return s.statusOf(pro, now), nil
}

func (s *availabilityService) Deactivate(ctx context.Context, professionalID string, req *dto.DeactivateRequest) (*dto.AvailabilityStatusResponse, error) {
	justification := strings.TrimSpace(req.Justification)
	if utf8.RuneCountInString(justification) < minJustificationLength {
		return nil, validationError("a justificativa deve ter ao menos %d caracteres", minJustificationLength)
	}

	pro, err := s.load(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := s.today(now)
	state := toggleStateOf(pro)
	state.ResetIfNewDay(today)

	if !pro.Available {
		return nil, fmt.Errorf("%w: você já está indisponível", ErrInvalidState)
	}
	if !state.CanDeactivate(s.cfg.DailyToggleLimit) {
		return nil, s.refuse(ctx, pro, &state, today, now)
	}

	state.Deactivations++
	state.applyTo(pro)
	pro.SetAvailable(false)
	pro.UpdatedBy = &professionalID

	if err := s.save(ctx, pro, model.ToggleDeactivate, justification, now); err != nil {
		return nil, err
	}
	s.logger.Info("disponibilidade desativada",
		zap.String("professional_id", professionalID),
		zap.Int("deactivations_today", state.Deactivations),
	)
	return s.statusOf(pro, now), nil
}

// refuse handles a toggle over the daily cap: the first refusal of the day
// escalates the tier, and a tier at the threshold locks the account.
func (s *availabilityService) refuse(ctx context.Context, pro *model.Professional, state *ToggleState, today string, now time.Time) error {
	if !state.Escalate(today) {
		return ErrRateLimited
	}

	d := lockoutDuration(state.Tier, s.cfg.LockoutThreshold, s.cfg.LockoutBase, s.cfg.LockoutMax)
	wasAvailable := pro.Available
	state.applyTo(pro)
	pro.UpdatedBy = model.StrPtr(model.SystemActor)

	if d == 0 {
		if err := s.save(ctx, pro, "", "", now); err != nil {
			return err
		}
		s.logger.Info("limite diário de alternância atingido",
			zap.String("professional_id", pro.ProfessionalID),
			zap.Int("tier", state.Tier),
		)
		return ErrRateLimited
	}

	until := now.Add(d)
	pro.LockoutUntil = &until
	pro.SetAvailable(false)

	action := ""
	if wasAvailable {
		action = model.ToggleDeactivate
	}
	if err := s.save(ctx, pro, action, "bloqueio automático por excesso de alternâncias", now); err != nil {
		return err
	}

	s.logger.Warn("conta bloqueada por excesso de alternâncias",
		zap.String("professional_id", pro.ProfessionalID),
		zap.Int("tier", state.Tier),
		zap.Time("until", until),
	)
	publishAll(ctx, s.notifier, s.logger, pushMessage(pro.ProfessionalID, notify.EventToggleLockout,
		"Conta temporariamente bloqueada",
		fmt.Sprintf("Sua disponibilidade foi bloqueada até %s. Em caso de dúvida, contate %s.",
			until.In(s.loc).Format("02/01/2006 15:04"), s.cfg.SupportContact),
		""))
	return s.lockoutErr(until)
}

// save writes the professional and, when action is set, the audit row, in one transaction.
func (s *availabilityService) save(ctx context.Context, pro *model.Professional, action, justification string, now time.Time) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Professional.Update(ctx, pro); err != nil {
			return err
		}
		if action == "" {
			return nil
		}
		return tx.AvailabilityLog.Create(ctx, &model.AvailabilityLog{
			LogID:          uuid.NewString(),
			ProfessionalID: pro.ProfessionalID,
			Action:         action,
			Justification:  justification,
			CreatedAt:      now,
		})
	})
	if err != nil {
		if pkgerrors.IsOptimisticLock(err) {
			return ErrConcurrentUpdate
		}
		s.logger.Error("falha ao atualizar disponibilidade", zap.String("professional_id", pro.ProfessionalID), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// GetStatus
// ════════════════════════════════════════════════════════════

func (s *availabilityService) GetStatus(ctx context.Context, professionalID string) (*dto.AvailabilityStatusResponse, error) {
	pro, err := s.load(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	return s.statusOf(pro, s.now()), nil
}

func (s *availabilityService) statusOf(pro *model.Professional, now time.Time) *dto.AvailabilityStatusResponse {
	state := toggleStateOf(pro)
	state.ResetIfNewDay(s.today(now))

	resp := &dto.AvailabilityStatusResponse{
		ProfessionalID:    pro.ProfessionalID,
		Available:         pro.Available,
		Status:            string(pro.AvailabilityStatus),
		ActivationsLeft:   remaining(s.cfg.DailyToggleLimit, state.Activations),
		DeactivationsLeft: remaining(s.cfg.DailyToggleLimit, state.Deactivations),
		PenaltyTier:       state.Tier,
		Suspended:         pro.SuspensionActive(now),
	}
	if pro.LockedOut(now) {
		resp.LockedUntil = dto.FormatTime(pro.LockoutUntil)
		resp.SupportContact = s.cfg.SupportContact
	}
	if resp.Suspended {
		resp.SuspendedUntil = dto.FormatTime(pro.SuspendedUntil)
	}
	return resp
}

// ── helpers ──

func (s *availabilityService) load(ctx context.Context, id string) (*model.Professional, error) {
	pro, err := s.repo.Professional.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessionalNotFound
		}
		s.logger.Error("falha ao consultar profissional", zap.String("professional_id", id), zap.Error(err))
		return nil, err
	}
	return pro, nil
}

func (s *availabilityService) today(now time.Time) string {
	return now.In(s.loc).Format(model.DateLayout)
}

func (s *availabilityService) lockoutErr(until time.Time) error {
	return &LockoutError{Until: until.In(s.loc), SupportContact: s.cfg.SupportContact}
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
