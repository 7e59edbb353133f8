package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/model"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	pkgerrors "plantao/backend/pkg/errors"
)

// AttendanceService attendance validation and the no-show penalty ladder
type AttendanceService interface {
	// ValidateAttendance records the outcome of a CONFIRMED posting, exactly once.
	ValidateAttendance(ctx context.Context, postingID string, req *dto.ValidateAttendanceRequest, callerID string) (*dto.AttendanceResult, error)
	// JustifyAttendance flags a no-show as justified and lifts the suspension it caused.
	JustifyAttendance(ctx context.Context, recordID, callerID string) error
}

type attendanceService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService creates an AttendanceService
func NewAttendanceService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) AttendanceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &attendanceService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// ValidateAttendance
// ════════════════════════════════════════════════════════════

func (s *attendanceService) ValidateAttendance(ctx context.Context, postingID string, req *dto.ValidateAttendanceRequest, callerID string) (*dto.AttendanceResult, error) {
	if req.Attended == nil {
		return nil, validationError("informe se o profissional compareceu")
	}
	attended := *req.Attended

	posting, err := s.repo.Posting.GetByID(ctx, postingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostingNotFound
		}
		s.logger.Error("falha ao consultar vaga", zap.Error(err))
		return nil, err
	}
	if !s.canValidate(ctx, posting, callerID) {
		return nil, ErrNotPostingOwner
	}

	// one record per posting
	existing, err := s.repo.Attendance.GetByPosting(ctx, postingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("falha ao consultar presença", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrAttendanceAlreadyValidated
	}
	if posting.Status != model.PostingConfirmed || posting.ChosenProfessionalID == nil {
		return nil, fmt.Errorf("%w: vaga em %s", ErrInvalidState, posting.Status)
	}
	professionalID := *posting.ChosenProfessionalID

	pro, err := s.repo.Professional.GetByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessionalNotFound
		}
		s.logger.Error("falha ao consultar profissional", zap.Error(err))
		return nil, err
	}

	now := s.now()
	record := &model.AttendanceRecord{
		RecordID:          uuid.NewString(),
		PostingID:         postingID,
		ProfessionalID:    professionalID,
		ClinicID:          posting.ClinicID,
		Attended:          attended,
		PunctualityRating: req.PunctualityRating,
		MinutesLate:       req.MinutesLate,
		Observations:      strings.TrimSpace(req.Observations),
		ValidatedBy:       callerID,
	}
	if !attended {
		record.NoShowReason = strings.TrimSpace(req.NoShowReason)
	}
	record.CreatedBy = &callerID

	if err := transition(posting, model.PostingCompleted); err != nil {
		return nil, err
	}
	posting.CompletedAt = &now
	posting.UpdatedBy = &callerID

	// reliability counters
	if attended {
		pro.CompletedSubstitutions++
	} else {
		pro.NoShowCount++
	}
	pro.AttendanceRate = attendanceRate(pro.CompletedSubstitutions, pro.NoShowCount)
	pro.UpdatedBy = model.StrPtr(model.SystemActor)

	result := &dto.AttendanceResult{
		RecordID:       record.RecordID,
		PostingID:      postingID,
		PostingStatus:  string(posting.Status),
		Attended:       attended,
		Completed:      pro.CompletedSubstitutions,
		NoShowCount:    pro.NoShowCount,
		AttendanceRate: pro.AttendanceRate,
		Penalty:        dto.PenaltyNone,
	}

	var (
		penalty    NoShowPenalty
		suspension *model.Suspension
	)
	if !attended {
		penalty = PenaltyFor(pro.NoShowCount)
		if penalty.Warning {
			result.Penalty = dto.PenaltyWarning
		}
		if penalty.Days > 0 {
			until := penalty.Until(now)
			suspension = &model.Suspension{
				SuspensionID:   uuid.NewString(),
				ProfessionalID: professionalID,
				Type:           model.NoShowType(penalty.Ordinal),
				Days:           penalty.Days,
				StartsAt:       now,
				EndsAt:         until,
				Reason:         penalty.Reason(),
				PostingID:      &postingID,
				Active:         true,
			}
			suspension.CreatedBy = model.StrPtr(model.SystemActor)

			pro.IsSuspended = true
			if pro.SuspendedUntil == nil || until.After(*pro.SuspendedUntil) {
				pro.SuspendedUntil = &until
			}
			pro.SuspensionReason = penalty.Reason()
			pro.SetAvailable(false)

			result.Penalty = dto.PenaltySuspension
			result.SuspensionDays = penalty.Days
			result.SuspendedUntil = dto.FormatTime(pro.SuspendedUntil)
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Attendance.Create(ctx, record); err != nil {
			return err
		}
		if err := tx.Posting.Update(ctx, posting); err != nil {
			return err
		}
		if err := tx.Professional.Update(ctx, pro); err != nil {
			return err
		}
		if suspension != nil {
			return tx.Suspension.Create(ctx, suspension)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrAttendanceAlreadyValidated
		case pkgerrors.IsOptimisticLock(err):
			return nil, ErrConcurrentUpdate
		}
		s.logger.Error("falha ao registrar presença", zap.Error(err))
		return nil, err
	}

	s.logger.Info("presença validada",
		zap.String("posting_id", postingID),
		zap.String("professional_id", professionalID),
		zap.Bool("attended", attended),
		zap.Int("no_show_count", pro.NoShowCount),
		zap.Int("suspension_days", penalty.Days),
	)

	switch {
	case suspension != nil:
		publishAll(ctx, s.notifier, s.logger, pushMessage(professionalID, notify.EventSuspensionApplied,
			"Suspensão aplicada",
			fmt.Sprintf("Sua conta foi suspensa por %d dias (até %s) por ausência em substituição confirmada.",
				penalty.Days, suspension.EndsAt.Format("02/01/2006")),
			postingID))
	case penalty.Warning:
		publishAll(ctx, s.notifier, s.logger, pushMessage(professionalID, notify.EventNoShowWarning,
			"Advertência por ausência",
			"Registramos sua ausência em uma substituição confirmada. Uma nova ausência resultará em suspensão.",
			postingID))
	}
	return result, nil
}

// canValidate the clinic owner or whoever opened the posting.
func (s *attendanceService) canValidate(ctx context.Context, posting *model.Posting, callerID string) bool {
	if posting.OwnerID() == callerID {
		return true
	}
	clinic := posting.Clinic
	if clinic == nil {
		var err error
		if clinic, err = s.repo.Clinic.GetByID(ctx, posting.ClinicID); err != nil {
			return false
		}
	}
	return clinic.OwnerID == callerID
}

// ════════════════════════════════════════════════════════════
// JustifyAttendance
// ════════════════════════════════════════════════════════════

func (s *attendanceService) JustifyAttendance(ctx context.Context, recordID, callerID string) error {
	record, err := s.repo.Attendance.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttendanceNotFound
		}
		s.logger.Error("falha ao consultar presença", zap.Error(err))
		return err
	}
	if record.Attended {
		return fmt.Errorf("%w: não há ausência a justificar", ErrInvalidState)
	}
	if record.Justified {
		return fmt.Errorf("%w: ausência já justificada", ErrInvalidState)
	}

	suspension, err := s.repo.Suspension.GetActiveByPosting(ctx, record.PostingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("falha ao consultar suspensão", zap.Error(err))
		return err
	}

	var pro *model.Professional
	if suspension != nil {
		if pro, err = s.repo.Professional.GetByID(ctx, record.ProfessionalID); err != nil {
			s.logger.Error("falha ao consultar profissional", zap.Error(err))
			return err
		}
		pro.LiftSuspension()
		pro.UpdatedBy = &callerID
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Attendance.MarkJustified(ctx, recordID, callerID, now); err != nil {
			return err
		}
		if suspension == nil {
			return nil
		}
		if err := tx.Suspension.Lift(ctx, suspension.SuspensionID, now); err != nil {
			return err
		}
		return tx.Professional.Update(ctx, pro)
	})
	if err != nil {
		if pkgerrors.IsOptimisticLock(err) {
			return ErrConcurrentUpdate
		}
		s.logger.Error("falha ao justificar ausência", zap.Error(err))
		return err
	}

	s.logger.Info("ausência justificada",
		zap.String("record_id", recordID),
		zap.String("by", callerID),
		zap.Bool("suspension_lifted", suspension != nil),
	)
	return nil
}
