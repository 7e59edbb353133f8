package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
	pkgerrors "plantao/backend/pkg/errors"
)

// PostingFilter list filters; empty fields are ignored
type PostingFilter struct {
	Status    []model.PostingStatus
	ClinicID  string
	CreatedBy string
	Specialty string
}

// PostingRepository data access for postings
type PostingRepository interface {
	Create(ctx context.Context, posting *model.Posting) error
	GetByID(ctx context.Context, id string) (*model.Posting, error)
	List(ctx context.Context, filter PostingFilter, offset, limit int) ([]model.Posting, int64, error)
	ListByClinicsAndStatus(ctx context.Context, clinicIDs []string, status model.PostingStatus) ([]model.Posting, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Posting, error)
	// Update writes every mutable column except the counters, guarded by version.
	Update(ctx context.Context, posting *model.Posting) error
	// MoveToSelection sets IN_SELECTION only when the posting is still OPEN.
	MoveToSelection(ctx context.Context, id string) error
	IncrementCandidates(ctx context.Context, id string) error
	DecrementCandidates(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	// RecordFailedCode counts a wrong confirmation code and voids the code once
	// limit is reached. Returns the attempt count after the increment.
	RecordFailedCode(ctx context.Context, id string, limit int) (int, error)
}

type postingRepo struct {
	db *gorm.DB
}

// NewPostingRepo creates a PostingRepository
func NewPostingRepo(db *gorm.DB) PostingRepository {
	return &postingRepo{db: db}
}

func (r *postingRepo) Create(ctx context.Context, posting *model.Posting) error {
	return r.db.WithContext(ctx).Create(posting).Error
}

func (r *postingRepo) GetByID(ctx context.Context, id string) (*model.Posting, error) {
	var posting model.Posting
	err := r.db.WithContext(ctx).
		Preload("Clinic").
		Where("posting_id = ?", id).
		First(&posting).Error
	if err != nil {
		return nil, err
	}
	return &posting, nil
}

func (r *postingRepo) List(ctx context.Context, filter PostingFilter, offset, limit int) ([]model.Posting, int64, error) {
	var postings []model.Posting
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Posting{})
	if len(filter.Status) > 0 {
		db = db.Where("status IN ?", filter.Status)
	}
	if filter.ClinicID != "" {
		db = db.Where("clinic_id = ?", filter.ClinicID)
	}
	if filter.CreatedBy != "" {
		db = db.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Specialty != "" {
		db = db.Where("(specialty = ? OR specialty IS NULL OR specialty = '')", filter.Specialty)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Clinic").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&postings).Error; err != nil {
		return nil, 0, err
	}

	return postings, total, nil
}

func (r *postingRepo) ListByClinicsAndStatus(ctx context.Context, clinicIDs []string, status model.PostingStatus) ([]model.Posting, error) {
	var postings []model.Posting
	if len(clinicIDs) == 0 {
		return postings, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Clinic").
		Where("clinic_id IN ? AND status = ?", clinicIDs, status).
		Order("confirmation_sent_at DESC").
		Find(&postings).Error
	return postings, err
}

func (r *postingRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Posting, error) {
	var postings []model.Posting
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.PostingOpen, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&postings).Error
	return postings, err
}

func (r *postingRepo) Update(ctx context.Context, posting *model.Posting) error {
	oldVersion := posting.Version
	result := r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("posting_id = ? AND version = ?", posting.PostingID, oldVersion).
		Updates(map[string]interface{}{
			"reason":                   posting.Reason,
			"specialty":                posting.Specialty,
			"terms_accepted":           posting.TermsAccepted,
			"compensation_model":       posting.CompensationModel,
			"daily_rate":               posting.DailyRate,
			"procedures":               posting.Procedures,
			"payment_method":           posting.PaymentMethod,
			"payer":                    posting.Payer,
			"status":                   posting.Status,
			"published_at":             posting.PublishedAt,
			"expires_at":               posting.ExpiresAt,
			"chosen_professional_id":   posting.ChosenProfessionalID,
			"chosen_at":                posting.ChosenAt,
			"chosen_by":                posting.ChosenBy,
			"confirmation_code_hash":   posting.ConfirmationCodeHash,
			"confirmation_sent_at":     posting.ConfirmationSentAt,
			"confirmation_channel":     posting.ConfirmationChannel,
			"confirmation_expires_at":  posting.ConfirmationExpiresAt,
			"confirmation_received_at": posting.ConfirmationReceivedAt,
			"confirmation_outcome":     posting.ConfirmationOutcome,
			"confirmation_attempts":    posting.ConfirmationAttempts,
			"rejection_reason":         posting.RejectionReason,
			"observations":             posting.Observations,
			"cancelled_at":             posting.CancelledAt,
			"completed_at":             posting.CompletedAt,
			"updated_by":               posting.UpdatedBy,
			"updated_at":               gorm.Expr("NOW()"),
			"version":                  oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	posting.Version = oldVersion + 1
	return nil
}

func (r *postingRepo) MoveToSelection(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("posting_id = ? AND status = ?", id, model.PostingOpen).
		Updates(map[string]interface{}{
			"status":     model.PostingInSelection,
			"updated_at": gorm.Expr("NOW()"),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

func (r *postingRepo) IncrementCandidates(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("posting_id = ?", id).
		UpdateColumn("candidate_count", gorm.Expr("candidate_count + 1")).Error
}

func (r *postingRepo) DecrementCandidates(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("posting_id = ?", id).
		UpdateColumn("candidate_count", gorm.Expr("GREATEST(candidate_count - 1, 0)")).Error
}

func (r *postingRepo) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("posting_id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *postingRepo) RecordFailedCode(ctx context.Context, id string, limit int) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`UPDATE postings SET confirmation_attempts = confirmation_attempts + 1
			WHERE posting_id = ? AND status = ? AND confirmation_code_hash <> ''
			RETURNING confirmation_attempts`, id, model.PostingAwaitingConfirmation).
			Row().Scan(&attempts)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if attempts < limit {
			return nil
		}
		return tx.Model(&model.Posting{}).
			Where("posting_id = ?", id).
			UpdateColumn("confirmation_code_hash", "").Error
	})
	return attempts, err
}
