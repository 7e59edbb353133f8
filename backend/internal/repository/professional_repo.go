package repository

import (
	"context"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
	pkgerrors "plantao/backend/pkg/errors"
)

// ProfessionalRepository data access for professionals and their reliability state
type ProfessionalRepository interface {
	Create(ctx context.Context, p *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	// ListAvailable returns ONLINE, non-suspended professionals; an empty specialty matches all.
	ListAvailable(ctx context.Context, specialty string) ([]model.Professional, error)
	Update(ctx context.Context, p *model.Professional) error
}

type professionalRepo struct {
	db *gorm.DB
}

// NewProfessionalRepo creates a ProfessionalRepository
func NewProfessionalRepo(db *gorm.DB) ProfessionalRepository {
	return &professionalRepo{db: db}
}

func (r *professionalRepo) Create(ctx context.Context, p *model.Professional) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *professionalRepo) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	var p model.Professional
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professionalRepo) ListAvailable(ctx context.Context, specialty string) ([]model.Professional, error) {
	var list []model.Professional
	db := r.db.WithContext(ctx).
		Where("available = ? AND is_suspended = ?", true, false)
	if specialty != "" {
		db = db.Where("specialty = ?", specialty)
	}
	err := db.Order("professional_id").Find(&list).Error
	return list, err
}

func (r *professionalRepo) Update(ctx context.Context, p *model.Professional) error {
	oldVersion := p.Version
	result := r.db.WithContext(ctx).
		Model(&model.Professional{}).
		Where("professional_id = ? AND version = ?", p.ProfessionalID, oldVersion).
		Updates(map[string]interface{}{
			"name":                    p.Name,
			"phone":                   p.Phone,
			"specialty":               p.Specialty,
			"graduation_year":         p.GraduationYear,
			"rating":                  p.Rating,
			"completed_substitutions": p.CompletedSubstitutions,
			"no_show_count":           p.NoShowCount,
			"attendance_rate":         p.AttendanceRate,
			"is_suspended":            p.IsSuspended,
			"suspended_until":         p.SuspendedUntil,
			"suspension_reason":       p.SuspensionReason,
			"available":               p.Available,
			"availability_status":     p.AvailabilityStatus,
			"daily_activations":       p.DailyActivations,
			"daily_deactivations":     p.DailyDeactivations,
			"counters_reset_date":     p.CountersResetDate,
			"toggle_penalty_tier":     p.TogglePenaltyTier,
			"last_limit_hit_date":     p.LastLimitHitDate,
			"lockout_until":           p.LockoutUntil,
			"updated_by":              p.UpdatedBy,
			"updated_at":              gorm.Expr("NOW()"),
			"version":                 oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version = oldVersion + 1
	return nil
}
