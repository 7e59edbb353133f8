package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// SuspensionRepository data access for suspensions
type SuspensionRepository interface {
	Create(ctx context.Context, s *model.Suspension) error
	GetActiveByPosting(ctx context.Context, postingID string) (*model.Suspension, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]model.Suspension, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Suspension, error)
	Lift(ctx context.Context, id string, at time.Time) error
}

type suspensionRepo struct {
	db *gorm.DB
}

// NewSuspensionRepo creates a SuspensionRepository
func NewSuspensionRepo(db *gorm.DB) SuspensionRepository {
	return &suspensionRepo{db: db}
}

func (r *suspensionRepo) Create(ctx context.Context, s *model.Suspension) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *suspensionRepo) GetActiveByPosting(ctx context.Context, postingID string) (*model.Suspension, error) {
	var s model.Suspension
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND active = ?", postingID, true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *suspensionRepo) ListByProfessional(ctx context.Context, professionalID string) ([]model.Suspension, error) {
	var list []model.Suspension
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("starts_at DESC").
		Find(&list).Error
	return list, err
}

func (r *suspensionRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Suspension, error) {
	var list []model.Suspension
	err := r.db.WithContext(ctx).
		Where("active = ? AND days > 0 AND ends_at <= ?", true, now).
		Order("ends_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *suspensionRepo) Lift(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Suspension{}).
		Where("suspension_id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"lifted_at":  at,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}
