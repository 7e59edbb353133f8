package repository

import (
	"context"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// AvailabilityLogRepository data access for availability logs
type AvailabilityLogRepository interface {
	Create(ctx context.Context, log *model.AvailabilityLog) error
	ListByProfessional(ctx context.Context, professionalID string, limit int) ([]model.AvailabilityLog, error)
}

type availabilityLogRepo struct {
	db *gorm.DB
}

// NewAvailabilityLogRepo creates an AvailabilityLogRepository
func NewAvailabilityLogRepo(db *gorm.DB) AvailabilityLogRepository {
	return &availabilityLogRepo{db: db}
}

func (r *availabilityLogRepo) Create(ctx context.Context, log *model.AvailabilityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *availabilityLogRepo) ListByProfessional(ctx context.Context, professionalID string, limit int) ([]model.AvailabilityLog, error) {
	var logs []model.AvailabilityLog
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
