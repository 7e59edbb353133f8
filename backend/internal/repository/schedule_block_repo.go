package repository

import (
	"context"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// ScheduleBlockRepository data access for schedule blocks
type ScheduleBlockRepository interface {
	Create(ctx context.Context, block *model.ScheduleBlock) error
	GetByID(ctx context.Context, id string) (*model.ScheduleBlock, error)
	ListActiveByProfessional(ctx context.Context, professionalID string) ([]model.ScheduleBlock, error)
	Deactivate(ctx context.Context, id string, updatedBy string) error
}

type scheduleBlockRepo struct {
	db *gorm.DB
}

// NewScheduleBlockRepo creates a ScheduleBlockRepository
func NewScheduleBlockRepo(db *gorm.DB) ScheduleBlockRepository {
	return &scheduleBlockRepo{db: db}
}

func (r *scheduleBlockRepo) Create(ctx context.Context, block *model.ScheduleBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *scheduleBlockRepo) GetByID(ctx context.Context, id string) (*model.ScheduleBlock, error) {
	var block model.ScheduleBlock
	err := r.db.WithContext(ctx).
		Where("block_id = ?", id).
		First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *scheduleBlockRepo) ListActiveByProfessional(ctx context.Context, professionalID string) ([]model.ScheduleBlock, error) {
	var blocks []model.ScheduleBlock
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND active = ?", professionalID, true).
		Order("start_date ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *scheduleBlockRepo) Deactivate(ctx context.Context, id string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleBlock{}).
		Where("block_id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}
