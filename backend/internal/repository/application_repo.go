package repository

import (
	"context"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// ApplicationRepository data access for applications
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	FindByPostingAndProfessional(ctx context.Context, postingID, professionalID string) (*model.Application, error)
	ListByPosting(ctx context.Context, postingID string) ([]model.Application, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]model.Application, error)
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, resultNotified bool) error
	// RejectPendingExcept marks every other PENDING application of the posting REJECTED.
	RejectPendingExcept(ctx context.Context, postingID, exceptID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo creates an ApplicationRepository
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("Professional").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) FindByPostingAndProfessional(ctx context.Context, postingID, professionalID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND professional_id = ?", postingID, professionalID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByPosting(ctx context.Context, postingID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Preload("Professional").
		Where("posting_id = ?", postingID).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListByProfessional(ctx context.Context, professionalID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, resultNotified bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("application_id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"result_notified": resultNotified,
			"updated_at":      gorm.Expr("NOW()"),
		}).Error
}

func (r *applicationRepo) RejectPendingExcept(ctx context.Context, postingID, exceptID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("posting_id = ? AND application_id <> ? AND status = ?", postingID, exceptID, model.ApplicationPending).
		Updates(map[string]interface{}{
			"status":          model.ApplicationRejected,
			"result_notified": false,
			"updated_at":      gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

func (r *applicationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("application_id = ?", id).
		Delete(&model.Application{}).Error
}
