package repository

import (
	"context"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// ClinicRepository data access for clinics
type ClinicRepository interface {
	Create(ctx context.Context, clinic *model.Clinic) error
	GetByID(ctx context.Context, id string) (*model.Clinic, error)
	ListByResponsiblePhone(ctx context.Context, phone string) ([]model.Clinic, error)
}

type clinicRepo struct {
	db *gorm.DB
}

// NewClinicRepo creates a ClinicRepository
func NewClinicRepo(db *gorm.DB) ClinicRepository {
	return &clinicRepo{db: db}
}

func (r *clinicRepo) Create(ctx context.Context, clinic *model.Clinic) error {
	return r.db.WithContext(ctx).Create(clinic).Error
}

func (r *clinicRepo) GetByID(ctx context.Context, id string) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.WithContext(ctx).
		Where("clinic_id = ?", id).
		First(&clinic).Error
	if err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepo) ListByResponsiblePhone(ctx context.Context, phone string) ([]model.Clinic, error) {
	var clinics []model.Clinic
	err := r.db.WithContext(ctx).
		Where("responsible_phone = ?", phone).
		Find(&clinics).Error
	return clinics, err
}
