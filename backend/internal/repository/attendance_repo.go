package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// AttendanceRepository data access for attendance records
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	GetByPosting(ctx context.Context, postingID string) (*model.AttendanceRecord, error)
	// ListByClinic returns records created in [from, to).
	ListByClinic(ctx context.Context, clinicID string, from, to time.Time) ([]model.AttendanceRecord, error)
	MarkJustified(ctx context.Context, id string, by string, at time.Time) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates an AttendanceRepository
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) GetByPosting(ctx context.Context, postingID string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("posting_id = ?", postingID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ListByClinic(ctx context.Context, clinicID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Professional").
		Preload("Posting").
		Where("clinic_id = ? AND created_at >= ? AND created_at < ?", clinicID, from, to).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) MarkJustified(ctx context.Context, id string, by string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("record_id = ?", id).
		Updates(map[string]interface{}{
			"justified":    true,
			"justified_by": by,
			"justified_at": at,
			"updated_by":   by,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}
