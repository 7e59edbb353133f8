package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository
type Repository struct {
	db *gorm.DB

	Posting         PostingRepository
	Application     ApplicationRepository
	Professional    ProfessionalRepository
	Clinic          ClinicRepository
	ScheduleBlock   ScheduleBlockRepository
	Attendance      AttendanceRepository
	Suspension      SuspensionRepository
	AvailabilityLog AvailabilityLogRepository
	Outbox          OutboxRepository
}

// NewRepository builds the aggregate over db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Posting:         NewPostingRepo(db),
		Application:     NewApplicationRepo(db),
		Professional:    NewProfessionalRepo(db),
		Clinic:          NewClinicRepo(db),
		ScheduleBlock:   NewScheduleBlockRepo(db),
		Attendance:      NewAttendanceRepo(db),
		Suspension:      NewSuspensionRepo(db),
		AvailabilityLog: NewAvailabilityLogRepo(db),
		Outbox:          NewOutboxRepo(db),
	}
}

// BeginTx opens a transaction. Returns nil, nil when the aggregate has no
// database (unit tests with mock repositories).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate bound to tx; with a nil tx it returns r.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction runs fn with an aggregate bound to one transaction and commits
// when fn returns nil. Without a database fn runs against r directly.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
