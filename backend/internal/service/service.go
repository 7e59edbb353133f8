package service

import (
	"go.uber.org/zap"

	"plantao/backend/config"
	"plantao/backend/internal/repository"
)

// Service aggregates every service
type Service struct {
	Posting      PostingService
	Attendance   AttendanceService
	Availability AvailabilityService
	Calendar     CalendarService
	Export       ExportService
	Sweep        SweepService
}

// NewService builds the aggregate. notifier may be nil, which drops every notification.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	sub := &cfg.Substitution
	return &Service{
		Posting:      NewPostingService(sub, repo, notifier, logger),
		Attendance:   NewAttendanceService(repo, notifier, logger),
		Availability: NewAvailabilityService(sub, repo, notifier, logger),
		Calendar:     NewCalendarService(sub, repo, logger),
		Export:       NewExportService(sub, repo, logger),
		Sweep:        NewSweepService(repo, notifier, logger),
	}
}
