package handler

import (
	"plantao/backend/config"
	"plantao/backend/internal/service"
)

// Handler aggregates every HTTP handler
type Handler struct {
	Posting      *PostingHandler
	Application  *ApplicationHandler
	Attendance   *AttendanceHandler
	Availability *AvailabilityHandler
	Calendar     *CalendarHandler
	Export       *ExportHandler
}

// NewHandler builds the aggregate
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Posting:      NewPostingHandler(svc.Posting, cfg.Notify.WebhookSecret),
		Application:  NewApplicationHandler(svc.Posting),
		Attendance:   NewAttendanceHandler(svc.Attendance),
		Availability: NewAvailabilityHandler(svc.Availability),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Export:       NewExportHandler(svc.Export),
	}
}
