package dto

// ── attendance module DTOs ──

// ValidateAttendanceRequest attendance outcome filed by the clinic
type ValidateAttendanceRequest struct {
	Attended          *bool  `json:"attended"           binding:"required"`
	PunctualityRating *int   `json:"punctuality_rating" binding:"omitempty,min=1,max=5"`
	MinutesLate       int    `json:"minutes_late"       binding:"min=0,max=1440"`
	Observations      string `json:"observations"       binding:"max=1000"`
	NoShowReason      string `json:"no_show_reason"     binding:"max=500"`
}

// Penalty outcomes
const (
	PenaltyNone       = "NONE"
	PenaltyWarning    = "WARNING"
	PenaltySuspension = "SUSPENSION"
)

// AttendanceResult result of a validation
type AttendanceResult struct {
	RecordID       string  `json:"record_id"`
	PostingID      string  `json:"posting_id"`
	PostingStatus  string  `json:"posting_status"`
	Attended       bool    `json:"attended"`
	Completed      int     `json:"completed_substitutions"`
	NoShowCount    int     `json:"no_show_count"`
	AttendanceRate float64 `json:"attendance_rate"`
	Penalty        string  `json:"penalty"`
	SuspensionDays int     `json:"suspension_days,omitempty"`
	SuspendedUntil string  `json:"suspended_until,omitempty"`
}

// ExportAttendanceQuery report period, YYYY-MM-DD, end exclusive
type ExportAttendanceQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}
