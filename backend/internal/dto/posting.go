package dto

import "time"

// ── posting module DTOs ──

// ProcedureShareRequest one procedure of a percentage compensation
type ProcedureShareRequest struct {
	Procedure  string  `json:"procedure"  validate:"required,max=200"`
	Percentage float64 `json:"percentage" validate:"gt=0,lte=100"`
}

// CreatePostingRequest create a posting (DRAFT).
// Cross-field rules (compensation, date group) are checked by the service.
type CreatePostingRequest struct {
	CreatorType           string                  `json:"creator_type"            validate:"required,oneof=PROFESSIONAL CLINIC"`
	ClinicID              string                  `json:"clinic_id"               validate:"required"`
	CreatorProfessionalID string                  `json:"creator_professional_id" validate:"omitempty,max=64"`
	Reason                string                  `json:"reason"                  validate:"max=500"`
	Specialty             string                  `json:"specialty"               validate:"max=100"`
	TermsAccepted         bool                    `json:"terms_accepted"`
	CompensationModel     string                  `json:"compensation_model"      validate:"required,oneof=DAILY_RATE PERCENTAGE"`
	DailyRate             *float64                `json:"daily_rate"              validate:"omitempty,gt=0"`
	Procedures            []ProcedureShareRequest `json:"procedures"              validate:"omitempty,dive"`
	PaymentMethod         string                  `json:"payment_method"          validate:"max=50"`
	Payer                 string                  `json:"payer"                   validate:"max=50"`
	ScheduleMode          string                  `json:"schedule_mode"           validate:"required,oneof=IMMEDIATE SPECIFIC_DATE DATE_RANGE"`
	ImmediateAt           *time.Time              `json:"immediate_at"`
	SpecificDate          string                  `json:"specific_date"           validate:"omitempty,datetime=2006-01-02"`
	PeriodStart           string                  `json:"period_start"            validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd             string                  `json:"period_end"              validate:"omitempty,datetime=2006-01-02"`
	StartTime             string                  `json:"start_time"              validate:"omitempty,datetime=15:04"`
	EndTime               string                  `json:"end_time"                validate:"omitempty,datetime=15:04"`
	AttendanceType        string                  `json:"attendance_type"         validate:"max=30"`
	ExpectedPatients      *int                    `json:"expected_patients"       validate:"omitempty,gte=0"`
	ExpectedProcedures    string                  `json:"expected_procedures"     validate:"max=500"`
}

// ListPostingsQuery list filters
type ListPostingsQuery struct {
	PaginationRequest
	Status    string `form:"status"`
	ClinicID  string `form:"clinic_id"`
	Mine      bool   `form:"mine"`
	Specialty string `form:"specialty"`
}

// CancelPostingRequest cancel a posting
type CancelPostingRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// ChooseCandidateRequest choose an application
type ChooseCandidateRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
}

// ConfirmRequest the clinic's answer to a confirmation request
type ConfirmRequest struct {
	Code     string `json:"code"     binding:"required,len=6,numeric"`
	Approved *bool  `json:"approved" binding:"required"`
	Reason   string `json:"reason"   binding:"max=500"`
}

// ReplyWebhookRequest inbound WhatsApp reply forwarded by the messaging gateway
type ReplyWebhookRequest struct {
	From string `json:"from" binding:"required,max=20"`
	Text string `json:"text" binding:"required,max=1000"`
}

// ProcedureShareResponse procedure share
type ProcedureShareResponse struct {
	Procedure  string  `json:"procedure"`
	Percentage float64 `json:"percentage"`
}

// PostingResponse posting read model
type PostingResponse struct {
	ID                    string                   `json:"id"`
	CreatorType           string                   `json:"creator_type"`
	CreatorProfessionalID string                   `json:"creator_professional_id,omitempty"`
	ClinicID              string                   `json:"clinic_id"`
	ClinicName            string                   `json:"clinic_name,omitempty"`
	Reason                string                   `json:"reason,omitempty"`
	Specialty             string                   `json:"specialty,omitempty"`
	CompensationModel     string                   `json:"compensation_model"`
	DailyRate             *float64                 `json:"daily_rate,omitempty"`
	Procedures            []ProcedureShareResponse `json:"procedures,omitempty"`
	PaymentMethod         string                   `json:"payment_method,omitempty"`
	Payer                 string                   `json:"payer,omitempty"`
	ScheduleMode          string                   `json:"schedule_mode"`
	ImmediateAt           string                   `json:"immediate_at,omitempty"`
	SpecificDate          string                   `json:"specific_date,omitempty"`
	PeriodStart           string                   `json:"period_start,omitempty"`
	PeriodEnd             string                   `json:"period_end,omitempty"`
	StartTime             string                   `json:"start_time,omitempty"`
	EndTime               string                   `json:"end_time,omitempty"`
	AttendanceType        string                   `json:"attendance_type,omitempty"`
	ExpectedPatients      *int                     `json:"expected_patients,omitempty"`
	ExpectedProcedures    string                   `json:"expected_procedures,omitempty"`
	Status                string                   `json:"status"`
	PublishedAt           string                   `json:"published_at,omitempty"`
	ExpiresAt             string                   `json:"expires_at,omitempty"`
	CandidateCount        int                      `json:"candidate_count"`
	ViewCount             int                      `json:"view_count"`
	ChosenProfessionalID  string                   `json:"chosen_professional_id,omitempty"`
	ChosenAt              string                   `json:"chosen_at,omitempty"`
	ConfirmationSentAt    string                   `json:"confirmation_sent_at,omitempty"`
	ConfirmationOutcome   string                   `json:"confirmation_outcome,omitempty"`
	RejectionReason       string                   `json:"rejection_reason,omitempty"`
	Observations          string                   `json:"observations,omitempty"`
	Version               int                      `json:"version"`
	CreatedAt             string                   `json:"created_at"`
}

// ConfirmResult outcome of a confirmation answer
type ConfirmResult struct {
	PostingID string `json:"posting_id"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
}
