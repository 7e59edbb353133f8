package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// CreatorType who opened the posting
type CreatorType string

const (
	CreatorProfessional CreatorType = "PROFESSIONAL"
	CreatorClinic       CreatorType = "CLINIC"
)

// CompensationModel how the substitute is paid
type CompensationModel string

const (
	CompensationDailyRate  CompensationModel = "DAILY_RATE"
	CompensationPercentage CompensationModel = "PERCENTAGE"
)

// ScheduleMode which date group of the posting is populated
type ScheduleMode string

const (
	ScheduleImmediate    ScheduleMode = "IMMEDIATE"
	ScheduleSpecificDate ScheduleMode = "SPECIFIC_DATE"
	ScheduleDateRange    ScheduleMode = "DATE_RANGE"
)

// PostingStatus lifecycle state of a posting
type PostingStatus string

const (
	PostingDraft                PostingStatus = "DRAFT"
	PostingOpen                 PostingStatus = "OPEN"
	PostingInSelection          PostingStatus = "IN_SELECTION"
	PostingAwaitingConfirmation PostingStatus = "AWAITING_CLINIC_CONFIRMATION"
	PostingConfirmed            PostingStatus = "CONFIRMED"
	PostingCompleted            PostingStatus = "COMPLETED"
	PostingCancelled            PostingStatus = "CANCELLED"
)

// Confirmation outcomes recorded on the posting
const (
	OutcomeApproved         = "APPROVED"
	OutcomeRejectedByClinic = "REJECTED_BY_CLINIC"
)

// ConfirmationChannelWhatsApp is the only out-of-band channel in use.
const ConfirmationChannelWhatsApp = "whatsapp"

// ErrInvalidTransition a status change not allowed by the lifecycle table
var ErrInvalidTransition = errors.New("transição de status não permitida")

// postingTransitions is the whole lifecycle. Terminal states have no entry.
var postingTransitions = map[PostingStatus][]PostingStatus{
	PostingDraft:                {PostingOpen, PostingCancelled},
	PostingOpen:                 {PostingInSelection, PostingCancelled},
	PostingInSelection:          {PostingAwaitingConfirmation, PostingCancelled},
	PostingAwaitingConfirmation: {PostingConfirmed, PostingInSelection, PostingCancelled},
	PostingConfirmed:            {PostingCompleted},
}

// Valid reports whether s is one of the known states.
func (s PostingStatus) Valid() bool {
	switch s {
	case PostingDraft, PostingOpen, PostingInSelection, PostingAwaitingConfirmation,
		PostingConfirmed, PostingCompleted, PostingCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s PostingStatus) IsTerminal() bool {
	return s == PostingCompleted || s == PostingCancelled
}

// CanTransitionTo reports whether s → next is in the lifecycle table.
func (s PostingStatus) CanTransitionTo(next PostingStatus) bool {
	for _, allowed := range postingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsApplications reports whether professionals may still apply.
func (s PostingStatus) AcceptsApplications() bool {
	return s == PostingOpen || s == PostingInSelection
}

// ProcedureShare one item of a percentage-per-procedure compensation
type ProcedureShare struct {
	Procedure  string  `json:"procedure"`
	Percentage float64 `json:"percentage"`
}

// Posting substitution opportunity (table postings)
type Posting struct {
	PostingID             string                              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"posting_id"`
	CreatorType           CreatorType                         `gorm:"type:varchar(20);not null"                      json:"creator_type"`
	CreatorProfessionalID *string                             `gorm:"type:varchar(64)"                               json:"creator_professional_id,omitempty"`
	ClinicID              string                              `gorm:"type:uuid;not null"                             json:"clinic_id"`
	Reason                string                              `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Specialty             string                              `gorm:"type:varchar(100)"                              json:"specialty,omitempty"`
	TermsAccepted         bool                                `gorm:"not null;default:false"                         json:"terms_accepted"`
	CompensationModel     CompensationModel                   `gorm:"type:varchar(20);not null"                      json:"compensation_model"`
	DailyRate             *float64                            `gorm:"type:numeric(10,2)"                             json:"daily_rate,omitempty"`
	Procedures            datatypes.JSONSlice[ProcedureShare] `gorm:"type:jsonb"                                     json:"procedures,omitempty"`
	PaymentMethod         string                              `gorm:"type:varchar(50)"                               json:"payment_method,omitempty"`
	Payer                 string                              `gorm:"type:varchar(50)"                               json:"payer,omitempty"`
	ScheduleMode          ScheduleMode                        `gorm:"type:varchar(20);not null"                      json:"schedule_mode"`
	ImmediateAt           *time.Time                          `json:"immediate_at,omitempty"`
	SpecificDate          *time.Time                          `gorm:"type:date"                                      json:"specific_date,omitempty"`
	PeriodStart           *time.Time                          `gorm:"type:date"                                      json:"period_start,omitempty"`
	PeriodEnd             *time.Time                          `gorm:"type:date"                                      json:"period_end,omitempty"`
	StartTime             string                              `gorm:"type:varchar(5)"                                json:"start_time,omitempty"` // HH:MM
	EndTime               string                              `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	AttendanceType        string                              `gorm:"type:varchar(30)"                               json:"attendance_type,omitempty"` // IMMEDIATE only
	ExpectedPatients      *int                                `json:"expected_patients,omitempty"`
	ExpectedProcedures    string                              `gorm:"type:varchar(500)"                              json:"expected_procedures,omitempty"`
	Status                PostingStatus                       `gorm:"type:varchar(40);not null;default:'DRAFT'"      json:"status"`
	PublishedAt           *time.Time                          `json:"published_at,omitempty"`
	ExpiresAt             *time.Time                          `json:"expires_at,omitempty"`
	CandidateCount        int                                 `gorm:"not null;default:0"                             json:"candidate_count"`
	ViewCount             int                                 `gorm:"not null;default:0"                             json:"view_count"`

	ChosenProfessionalID *string    `gorm:"type:varchar(64)" json:"chosen_professional_id,omitempty"`
	ChosenAt             *time.Time `json:"chosen_at,omitempty"`
	ChosenBy             *string    `gorm:"type:varchar(64)" json:"chosen_by,omitempty"`

	ConfirmationCodeHash   string     `gorm:"type:varchar(100)" json:"-"`
	ConfirmationSentAt     *time.Time `json:"confirmation_sent_at,omitempty"`
	ConfirmationChannel    string     `gorm:"type:varchar(20)"  json:"confirmation_channel,omitempty"`
	ConfirmationExpiresAt  *time.Time `json:"confirmation_expires_at,omitempty"`
	ConfirmationReceivedAt *time.Time `json:"confirmation_received_at,omitempty"`
	ConfirmationOutcome    string     `gorm:"type:varchar(30)"  json:"confirmation_outcome,omitempty"`
	ConfirmationAttempts   int        `gorm:"not null;default:0" json:"-"` // wrong codes against the current code

	RejectionReason string     `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`
	Observations    string     `gorm:"type:text"         json:"observations,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	VersionedModel

	Clinic *Clinic `gorm:"foreignKey:ClinicID;references:ClinicID" json:"clinic,omitempty"`
}

// TableName maps the table
func (Posting) TableName() string { return "postings" }

// TransitionTo moves the posting to next if the lifecycle allows it.
func (p *Posting) TransitionTo(next PostingStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

// OwnerID the user who created the posting.
func (p *Posting) OwnerID() string {
	if p.CreatedBy == nil {
		return ""
	}
	return *p.CreatedBy
}

// ComparisonDate the single calendar day used for conflict detection.
func (p *Posting) ComparisonDate(loc *time.Location) (time.Time, bool) {
	switch p.ScheduleMode {
	case ScheduleImmediate:
		if p.ImmediateAt != nil {
			return DateOf(*p.ImmediateAt, loc), true
		}
	case ScheduleSpecificDate:
		if p.SpecificDate != nil {
			return CalendarDay(*p.SpecificDate, loc), true
		}
	case ScheduleDateRange:
		if p.PeriodStart != nil {
			return CalendarDay(*p.PeriodStart, loc), true
		}
	}
	return time.Time{}, false
}

// DateSpan first and last calendar day the substitute is booked for.
func (p *Posting) DateSpan(loc *time.Location) (start, end time.Time, ok bool) {
	if p.ScheduleMode == ScheduleDateRange {
		if p.PeriodStart == nil || p.PeriodEnd == nil {
			return time.Time{}, time.Time{}, false
		}
		return CalendarDay(*p.PeriodStart, loc), CalendarDay(*p.PeriodEnd, loc), true
	}
	day, ok := p.ComparisonDate(loc)
	return day, day, ok
}

// ClearChoice drops the chosen-candidate fields and the pending code.
func (p *Posting) ClearChoice() {
	p.ChosenProfessionalID = nil
	p.ChosenAt = nil
	p.ChosenBy = nil
	p.ConfirmationCodeHash = ""
	p.ConfirmationExpiresAt = nil
	p.ConfirmationAttempts = 0
}

// AppendObservation adds a timestamped line to the observation log.
func (p *Posting) AppendObservation(at time.Time, text string) {
	line := fmt.Sprintf("[%s] %s", at.Format(time.RFC3339), strings.TrimSpace(text))
	if p.Observations == "" {
		p.Observations = line
		return
	}
	p.Observations += "\n" + line
}

// Expired reports whether an open posting passed its expiry.
func (p *Posting) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}
