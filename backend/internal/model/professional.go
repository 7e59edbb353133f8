package model

import "time"

// AvailabilityStatus public availability flag
type AvailabilityStatus string

const (
	AvailabilityOnline  AvailabilityStatus = "ONLINE"
	AvailabilityOffline AvailabilityStatus = "OFFLINE"
)

// Professional profile plus reliability state (table professionals)
// ProfessionalID is the user id issued by the identity provider.
type Professional struct {
	ProfessionalID string   `gorm:"type:varchar(64);primaryKey"  json:"professional_id"`
	Name           string   `gorm:"type:varchar(200);not null"   json:"name"`
	Phone          string   `gorm:"type:varchar(20)"             json:"phone,omitempty"`
	Specialty      string   `gorm:"type:varchar(100)"            json:"specialty,omitempty"`
	GraduationYear int      `gorm:"not null;default:0"           json:"graduation_year,omitempty"`
	Rating         *float64 `gorm:"type:numeric(3,2)"            json:"rating,omitempty"`

	// reliability
	CompletedSubstitutions int        `gorm:"not null;default:0"                   json:"completed_substitutions"`
	NoShowCount            int        `gorm:"not null;default:0"                   json:"no_show_count"`
	AttendanceRate         float64    `gorm:"type:numeric(5,2);not null;default:100" json:"attendance_rate"`
	IsSuspended            bool       `gorm:"not null;default:false"               json:"is_suspended"`
	SuspendedUntil         *time.Time `json:"suspended_until,omitempty"`
	SuspensionReason       string     `gorm:"type:varchar(500)"                    json:"suspension_reason,omitempty"`

	// availability guard
	Available          bool               `gorm:"not null;default:false"                    json:"available"`
	AvailabilityStatus AvailabilityStatus `gorm:"type:varchar(10);not null;default:'OFFLINE'" json:"availability_status"`
	DailyActivations   int                `gorm:"not null;default:0"                        json:"daily_activations"`
	DailyDeactivations int                `gorm:"not null;default:0"                        json:"daily_deactivations"`
	CountersResetDate  string             `gorm:"type:varchar(10)"                          json:"counters_reset_date,omitempty"` // YYYY-MM-DD
	TogglePenaltyTier  int                `gorm:"not null;default:0"                        json:"toggle_penalty_tier"`
	LastLimitHitDate   string             `gorm:"type:varchar(10)"                          json:"last_limit_hit_date,omitempty"`
	LockoutUntil       *time.Time         `json:"lockout_until,omitempty"`
	VersionedModel
}

// TableName maps the table
func (Professional) TableName() string { return "professionals" }

// YearsSinceGraduation whole years between the graduation year and now; 0 when unknown.
func (p *Professional) YearsSinceGraduation(now time.Time) int {
	if p.GraduationYear <= 0 || p.GraduationYear > now.Year() {
		return 0
	}
	return now.Year() - p.GraduationYear
}

// SuspensionActive reports whether the suspension still applies at now.
// A suspension without an end date never expires on its own.
func (p *Professional) SuspensionActive(now time.Time) bool {
	if !p.IsSuspended {
		return false
	}
	return p.SuspendedUntil == nil || now.Before(*p.SuspendedUntil)
}

// LockedOut reports whether a toggle lockout is in force at now.
func (p *Professional) LockedOut(now time.Time) bool {
	return p.LockoutUntil != nil && now.Before(*p.LockoutUntil)
}

// LiftSuspension clears the suspension flags.
func (p *Professional) LiftSuspension() {
	p.IsSuspended = false
	p.SuspendedUntil = nil
	p.SuspensionReason = ""
}

// SetAvailable keeps available and availability_status in step.
func (p *Professional) SetAvailable(on bool) {
	p.Available = on
	if on {
		p.AvailabilityStatus = AvailabilityOnline
	} else {
		p.AvailabilityStatus = AvailabilityOffline
	}
}
