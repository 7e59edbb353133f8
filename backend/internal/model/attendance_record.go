package model

import "time"

// AttendanceRecord outcome of a confirmed substitution (table attendance_records)
type AttendanceRecord struct {
	RecordID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	PostingID         string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"posting_id"`
	ProfessionalID    string     `gorm:"type:varchar(64);not null"                      json:"professional_id"`
	ClinicID          string     `gorm:"type:uuid;not null"                             json:"clinic_id"`
	Attended          bool       `gorm:"not null"                                       json:"attended"`
	PunctualityRating *int       `json:"punctuality_rating,omitempty"` // 1..5
	MinutesLate       int        `gorm:"not null;default:0"                             json:"minutes_late"`
	Observations      string     `gorm:"type:varchar(1000)"                             json:"observations,omitempty"`
	NoShowReason      string     `gorm:"type:varchar(500)"                              json:"no_show_reason,omitempty"`
	Justified         bool       `gorm:"not null;default:false"                         json:"justified"`
	JustifiedBy       *string    `gorm:"type:varchar(64)"                               json:"justified_by,omitempty"`
	JustifiedAt       *time.Time `json:"justified_at,omitempty"`
	ValidatedBy       string     `gorm:"type:varchar(64);not null"                      json:"validated_by"`
	BaseModel

	Professional *Professional `gorm:"foreignKey:ProfessionalID;references:ProfessionalID" json:"professional,omitempty"`
	Posting      *Posting      `gorm:"foreignKey:PostingID;references:PostingID"           json:"posting,omitempty"`
}

// TableName maps the table
func (AttendanceRecord) TableName() string { return "attendance_records" }
