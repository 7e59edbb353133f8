package model

import (
	"fmt"
	"time"
)

// Suspension penalty applied after a no-show (table suspensions)
type Suspension struct {
	SuspensionID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"suspension_id"`
	ProfessionalID string     `gorm:"type:varchar(64);not null"                      json:"professional_id"`
	Type           string     `gorm:"type:varchar(20);not null"                      json:"type"` // NO_SHOW_<n>
	Days           int        `gorm:"not null"                                       json:"days"`
	StartsAt       time.Time  `gorm:"not null"                                       json:"starts_at"`
	EndsAt         time.Time  `gorm:"not null"                                       json:"ends_at"`
	Reason         string     `gorm:"type:varchar(500)"                              json:"reason"`
	PostingID      *string    `gorm:"type:uuid"                                      json:"posting_id,omitempty"`
	Active         bool       `gorm:"not null;default:true"                          json:"active"`
	LiftedAt       *time.Time `json:"lifted_at,omitempty"`
	BaseModel
}

// TableName maps the table
func (Suspension) TableName() string { return "suspensions" }

// NoShowType tag for the n-th no-show.
func NoShowType(n int) string { return fmt.Sprintf("NO_SHOW_%d", n) }
