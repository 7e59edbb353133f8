package model

import "time"

// Toggle actions
const (
	ToggleActivate   = "ACTIVATE"
	ToggleDeactivate = "DEACTIVATE"
)

// AvailabilityLog audit row for every availability toggle (table availability_logs)
type AvailabilityLog struct {
	LogID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	ProfessionalID string    `gorm:"type:varchar(64);not null"                      json:"professional_id"`
	Action         string    `gorm:"type:varchar(20);not null"                      json:"action"`
	Justification  string    `gorm:"type:varchar(500)"                              json:"justification,omitempty"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName maps the table
func (AvailabilityLog) TableName() string { return "availability_logs" }
