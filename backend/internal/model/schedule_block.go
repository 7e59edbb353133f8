package model

import "time"

// BlockType origin of a schedule block
type BlockType string

const (
	BlockSubstitution BlockType = "SUBSTITUTION"
	BlockManual       BlockType = "MANUAL"
)

// ScheduleBlock a period in which a professional is unavailable (table schedule_blocks)
type ScheduleBlock struct {
	BlockID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"block_id"`
	ProfessionalID string    `gorm:"type:varchar(64);not null"                      json:"professional_id"`
	PostingID      *string   `gorm:"type:uuid"                                      json:"posting_id,omitempty"`
	Type           BlockType `gorm:"type:varchar(20);not null"                      json:"type"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"`
	StartTime      string    `gorm:"type:varchar(5)"                                json:"start_time,omitempty"`
	EndTime        string    `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	Active         bool      `gorm:"not null;default:true"                          json:"active"`
	Note           string    `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	BaseModel
}

// TableName maps the table
func (ScheduleBlock) TableName() string { return "schedule_blocks" }

// Covers reports whether day falls inside the block, both ends inclusive.
// Only calendar dates are compared; the time window is ignored.
func (b *ScheduleBlock) Covers(day time.Time) bool {
	loc := day.Location()
	start := CalendarDay(b.StartDate, loc)
	end := CalendarDay(b.EndDate, loc)
	day = CalendarDay(day, loc)
	return !day.Before(start) && !day.After(end)
}
