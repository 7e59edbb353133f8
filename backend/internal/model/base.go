package model

import "time"

// BaseModel audit columns embedded by every business table.
// Actor ids come from the external identity provider and are not UUIDs in general.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// VersionedModel adds the optimistic lock column.
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// SystemActor stamps rows written by the engine itself (penalties, sweeps).
const SystemActor = "system"

// DateLayout is the storage format of calendar-day strings.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalendarDay rebuilds a date-only value at midnight in loc, keeping its
// year/month/day as stored. DATE columns come back as midnight UTC.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
