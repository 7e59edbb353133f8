package model

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxStatus delivery state of an outbox message
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxSent    OutboxStatus = "SENT"
	OutboxFailed  OutboxStatus = "FAILED"
)

// OutboxMessage out-of-band message waiting for the dispatcher (table outbox_messages)
type OutboxMessage struct {
	MessageID string            `gorm:"type:uuid;primaryKey"                         json:"message_id"`
	Channel   string            `gorm:"type:varchar(20);not null"                    json:"channel"` // whatsapp | push
	Recipient string            `gorm:"type:varchar(100);not null"                   json:"recipient"`
	Event     string            `gorm:"type:varchar(50);not null"                    json:"event"`
	Subject   string            `gorm:"type:varchar(200)"                            json:"subject,omitempty"`
	Body      string            `gorm:"type:text;not null"                           json:"body"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"                                   json:"metadata,omitempty"`
	RelatedID *string           `gorm:"type:uuid"                                    json:"related_id,omitempty"`
	Sensitive bool              `gorm:"not null;default:false"                       json:"sensitive"`
	Status    OutboxStatus      `gorm:"type:varchar(20);not null;default:'PENDING'"  json:"status"`
	Attempts  int               `gorm:"not null;default:0"                           json:"attempts"`
	LastError string            `gorm:"type:varchar(1000)"                           json:"last_error,omitempty"`
	SentAt    *time.Time        `json:"sent_at,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"updated_at"`
}

// TableName maps the table
func (OutboxMessage) TableName() string { return "outbox_messages" }
