package model

import (
	"time"

	"gorm.io/gorm"
)

// ProcessedMessage marks a message as handled so that a message flagged
// unread again is not answered twice.
type ProcessedMessage struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageKey  string         `json:"message_key" gorm:"type:varchar(255);not null;uniqueIndex"`
	Category    Category       `json:"category" gorm:"type:varchar(32)"`
	ProcessedAt time.Time      `json:"processed_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for ProcessedMessage
func (ProcessedMessage) TableName() string {
	return "processed_messages"
}
