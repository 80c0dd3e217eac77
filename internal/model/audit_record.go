package model

import (
	"time"

	"gorm.io/gorm"
)

// AuditRecord is one processed message, appended after the model was invoked.
type AuditRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID     string         `json:"run_id" gorm:"type:varchar(64);index"`
	MessageID string         `json:"message_id" gorm:"type:varchar(255);index"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null;index"`
	Sender    string         `json:"sender" gorm:"type:varchar(320)"`
	Subject   string         `json:"subject" gorm:"type:text"`
	Body      string         `json:"body" gorm:"type:text"`
	Category  Category       `json:"category" gorm:"type:varchar(32);index"`
	Answer    string         `json:"answer" gorm:"type:text"`
	Model     string         `json:"model" gorm:"type:varchar(128)"`
	Replied   bool           `json:"replied"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for AuditRecord
func (AuditRecord) TableName() string {
	return "audit_records"
}
