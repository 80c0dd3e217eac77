package handler

import (
	"time"

	"smart-mail-reply-go/internal/model"
)

// RulesRequest replaces the business rule document
type RulesRequest struct {
	Rules string `json:"rules" binding:"required"`
}

// RulesResponse carries the current business rule document
type RulesResponse struct {
	Rules string `json:"rules"`
}

// AuditRecordResponse represents one audit log entry
type AuditRecordResponse struct {
	ID        uint           `json:"id"`
	RunID     string         `json:"run_id"`
	MessageID string         `json:"message_id"`
	Timestamp time.Time      `json:"timestamp"`
	Sender    string         `json:"sender"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Category  model.Category `json:"category"`
	Answer    string         `json:"answer"`
	Model     string         `json:"model"`
	Replied   bool           `json:"replied"`
}

func newAuditRecordResponse(rec model.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:        rec.ID,
		RunID:     rec.RunID,
		MessageID: rec.MessageID,
		Timestamp: rec.Timestamp,
		Sender:    rec.Sender,
		Subject:   rec.Subject,
		Body:      rec.Body,
		Category:  rec.Category,
		Answer:    rec.Answer,
		Model:     rec.Model,
		Replied:   rec.Replied,
	}
}

// SchedulerStatusResponse describes the periodic runner
type SchedulerStatusResponse struct {
	Status      string            `json:"status"`
	Interval    string            `json:"interval"`
	NextRun     time.Time         `json:"next_run"`
	LastRun     time.Time         `json:"last_run"`
	LastSummary *model.RunSummary `json:"last_summary,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string     `json:"status"`
	Timestamp      time.Time  `json:"timestamp"`
	Database       string     `json:"database"`
	Scheduler      string     `json:"scheduler"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	LastRunAborted bool       `json:"last_run_aborted"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
