package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smart-mail-reply-go/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository persists the local audit mirror and the processed-message ledger.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CategoryCount is one row of the per-category statistics.
type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int64          `json:"count"`
}

func (r *Repository) AppendAudit(ctx context.Context, rec *model.AuditRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// ListAudit returns a page of audit records, newest first, and the total count.
func (r *Repository) ListAudit(ctx context.Context, page, limit int, category string) ([]model.AuditRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditRecord{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	var records []model.AuditRecord
	offset := (page - 1) * limit
	if err := q.Order("timestamp DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, total, nil
}

// AllAudit returns every audit record in processing order.
func (r *Repository) AllAudit(ctx context.Context) ([]model.AuditRecord, error) {
	var records []model.AuditRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load audit records: %w", err)
	}
	return records, nil
}

func (r *Repository) GetAudit(ctx context.Context, id uint) (*model.AuditRecord, error) {
	var rec model.AuditRecord
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}
	return &rec, nil
}

// CategoryCounts groups the audit log by category.
func (r *Repository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&model.AuditRecord{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	return counts, nil
}

// IsProcessed checks if a message key has already been handled
func (r *Repository) IsProcessed(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ProcessedMessage{}).Where("message_key = ?", key).Count(&n).Error; err != nil {
		return false, fmt.Errorf("database error checking processed message: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records a message key; repeated calls are no-ops.
func (r *Repository) MarkProcessed(ctx context.Context, key string, category model.Category) error {
	rec := model.ProcessedMessage{
		MessageKey:  key,
		Category:    category,
		ProcessedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to mark message as processed: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
