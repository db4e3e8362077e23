package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mateuscastro5/gym-api/internal/models"

	"gorm.io/gorm"
)

// LogFilter narrows audit log queries. Zero values are ignored.
type LogFilter struct {
	AccountID *uint
	Action    string
	Outcome   string
	Start     time.Time
	End       time.Time // exclusive
}

// LogRepository appends and reads audit log rows. It never updates or deletes.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append inserts one audit log row.
func (r *LogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (r *LogRepository) filtered(ctx context.Context, f LogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Outcome != "" {
		q = q.Where("outcome = ?", f.Outcome)
	}
	if !f.Start.IsZero() {
		q = q.Where("created_at >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("created_at < ?", f.End)
	}
	return q
}

// List returns one page of matching rows, newest first, plus the total count.
func (r *LogRepository) List(ctx context.Context, f LogFilter, page, size int) ([]models.AuditLog, int64, error) {
	base := r.filtered(ctx, f)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}

// All returns every matching row, oldest first, capped at limit.
func (r *LogRepository) All(ctx context.Context, f LogFilter, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := r.filtered(ctx, f).Order("created_at ASC, id ASC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("export audit logs: %w", err)
	}
	return logs, nil
}
