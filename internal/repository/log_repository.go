package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ticketdesk/internal/model"
)

// LogRepository defines audit log persistence operations. There is no update
// or delete: the trail is append-only.
type LogRepository interface {
	Create(ctx context.Context, entry *model.LogEntry) error
	ListAll(ctx context.Context) ([]model.LogEntry, error)
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new audit log repository.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

// Create appends an entry. It always uses the base connection, never a
// transaction carried in ctx, so audit rows outlive rolled-back work.
func (r *logRepository) Create(ctx context.Context, entry *model.LogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create log entry: %w", err)
	}
	return nil
}

// ListAll returns entries newest first.
func (r *logRepository) ListAll(ctx context.Context) ([]model.LogEntry, error) {
	entries := make([]model.LogEntry, 0)
	if err := conn(ctx, r.db).Order("timestamp DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	return entries, nil
}
