package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AuditStore provides database operations for audit events.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// AutoMigrate creates or updates the audit_events table.
func (s *AuditStore) AutoMigrate() error {
	return s.db.AutoMigrate(&AuditEvent{})
}

// Append stores a new audit event.
func (s *AuditStore) Append(ctx context.Context, event *AuditEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListFilter narrows ListFiltered. Empty fields match everything.
type ListFilter struct {
	Actor    string
	Resource string
	Action   string
	Outcome  string
}

// ListFiltered returns paginated audit events ordered by created_at DESC.
// pageToken is an RFC3339 timestamp; events with created_at < pageToken are returned.
func (s *AuditStore) ListFiltered(ctx context.Context, filter ListFilter, pageSize int, pageToken string) ([]AuditEvent, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Actor != "" {
			q = q.Where("actor = ?", filter.Actor)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", filter.Outcome)
		}
		return q
	}

	db := s.db.WithContext(ctx)

	var totalSize int64
	if err := apply(db.Model(&AuditEvent{})).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit events: %w", err)
	}

	query := apply(db.Order("created_at DESC").Limit(pageSize + 1))
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", t)
	}

	var records []AuditEvent
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit events: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// GetByID returns the event with id, or nil if none exists.
func (s *AuditStore) GetByID(ctx context.Context, id string) (*AuditEvent, error) {
	var e AuditEvent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return &e, nil
}

// DeleteOlderThan deletes audit events created before the given cutoff time.
// Returns the number of deleted records.
func (s *AuditStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&AuditEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
