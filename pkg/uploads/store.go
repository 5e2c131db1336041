package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadStore provides database operations for uploaded tables.
type UploadStore struct {
	db *gorm.DB
}

// NewUploadStore creates a new UploadStore.
func NewUploadStore(db *gorm.DB) *UploadStore {
	return &UploadStore{db: db}
}

// AutoMigrate creates or updates the uploaded_tables table.
func (s *UploadStore) AutoMigrate() error {
	return s.db.AutoMigrate(&UploadedTable{})
}

// Replace deactivates every active table sharing t.OriginalName and stores t
// as the active one, in a single transaction. ID and UploadedAt are filled in
// when empty.
func (s *UploadStore) Replace(ctx context.Context, t *UploadedTable) (*UploadedTable, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.UploadedAt.IsZero() {
		t.UploadedAt = time.Now().UTC()
	}
	t.Active = true

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&UploadedTable{}).
			Where("original_name = ? AND active = ?", t.OriginalName, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate previous uploads: %w", err)
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("create upload: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListActive returns all active tables, newest first.
func (s *UploadStore) ListActive(ctx context.Context) ([]UploadedTable, error) {
	var tables []UploadedTable
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("uploaded_at DESC").
		Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list active uploads: %w", err)
	}
	return tables, nil
}

// Latest returns the most recently uploaded active table, or nil if none.
func (s *UploadStore) Latest(ctx context.Context) (*UploadedTable, error) {
	var t UploadedTable
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("uploaded_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest upload: %w", err)
	}
	return &t, nil
}

// ListByName returns every table ever uploaded under name, newest first,
// including deactivated ones.
func (s *UploadStore) ListByName(ctx context.Context, name string) ([]UploadedTable, error) {
	var tables []UploadedTable
	if err := s.db.WithContext(ctx).
		Where("original_name = ?", name).
		Order("uploaded_at DESC").
		Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list uploads by name: %w", err)
	}
	return tables, nil
}
