package aop

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// TargetStore provides database operations for AOP targets.
type TargetStore struct {
	db *gorm.DB
}

// NewTargetStore creates a new TargetStore.
func NewTargetStore(db *gorm.DB) *TargetStore {
	return &TargetStore{db: db}
}

// AutoMigrate creates or updates the aop_targets table.
func (s *TargetStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Target{})
}

// ReplaceAll deletes every target and inserts targets in one transaction.
func (s *TargetStore) ReplaceAll(ctx context.Context, targets []Target) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Target{}).Error; err != nil {
			return fmt.Errorf("delete targets: %w", err)
		}
		if len(targets) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(targets, 200).Error; err != nil {
			return fmt.Errorf("insert targets: %w", err)
		}
		return nil
	})
}

// List returns every target ordered by id.
func (s *TargetStore) List(ctx context.Context) ([]Target, error) {
	var targets []Target
	if err := s.db.WithContext(ctx).Order("id").Find(&targets).Error; err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return targets, nil
}

// Get returns the target with id, or nil if none exists.
func (s *TargetStore) Get(ctx context.Context, id uint) (*Target, error) {
	var t Target
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return &t, nil
}

// Save writes every field of t. The target is recomputed before saving.
func (s *TargetStore) Save(ctx context.Context, t *Target) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save target: %w", err)
	}
	return nil
}
