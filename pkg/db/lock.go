package db

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"gorm.io/gorm"
)

// MigrationLocker is the interface for acquiring a lock around database
// migrations to prevent concurrent AutoMigrate calls from multiple replicas.
type MigrationLocker interface {
	// WithLock executes fn while holding the migration lock.
	// It blocks until the lock is acquired, then releases it after fn returns.
	WithLock(ctx context.Context, fn func() error) error
}

// NewMigrationLocker creates a MigrationLocker appropriate for the database
// dialect. PostgreSQL uses advisory locks; other databases use a table-based
// fallback. The lock table is created immediately for the fallback strategy.
func NewMigrationLocker(gormDB *gorm.DB) MigrationLocker {
	if gormDB == nil {
		return noopMigrationLock{}
	}
	if gormDB.Dialector.Name() == TypePostgres {
		return &pgAdvisoryLock{
			db:     gormDB,
			lockID: int64(crc32.ChecksumIEEE([]byte("sip-server-migration"))),
		}
	}
	// Create the lock table up front so concurrent callers never hit
	// "no such table" on their first attempt.
	_ = gormDB.AutoMigrate(&migrationLockRecord{})
	return &tableMigrationLock{
		db:            gormDB,
		maxRetries:    30,
		retryInterval: time.Second,
		staleAge:      5 * time.Minute,
	}
}

type noopMigrationLock struct{}

func (noopMigrationLock) WithLock(_ context.Context, fn func() error) error {
	return fn()
}

// pgAdvisoryLock serializes migrations with a session-level advisory lock.
type pgAdvisoryLock struct {
	db     *gorm.DB
	lockID int64
}

func (l *pgAdvisoryLock) WithLock(ctx context.Context, fn func() error) error {
	if err := l.db.WithContext(ctx).Exec("SELECT pg_advisory_lock(?)", l.lockID).Error; err != nil {
		return fmt.Errorf("failed to acquire migration advisory lock: %w", err)
	}
	defer func() {
		_ = l.db.Exec("SELECT pg_advisory_unlock(?)", l.lockID).Error
	}()

	return fn()
}

type migrationLockRecord struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (migrationLockRecord) TableName() string { return "migration_lock" }

// tableMigrationLock holds the lock by owning the single row of the
// migration_lock table. Rows older than staleAge are treated as left behind
// by a crashed holder and removed.
type tableMigrationLock struct {
	db            *gorm.DB
	maxRetries    int
	retryInterval time.Duration
	staleAge      time.Duration
}

func (l *tableMigrationLock) WithLock(ctx context.Context, fn func() error) error {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	row := migrationLockRecord{ID: "migration", LockedBy: hostname}

	for i := 0; ; i++ {
		l.db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", row.ID, time.Now().Add(-l.staleAge)).
			Delete(&migrationLockRecord{})

		row.LockedAt = time.Now()
		err := l.db.WithContext(ctx).Create(&row).Error
		if err == nil {
			break
		}
		if i >= l.maxRetries-1 {
			return fmt.Errorf("failed to acquire migration lock after %d retries: %w", l.maxRetries, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}

	defer func() {
		l.db.Where("id = ?", row.ID).Delete(&migrationLockRecord{})
	}()

	return fn()
}
