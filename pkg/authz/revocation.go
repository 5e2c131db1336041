package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationStore remembers revoked refresh token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevokedToken is the GORM model for a revoked refresh token.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;column:token_id;type:varchar(36)"`
	ExpiresAt time.Time `gorm:"column:expires_at;index;not null"`
	RevokedAt time.Time `gorm:"column:revoked_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (RevokedToken) TableName() string { return "revoked_tokens" }

// DBRevocationStore keeps revocations in the record store.
type DBRevocationStore struct {
	db *gorm.DB
}

// NewDBRevocationStore creates a new DBRevocationStore.
func NewDBRevocationStore(db *gorm.DB) *DBRevocationStore {
	return &DBRevocationStore{db: db}
}

// AutoMigrate creates or updates the revoked_tokens table.
func (s *DBRevocationStore) AutoMigrate() error {
	return s.db.AutoMigrate(&RevokedToken{})
}

// Revoke records tokenID. Revoking the same id twice is a no-op.
func (s *DBRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	rec := &RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error; err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (s *DBRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// DeleteExpired removes revocations whose tokens have expired anyway.
func (s *DBRevocationStore) DeleteExpired(now time.Time) (int64, error) {
	result := s.db.Where("expires_at < ?", now).Delete(&RevokedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RedisRevocationStore keeps revocations in Redis with a TTL matching the
// token's remaining lifetime.
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRevocationStore creates a RedisRevocationStore. Keys are written as
// "<prefix>:revoked:<tokenID>".
func NewRedisRevocationStore(client redis.UniversalClient, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = "sipcass"
	}
	return &RedisRevocationStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisRevocationStore) key(tokenID string) string {
	return fmt.Sprintf("%s:revoked:%s", s.prefix, tokenID)
}

// Revoke records tokenID until expiresAt. Already-expired tokens are skipped.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
