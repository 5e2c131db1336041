package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	gormDB, err := Open(Config{Type: TypeSQLite, DSN: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	defer func() { _ = Close(gormDB) }()

	assert.Equal(t, "sqlite", gormDB.Dialector.Name())
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"default", DefaultConfig(), nil},
		{"postgres", Config{Type: "postgres", DSN: "host=localhost"}, nil},
		{"mysql", Config{Type: "MySQL", DSN: "user@/sip"}, nil},
		{"empty type means sqlite", Config{DSN: "x.db"}, nil},
		{"missing dsn", Config{Type: TypePostgres}, ErrMissingDSN},
		{"unknown type", Config{Type: "oracle", DSN: "x"}, ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	_, err := Open(Config{Type: "oracle", DSN: "x"}, nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMigrateCreatesTables(t *testing.T) {
	gormDB, err := Open(Config{Type: TypeSQLite, DSN: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	defer func() { _ = Close(gormDB) }()

	require.NoError(t, Migrate(context.Background(), gormDB, true, nil))
	// Running again is a no-op.
	require.NoError(t, Migrate(context.Background(), gormDB, true, nil))

	for _, table := range []string{"uploaded_tables", "accounts", "aop_targets", "audit_events", "revoked_tokens", "migration_lock"} {
		assert.True(t, gormDB.Migrator().HasTable(table), table)
	}
}
