package db

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/sipcass/sipcass/pkg/accounts"
	"github.com/sipcass/sipcass/pkg/aop"
	"github.com/sipcass/sipcass/pkg/audit"
	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/uploads"
)

// Models lists every table owned by the server.
func Models() []any {
	return []any{
		&uploads.UploadedTable{},
		&accounts.Account{},
		&aop.Target{},
		&audit.AuditEvent{},
		&authz.RevokedToken{},
	}
}

// Migrate creates or updates every table. When lock is true the migration
// runs under a MigrationLocker so replicas never migrate concurrently.
func Migrate(ctx context.Context, gormDB *gorm.DB, lock bool, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	var locker MigrationLocker = noopMigrationLock{}
	if lock {
		locker = NewMigrationLocker(gormDB)
	}

	return locker.WithLock(ctx, func() error {
		if err := gormDB.WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("database schema up to date", "tables", len(Models()))
		return nil
	})
}
