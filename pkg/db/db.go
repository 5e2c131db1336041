// Package db opens the record store and applies schema migrations.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

var (
	// ErrUnknownType is returned for a database type other than sqlite,
	// postgres or mysql.
	ErrUnknownType = errors.New("unknown database type")

	// ErrMissingDSN is returned when no connection string is configured.
	ErrMissingDSN = errors.New("database DSN is required")
)

// Config describes the record store connection.
type Config struct {
	Type            string        `mapstructure:"type"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
	MigrationLock   bool          `mapstructure:"migration_lock"`
}

// DefaultConfig returns a Config for a local SQLite file.
func DefaultConfig() Config {
	return Config{
		Type:            TypeSQLite,
		DSN:             "sipcass.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		MigrationLock:   true,
	}
}

// Validate checks the type and DSN.
func (c Config) Validate() error {
	if _, err := dialector(c); err != nil {
		return err
	}
	return nil
}

func dialector(cfg Config) (gorm.Dialector, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrMissingDSN
	}
	switch strings.ToLower(cfg.Type) {
	case TypeSQLite, "sqlite3", "":
		return sqlite.Open(cfg.DSN), nil
	case TypePostgres, "postgresql":
		return postgres.Open(cfg.DSN), nil
	case TypeMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected sqlite, postgres or mysql)", ErrUnknownType, cfg.Type)
	}
}

// Open connects to the record store described by cfg and applies the pool
// settings.
func Open(cfg Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if cfg.LogQueries {
		level = logger.Info
	}
	gormDB, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("connected to database", "type", gormDB.Dialector.Name())
	return gormDB, nil
}

// Close releases the underlying connection pool.
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
