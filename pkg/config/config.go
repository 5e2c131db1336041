// Package config loads the server configuration from an optional YAML file,
// SIP_* environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sipcass/sipcass/pkg/audit"
	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/cache"
	"github.com/sipcass/sipcass/pkg/db"
)

// EnvPrefix is prepended to every environment variable, e.g. SIP_DATABASE_DSN.
const EnvPrefix = "SIP"

// Revocation backends.
const (
	RevocationDB    = "db"
	RevocationRedis = "redis"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database db.Config         `mapstructure:"database"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Auth     AuthConfig        `mapstructure:"auth"`
	Redis    RedisConfig       `mapstructure:"redis"`
	Audit    audit.AuditConfig `mapstructure:"audit"`
	Cache    cache.CacheConfig `mapstructure:"cache"`
	Logging  LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// StorageConfig locates uploaded spreadsheet files.
type StorageConfig struct {
	Root string `mapstructure:"root"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTTL         time.Duration `mapstructure:"access_ttl"`
	RefreshTTL        time.Duration `mapstructure:"refresh_ttl"`
	PrincipalCacheTTL time.Duration `mapstructure:"principal_cache_ttl"`
	Revocation        string        `mapstructure:"revocation"`
}

// TokenConfig converts the section into an authz.TokenConfig.
func (a AuthConfig) TokenConfig() authz.TokenConfig {
	return authz.TokenConfig{
		Secret:     a.Secret,
		Issuer:     a.Issuer,
		AccessTTL:  a.AccessTTL,
		RefreshTTL: a.RefreshTTL,
	}
}

// RedisConfig is only used when auth.revocation is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewLogger builds the process logger described by the section.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", l.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid logging.format %q (expected text or json)", l.Format)
	}
}

// Default returns the configuration used when nothing else is set. The auth
// secret has no default.
func Default() Config {
	token := authz.DefaultTokenConfig()
	return Config{
		Server: ServerConfig{
			Listen:          ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: db.DefaultConfig(),
		Storage:  StorageConfig{Root: "uploads"},
		Auth: AuthConfig{
			Issuer:            token.Issuer,
			AccessTTL:         token.AccessTTL,
			RefreshTTL:        token.RefreshTTL,
			PrincipalCacheTTL: authz.DefaultPrincipalCacheTTL,
			Revocation:        RevocationDB,
		},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "sipcass"},
		Audit:   *audit.DefaultAuditConfig(),
		Cache:   *cache.DefaultCacheConfig(),
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"listen":       "server.listen",
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-root": "storage.root",
	"log-level":    "logging.level",
}

// Load reads configuration. file may be empty; flags may be nil. Only flags
// the user actually set override file and environment values.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so environment variables are picked up by
// Unmarshal even when no file mentions them.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.log_queries", d.Database.LogQueries)
	v.SetDefault("database.migration_lock", d.Database.MigrationLock)

	v.SetDefault("storage.root", d.Storage.Root)

	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.access_ttl", d.Auth.AccessTTL)
	v.SetDefault("auth.refresh_ttl", d.Auth.RefreshTTL)
	v.SetDefault("auth.principal_cache_ttl", d.Auth.PrincipalCacheTTL)
	v.SetDefault("auth.revocation", d.Auth.Revocation)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.log_denied", d.Audit.LogDenied)
	v.SetDefault("audit.retention_days", d.Audit.RetentionDays)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.max_tables", d.Cache.MaxTables)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// ErrMissingSecret is returned by Validate when auth.secret is empty.
var ErrMissingSecret = errors.New("auth.secret is required (set SIP_AUTH_SECRET)")

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrMissingSecret
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return errors.New("storage.root is required")
	}
	switch c.Auth.Revocation {
	case RevocationDB:
	case RevocationRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required when auth.revocation is redis")
		}
	default:
		return fmt.Errorf("invalid auth.revocation %q (expected db or redis)", c.Auth.Revocation)
	}
	if _, err := c.Logging.NewLogger(io.Discard); err != nil {
		return err
	}
	return nil
}
