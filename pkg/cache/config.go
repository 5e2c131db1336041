package cache

import "time"

// CacheConfig holds configuration for the parsed-upload cache.
type CacheConfig struct {
	// Enabled controls whether parsed uploads are kept between requests.
	// When false every request re-reads every active file.
	Enabled bool `mapstructure:"enabled"`

	// MaxTables is the maximum number of parsed uploads kept.
	MaxTables int `mapstructure:"max_tables"`

	// TTL bounds how long a parsed upload is kept after it was stored.
	TTL time.Duration `mapstructure:"ttl"`
}

// DefaultCacheConfig returns a CacheConfig with sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:   true,
		MaxTables: 64,
		TTL:       30 * time.Minute,
	}
}
