package audit

// AuditConfig controls audit behavior.
type AuditConfig struct {
	RetentionDays int  `mapstructure:"retention_days"` // Default 90
	LogDenied     bool `mapstructure:"log_denied"`     // Whether to log denied (403) actions
	Enabled       bool `mapstructure:"enabled"`        // Whether audit middleware is active
}

// DefaultAuditConfig returns the default configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		RetentionDays: 90,
		LogDenied:     true,
		Enabled:       true,
	}
}
