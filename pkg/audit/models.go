// Package audit records every mutating request made by an authenticated
// principal and serves the trail back to DMs.
package audit

import (
	"time"

	"gorm.io/datatypes"
)

// Event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// AuditEvent is the GORM model for one audited request.
type AuditEvent struct {
	ID            string                      `gorm:"primaryKey;column:id;type:varchar(36)"`
	CorrelationID string                      `gorm:"column:correlation_id;index"`
	RequestID     string                      `gorm:"column:request_id"`
	Actor         string                      `gorm:"column:actor;index;not null"`
	ActorRole     string                      `gorm:"column:actor_role"`
	Resource      string                      `gorm:"column:resource;index"`
	ResourceIDs   datatypes.JSONSlice[string] `gorm:"column:resource_ids"`
	Action        string                      `gorm:"column:action;index"`
	Outcome       string                      `gorm:"column:outcome;not null"`
	StatusCode    int                         `gorm:"column:status_code"`
	Metadata      datatypes.JSONMap           `gorm:"column:metadata"`
	CreatedAt     time.Time                   `gorm:"column:created_at;index;not null"`
}

// TableName returns the GORM table name.
func (AuditEvent) TableName() string { return "audit_events" }
