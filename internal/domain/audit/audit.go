// Package audit defines the change-log contract consumed by domain services.
// The storage implementation lives in infrastructure/storage/postgres.
package audit

import (
	"context"

	"farmbooks/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Recorder records entity changes for the audit trail.
type Recorder interface {
	// LogChange records a change set for an entity. Implementations must not
	// fail the business operation: callers treat errors as log-and-continue.
	LogChange(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, action Action, changes map[string]any) error
}
