// Package entity provides base types shared by all domain entities.
package entity

import (
	"context"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all tenant-scoped entities.
// Tenant isolation is row-level: every query filters by tenant_id.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// TenantID is the owning tenant
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity(tenantID id.ID) BaseEntity {
	return BaseEntity{
		ID:       id.New(),
		TenantID: tenantID,
		Version:  1,
	}
}

// Touch increments version (for optimistic locking).
func (b *BaseEntity) Touch() {
	b.Version++
}

// Validate checks the base invariants.
func (b *BaseEntity) Validate(ctx context.Context) error {
	if id.IsNil(b.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	return nil
}

// BaseDocument extends BaseEntity with audit fields for documents.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument(tenantID id.ID) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(tenantID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}
