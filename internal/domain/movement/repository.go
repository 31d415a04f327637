package movement

import (
	"context"

	"farmbooks/internal/core/id"
)

// Repository defines persistence operations for movement types.
type Repository interface {
	Create(ctx context.Context, mt *MovementType) error
	GetByID(ctx context.Context, tenantID, typeID id.ID) (*MovementType, error)

	// GetByCode resolves a code within the tenant scope: a tenant-specific
	// row wins over a system-wide row with the same code.
	GetByCode(ctx context.Context, tenantID id.ID, code Code) (*MovementType, error)

	Update(ctx context.Context, mt *MovementType) error
	Delete(ctx context.Context, typeID id.ID) error

	// List returns system-wide rows plus the tenant's own rows.
	List(ctx context.Context, tenantID id.ID) ([]MovementType, error)

	ExistsByCode(ctx context.Context, tenantID id.ID, code Code) (bool, error)
}
