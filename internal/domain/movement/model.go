// Package movement provides the movement type catalog: the vocabulary of
// stock-ledger entry kinds. Six system codes are seeded at deployment and
// shared across tenants; tenants may add their own codes beside them.
package movement

import (
	"context"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
)

// Direction is the ledger direction of a movement type.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Code identifies a movement type within its scope.
type Code string

// System seed codes. Their rows must exist before any reconciliation
// operation runs; absence is a deployment defect.
const (
	CodeInitialStock       Code = "INITIAL_STOCK"
	CodePurchase           Code = "PURCHASE"
	CodeSale               Code = "SALE"
	CodeConsumption        Code = "CONSUMPTION"
	CodeInboundAdjustment  Code = "INBOUND_ADJUSTMENT"
	CodeOutboundAdjustment Code = "OUTBOUND_ADJUSTMENT"
)

// SeedCodes lists every system code with its direction.
var SeedCodes = map[Code]Direction{
	CodeInitialStock:       DirectionInbound,
	CodePurchase:           DirectionInbound,
	CodeSale:               DirectionOutbound,
	CodeConsumption:        DirectionOutbound,
	CodeInboundAdjustment:  DirectionInbound,
	CodeOutboundAdjustment: DirectionOutbound,
}

// IsReserved reports whether the code is a system seed code.
func (c Code) IsReserved() bool {
	_, ok := SeedCodes[c]
	return ok
}

// MovementType is a named, directional kind of stock-ledger entry.
type MovementType struct {
	ID id.ID `db:"id" json:"id"`

	// TenantID is nil for system-wide rows
	TenantID *id.ID `db:"tenant_id" json:"tenantId,omitempty"`

	Code Code   `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// Direction is immutable after creation
	Direction Direction `db:"direction" json:"direction"`

	// IsSystem rows cannot be changed or deleted
	IsSystem bool `db:"is_system" json:"isSystem"`
}

// NewMovementType creates a tenant-defined movement type.
func NewMovementType(tenantID id.ID, code Code, name string, direction Direction) *MovementType {
	return &MovementType{
		ID:        id.New(),
		TenantID:  &tenantID,
		Code:      code,
		Name:      name,
		Direction: direction,
	}
}

// Validate implements entity.Validatable.
func (m *MovementType) Validate(ctx context.Context) error {
	if m.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if m.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !m.Direction.Valid() {
		return apperror.NewValidation("invalid direction").
			WithDetail("field", "direction").
			WithDetail("value", string(m.Direction))
	}
	return nil
}
