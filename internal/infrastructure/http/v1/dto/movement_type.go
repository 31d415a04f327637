package dto

import (
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain/movement"
)

// --- Request DTOs ---

// CreateMovementTypeRequest adds a tenant-defined movement type.
type CreateMovementTypeRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateMovementTypeRequest) ToEntity(tenantID id.ID) *movement.MovementType {
	return movement.NewMovementType(tenantID, movement.Code(r.Code), r.Name, movement.Direction(r.Direction))
}

// UpdateMovementTypeRequest renames a tenant-defined movement type.
// Code and direction are immutable after creation.
type UpdateMovementTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- Response DTOs ---

// MovementTypeResponse represents a movement type in API responses.
type MovementTypeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
	IsSystem  bool   `json:"isSystem"`
}

// FromMovementType converts domain entity to response DTO.
func FromMovementType(mt *movement.MovementType) MovementTypeResponse {
	return MovementTypeResponse{
		ID:        mt.ID.String(),
		Code:      string(mt.Code),
		Name:      mt.Name,
		Direction: string(mt.Direction),
		IsSystem:  mt.IsSystem,
	}
}

// FromMovementTypeList converts a list of movement types to response DTOs.
func FromMovementTypeList(list []movement.MovementType) []MovementTypeResponse {
	out := make([]MovementTypeResponse, 0, len(list))
	for i := range list {
		out = append(out, FromMovementType(&list[i]))
	}
	return out
}
