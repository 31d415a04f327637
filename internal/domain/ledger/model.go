// Package ledger provides the stock ledger: an append-only trail of
// quantity changes. Entries are created by fulfillment reconciliation and
// by opening-stock seeding; nothing in the system updates or deletes them.
package ledger

import (
	"context"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
)

// Entry is one quantity-change record.
type Entry struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	MovementDate   time.Time `db:"movement_date" json:"movementDate"`
	MovementTypeID id.ID     `db:"movement_type_id" json:"movementTypeId"`

	CatalogItemID id.ID          `db:"catalog_item_id" json:"catalogItemId"`
	Unit          string         `db:"unit" json:"unit"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`

	// Optional accounting dimensions
	CostCenterID        *id.ID `db:"cost_center_id" json:"costCenterId,omitempty"`
	ManagementAccountID *id.ID `db:"management_account_id" json:"managementAccountId,omitempty"`
	SeasonID            *id.ID `db:"season_id" json:"seasonId,omitempty"`
	WorkLocationID      *id.ID `db:"work_location_id" json:"workLocationId,omitempty"`

	// Recorder references the document that produced the entry.
	// Informational only: the ledger never follows it back.
	RecorderType string `db:"recorder_type" json:"recorderType,omitempty"`
	RecorderID   *id.ID `db:"recorder_id" json:"recorderId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates a ledger entry with generated ID and timestamp.
func NewEntry(tenantID id.ID, movementDate time.Time, movementTypeID, catalogItemID id.ID, unit string, quantity types.Quantity) Entry {
	return Entry{
		ID:             id.New(),
		TenantID:       tenantID,
		MovementDate:   movementDate,
		MovementTypeID: movementTypeID,
		CatalogItemID:  catalogItemID,
		Unit:           unit,
		Quantity:       quantity,
		CreatedAt:      time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (e *Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if id.IsNil(e.MovementTypeID) {
		return apperror.NewValidation("movement type is required").
			WithDetail("field", "movementTypeId")
	}
	if id.IsNil(e.CatalogItemID) {
		return apperror.NewValidation("catalog item is required").
			WithDetail("field", "catalogItemId")
	}
	if e.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	if !e.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if e.MovementDate.IsZero() {
		return apperror.NewValidation("movement date is required").
			WithDetail("field", "movementDate")
	}
	return nil
}
