package dto

import (
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/ledger"
)

// --- Request DTOs ---

// RecordInitialStockRequest seeds an opening balance for one catalog item.
type RecordInitialStockRequest struct {
	CatalogItemID  string         `json:"catalogItemId" binding:"required"`
	Quantity       types.Quantity `json:"quantity" binding:"required"`
	MovementDate   *time.Time     `json:"movementDate,omitempty"`
	WorkLocationID *string        `json:"workLocationId,omitempty"`
}

// ToInput converts the request to a service input.
func (r *RecordInitialStockRequest) ToInput() (ledger.InitialStockInput, error) {
	catalogItemID, err := parseOptionalID(&r.CatalogItemID)
	if err != nil || catalogItemID == nil {
		return ledger.InitialStockInput{}, apperror.NewValidation("invalid catalog item id").
			WithDetail("field", "catalogItemId")
	}
	workLocationID, err := parseOptionalID(r.WorkLocationID)
	if err != nil {
		return ledger.InitialStockInput{}, apperror.NewValidation("invalid work location id").
			WithDetail("field", "workLocationId")
	}

	input := ledger.InitialStockInput{
		CatalogItemID:  *catalogItemID,
		Quantity:       r.Quantity,
		WorkLocationID: workLocationID,
	}
	if r.MovementDate != nil {
		input.MovementDate = *r.MovementDate
	}
	return input, nil
}

// --- Response DTOs ---

// LedgerEntryResponse represents a stock ledger entry in API responses.
type LedgerEntryResponse struct {
	ID                  string         `json:"id"`
	MovementDate        time.Time      `json:"movementDate"`
	MovementTypeID      string         `json:"movementTypeId"`
	CatalogItemID       string         `json:"catalogItemId"`
	Unit                string         `json:"unit"`
	Quantity            types.Quantity `json:"quantity"`
	CostCenterID        *string        `json:"costCenterId,omitempty"`
	ManagementAccountID *string        `json:"managementAccountId,omitempty"`
	SeasonID            *string        `json:"seasonId,omitempty"`
	WorkLocationID      *string        `json:"workLocationId,omitempty"`
	RecorderType        string         `json:"recorderType,omitempty"`
	RecorderID          *string        `json:"recorderId,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// FromLedgerEntry converts domain entity to response DTO.
func FromLedgerEntry(e *ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                  e.ID.String(),
		MovementDate:        e.MovementDate,
		MovementTypeID:      e.MovementTypeID.String(),
		CatalogItemID:       e.CatalogItemID.String(),
		Unit:                e.Unit,
		Quantity:            e.Quantity,
		CostCenterID:        idPtrToString(e.CostCenterID),
		ManagementAccountID: idPtrToString(e.ManagementAccountID),
		SeasonID:            idPtrToString(e.SeasonID),
		WorkLocationID:      idPtrToString(e.WorkLocationID),
		RecorderType:        e.RecorderType,
		RecorderID:          idPtrToString(e.RecorderID),
		CreatedAt:           e.CreatedAt,
	}
}

// FromLedgerEntryList converts a list of entries to response DTOs.
func FromLedgerEntryList(entries []ledger.Entry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, FromLedgerEntry(&entries[i]))
	}
	return out
}

// ItemBalanceResponse reports the signed stock level of one item.
type ItemBalanceResponse struct {
	CatalogItemID string         `json:"catalogItemId"`
	Inbound       types.Quantity `json:"inbound"`
	Outbound      types.Quantity `json:"outbound"`
	Balance       types.Quantity `json:"balance"`
}

// FromItemBalance converts a balance to response DTO.
func FromItemBalance(b ledger.ItemBalance) ItemBalanceResponse {
	return ItemBalanceResponse{
		CatalogItemID: b.CatalogItemID.String(),
		Inbound:       b.Inbound,
		Outbound:      b.Outbound,
		Balance:       b.Balance,
	}
}
