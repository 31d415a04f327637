package ledger

import (
	"context"
	"time"

	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
)

// Repository defines persistence operations for the stock ledger.
// Insert-only by design: no update or delete exists at any layer.
type Repository interface {
	// CreateEntries batch inserts entries (COPY inside a transaction).
	CreateEntries(ctx context.Context, entries []Entry) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[Entry], error)

	// SumByItemAndDirection returns total inbound and outbound quantity for
	// an item, joining entries with their movement type direction.
	SumByItemAndDirection(ctx context.Context, tenantID, catalogItemID id.ID) (inbound, outbound types.Quantity, err error)
}

// ListFilter for filtering ledger entries.
type ListFilter struct {
	domain.ListFilter

	CatalogItemID  *id.ID
	MovementTypeID *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
}
