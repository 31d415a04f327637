package fulfillment

import (
	"context"

	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
)

// ListFilter narrows event listing.
type ListFilter struct {
	domain.ListFilter
	InvoiceID *id.ID
	Kind      *Kind
}

// Repository is the persistence port for fulfillment events.
type Repository interface {
	// Create persists an event header together with its lines.
	Create(ctx context.Context, event *Event) error

	// GetByID loads an event with its lines.
	GetByID(ctx context.Context, tenantID, eventID id.ID) (*Event, error)

	// Delete removes an event and its lines.
	Delete(ctx context.Context, tenantID, eventID id.ID) error

	// List returns events matching the filter, lines included.
	List(ctx context.Context, tenantID id.ID, filter ListFilter) (*domain.ListResult[*Event], error)

	// SumFulfilledByLineItem returns the total already-fulfilled quantity
	// per line item across all events of the invoice.
	SumFulfilledByLineItem(ctx context.Context, tenantID, invoiceID id.ID) (map[id.ID]types.Quantity, error)

	// HasEvents reports whether any fulfillment event references the
	// invoice. Satisfies invoice.FulfillmentGuard.
	HasEvents(ctx context.Context, tenantID, invoiceID id.ID) (bool, error)
}
