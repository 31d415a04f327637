// Package fulfillment tracks partial physical fulfillment of invoice line
// items: goods receipts against purchase invoices and shipments against
// sale invoices. The reconciliation coordinator lives here too.
package fulfillment

import (
	"context"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/invoice"
	"farmbooks/internal/domain/movement"
)

// Kind distinguishes the two fulfillment specializations.
type Kind string

const (
	KindReceipt  Kind = "receipt"
	KindShipment Kind = "shipment"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindReceipt || k == KindShipment
}

// InvoiceDirection returns the invoice direction this kind fulfills.
func (k Kind) InvoiceDirection() invoice.Direction {
	if k == KindReceipt {
		return invoice.DirectionPurchase
	}
	return invoice.DirectionSale
}

// ForwardCode returns the movement type emitted when an event is created.
func (k Kind) ForwardCode() movement.Code {
	if k == KindReceipt {
		return movement.CodePurchase
	}
	return movement.CodeSale
}

// ReverseCode returns the compensating movement type emitted when an event
// is deleted: the opposite ledger direction of the forward code.
func (k Kind) ReverseCode() movement.Code {
	if k == KindReceipt {
		return movement.CodeOutboundAdjustment
	}
	return movement.CodeInboundAdjustment
}

// Event is one recorded instance of physically receiving or shipping goods
// against an invoice. Events are created and deleted, never updated.
type Event struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	Kind      Kind  `db:"kind" json:"kind"`

	EventDate time.Time `db:"event_date" json:"eventDate"`
	Notes     string    `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is the quantity fulfilled for one invoice line item within one event.
type Line struct {
	ID      id.ID `db:"id" json:"id"`
	EventID id.ID `db:"event_id" json:"eventId"`

	InvoiceLineItemID id.ID          `db:"invoice_line_item_id" json:"invoiceLineItemId"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`
}

// NewEvent creates a fulfillment event header.
func NewEvent(tenantID, invoiceID id.ID, kind Kind, eventDate time.Time, notes string) *Event {
	return &Event{
		ID:        id.New(),
		TenantID:  tenantID,
		InvoiceID: invoiceID,
		Kind:      kind,
		EventDate: eventDate,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
		Lines:     make([]Line, 0),
	}
}

// AddLine appends a fulfillment line.
func (e *Event) AddLine(lineItemID id.ID, quantity types.Quantity) {
	e.Lines = append(e.Lines, Line{
		ID:                id.New(),
		EventID:           e.ID,
		InvoiceLineItemID: lineItemID,
		Quantity:          quantity,
	})
}

// TotalQuantity sums fulfilled quantity across all lines.
func (e *Event) TotalQuantity() types.Quantity {
	total := types.ZeroQuantity()
	for _, l := range e.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// Validate implements entity.Validatable.
func (e *Event) Validate(ctx context.Context) error {
	if id.IsNil(e.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if id.IsNil(e.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoiceId")
	}
	if !e.Kind.Valid() {
		return apperror.NewValidation("invalid fulfillment kind").
			WithDetail("field", "kind").
			WithDetail("value", string(e.Kind))
	}
	if e.EventDate.IsZero() {
		return apperror.NewValidation("event date is required").
			WithDetail("field", "eventDate")
	}
	if len(e.Lines) == 0 {
		return apperror.NewValidation("at least one line with positive quantity is required").
			WithDetail("field", "lines")
	}
	for i, line := range e.Lines {
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
