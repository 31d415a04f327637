package dto

import (
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/fulfillment"
)

// --- Request DTOs ---

// CreateFulfillmentEventRequest records goods received or shipped against
// an invoice. EventDate uses the YYYY-MM-DD wire format.
type CreateFulfillmentEventRequest struct {
	InvoiceID string                       `json:"invoiceId" binding:"required"`
	EventDate string                       `json:"eventDate" binding:"required"`
	Notes     string                       `json:"notes,omitempty"`
	Lines     []FulfillmentEventLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// FulfillmentEventLineRequest represents one fulfilled line item.
type FulfillmentEventLineRequest struct {
	LineItemID string         `json:"lineItemId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
}

// ToInput converts the request to a service input.
func (r *CreateFulfillmentEventRequest) ToInput() (fulfillment.CreateEventInput, error) {
	invoiceID, err := id.Parse(r.InvoiceID)
	if err != nil {
		return fulfillment.CreateEventInput{}, apperror.NewValidation("invalid invoice id").
			WithDetail("field", "invoiceId")
	}

	input := fulfillment.CreateEventInput{
		InvoiceID: invoiceID,
		EventDate: r.EventDate,
		Notes:     r.Notes,
		Lines:     make([]fulfillment.LineInput, 0, len(r.Lines)),
	}

	for _, line := range r.Lines {
		lineItemID, err := id.Parse(line.LineItemID)
		if err != nil {
			return fulfillment.CreateEventInput{}, apperror.NewValidation("invalid line item id").
				WithDetail("field", "lineItemId").
				WithDetail("value", line.LineItemID)
		}
		input.Lines = append(input.Lines, fulfillment.LineInput{
			LineItemID: lineItemID,
			Quantity:   line.Quantity,
		})
	}

	return input, nil
}

// --- Response DTOs ---

// FulfillmentEventResponse represents a fulfillment event in API responses.
type FulfillmentEventResponse struct {
	ID        string                         `json:"id"`
	InvoiceID string                         `json:"invoiceId"`
	Kind      string                         `json:"kind"`
	EventDate string                         `json:"eventDate"`
	Notes     string                         `json:"notes,omitempty"`
	Lines     []FulfillmentEventLineResponse `json:"lines"`
	CreatedAt time.Time                      `json:"createdAt"`
}

// FulfillmentEventLineResponse represents a fulfilled line in API responses.
type FulfillmentEventLineResponse struct {
	ID         string         `json:"id"`
	LineItemID string         `json:"lineItemId"`
	Quantity   types.Quantity `json:"quantity"`
}

// FromFulfillmentEvent converts domain entity to response DTO.
func FromFulfillmentEvent(event *fulfillment.Event) FulfillmentEventResponse {
	resp := FulfillmentEventResponse{
		ID:        event.ID.String(),
		InvoiceID: event.InvoiceID.String(),
		Kind:      string(event.Kind),
		EventDate: event.EventDate.Format("2006-01-02"),
		Notes:     event.Notes,
		Lines:     make([]FulfillmentEventLineResponse, 0, len(event.Lines)),
		CreatedAt: event.CreatedAt,
	}

	for _, line := range event.Lines {
		resp.Lines = append(resp.Lines, FulfillmentEventLineResponse{
			ID:         line.ID.String(),
			LineItemID: line.InvoiceLineItemID.String(),
			Quantity:   line.Quantity,
		})
	}

	return resp
}

// FromFulfillmentEventList converts a list of events to response DTOs.
func FromFulfillmentEventList(events []*fulfillment.Event) []FulfillmentEventResponse {
	out := make([]FulfillmentEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, FromFulfillmentEvent(event))
	}
	return out
}

// LineFulfillmentResponse reports the fulfilled total for one invoice line.
type LineFulfillmentResponse struct {
	LineItemID string         `json:"lineItemId"`
	Fulfilled  types.Quantity `json:"fulfilled"`
}

// FromFulfilledTotals converts a per-line totals map to response DTOs.
func FromFulfilledTotals(totals map[id.ID]types.Quantity) []LineFulfillmentResponse {
	out := make([]LineFulfillmentResponse, 0, len(totals))
	for lineItemID, qty := range totals {
		out = append(out, LineFulfillmentResponse{
			LineItemID: lineItemID.String(),
			Fulfilled:  qty,
		})
	}
	return out
}
