package dto

import (
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/invoice"
)

// --- Request DTOs ---

// CreateInvoiceRequest represents a request to create an invoice.
type CreateInvoiceRequest struct {
	Number         string                      `json:"number" binding:"required"`
	IssueDate      time.Time                   `json:"issueDate" binding:"required"`
	Direction      string                      `json:"direction" binding:"required"`
	CounterpartyID string                      `json:"counterpartyId" binding:"required"`
	Notes          string                      `json:"notes,omitempty"`
	Lines          []InvoiceLineRequest        `json:"lines" binding:"required,min=1,dive"`
	Installments   []InvoiceInstallmentRequest `json:"installments,omitempty"`
}

// InvoiceLineRequest represents a line item in create/update requests.
type InvoiceLineRequest struct {
	CatalogItemID       string         `json:"catalogItemId" binding:"required"`
	Quantity            types.Quantity `json:"quantity" binding:"required"`
	Unit                string         `json:"unit" binding:"required"`
	UnitPrice           types.Money    `json:"unitPrice"`
	FeedsLedger         bool           `json:"feedsLedger"`
	CostCenterID        *string        `json:"costCenterId,omitempty"`
	ManagementAccountID *string        `json:"managementAccountId,omitempty"`
	SeasonID            *string        `json:"seasonId,omitempty"`
}

// InvoiceInstallmentRequest represents an installment in create/update requests.
type InvoiceInstallmentRequest struct {
	DueDate time.Time   `json:"dueDate" binding:"required"`
	Amount  types.Money `json:"amount" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateInvoiceRequest) ToEntity(tenantID id.ID) (*invoice.Invoice, error) {
	counterpartyID, err := id.Parse(r.CounterpartyID)
	if err != nil {
		return nil, apperror.NewValidation("invalid counterparty id").
			WithDetail("field", "counterpartyId")
	}

	inv := invoice.NewInvoice(tenantID, r.Number, r.IssueDate, invoice.Direction(r.Direction), counterpartyID)
	inv.Notes = r.Notes

	if err := applyLines(inv, r.Lines); err != nil {
		return nil, err
	}
	for _, inst := range r.Installments {
		inv.AddInstallment(invoice.Installment{
			DueDate: inst.DueDate,
			Amount:  inst.Amount,
		})
	}

	return inv, nil
}

// UpdateInvoiceRequest represents a request to update an invoice.
// Omitted fields keep their stored values; lines and installments, when
// present, replace the stored sets wholesale.
type UpdateInvoiceRequest struct {
	Number         *string                     `json:"number,omitempty"`
	IssueDate      *time.Time                  `json:"issueDate,omitempty"`
	CounterpartyID *string                     `json:"counterpartyId,omitempty"`
	Notes          *string                     `json:"notes,omitempty"`
	Lines          []InvoiceLineRequest        `json:"lines,omitempty"`
	Installments   []InvoiceInstallmentRequest `json:"installments,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateInvoiceRequest) ApplyTo(inv *invoice.Invoice) error {
	if r.Number != nil {
		inv.Number = *r.Number
	}
	if r.IssueDate != nil {
		inv.IssueDate = *r.IssueDate
	}
	if r.CounterpartyID != nil {
		counterpartyID, err := id.Parse(*r.CounterpartyID)
		if err != nil {
			return apperror.NewValidation("invalid counterparty id").
				WithDetail("field", "counterpartyId")
		}
		inv.CounterpartyID = counterpartyID
	}
	if r.Notes != nil {
		inv.Notes = *r.Notes
	}

	if r.Lines != nil {
		inv.Lines = make([]invoice.LineItem, 0, len(r.Lines))
		if err := applyLines(inv, r.Lines); err != nil {
			return err
		}
	}
	if r.Installments != nil {
		inv.Installments = make([]invoice.Installment, 0, len(r.Installments))
		for _, inst := range r.Installments {
			inv.AddInstallment(invoice.Installment{
				DueDate: inst.DueDate,
				Amount:  inst.Amount,
			})
		}
	}

	return nil
}

func applyLines(inv *invoice.Invoice, lines []InvoiceLineRequest) error {
	for _, line := range lines {
		catalogItemID, err := id.Parse(line.CatalogItemID)
		if err != nil {
			return apperror.NewValidation("invalid catalog item id").
				WithDetail("field", "catalogItemId")
		}
		costCenterID, err := parseOptionalID(line.CostCenterID)
		if err != nil {
			return apperror.NewValidation("invalid cost center id").
				WithDetail("field", "costCenterId")
		}
		accountID, err := parseOptionalID(line.ManagementAccountID)
		if err != nil {
			return apperror.NewValidation("invalid management account id").
				WithDetail("field", "managementAccountId")
		}
		seasonID, err := parseOptionalID(line.SeasonID)
		if err != nil {
			return apperror.NewValidation("invalid season id").
				WithDetail("field", "seasonId")
		}

		inv.AddLine(invoice.LineItem{
			CatalogItemID:       catalogItemID,
			Quantity:            line.Quantity,
			Unit:                line.Unit,
			UnitPrice:           line.UnitPrice,
			FeedsLedger:         line.FeedsLedger,
			CostCenterID:        costCenterID,
			ManagementAccountID: accountID,
			SeasonID:            seasonID,
		})
	}
	return nil
}

// PayInstallmentRequest marks an installment as paid.
type PayInstallmentRequest struct {
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

// --- Response DTOs ---

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID             string                       `json:"id"`
	Number         string                       `json:"number"`
	IssueDate      time.Time                    `json:"issueDate"`
	Direction      string                       `json:"direction"`
	CounterpartyID string                       `json:"counterpartyId"`
	Notes          string                       `json:"notes,omitempty"`
	Version        int                          `json:"version"`
	Lines          []InvoiceLineResponse        `json:"lines"`
	Installments   []InvoiceInstallmentResponse `json:"installments"`
	CreatedAt      time.Time                    `json:"createdAt"`
	UpdatedAt      time.Time                    `json:"updatedAt"`
}

// InvoiceLineResponse represents a line item in API responses.
type InvoiceLineResponse struct {
	ID                  string         `json:"id"`
	LineNo              int            `json:"lineNo"`
	CatalogItemID       string         `json:"catalogItemId"`
	Quantity            types.Quantity `json:"quantity"`
	Unit                string         `json:"unit"`
	UnitPrice           types.Money    `json:"unitPrice"`
	FeedsLedger         bool           `json:"feedsLedger"`
	CostCenterID        *string        `json:"costCenterId,omitempty"`
	ManagementAccountID *string        `json:"managementAccountId,omitempty"`
	SeasonID            *string        `json:"seasonId,omitempty"`
}

// InvoiceInstallmentResponse represents an installment in API responses.
// Status is derived from paidAt and the due date at read time.
type InvoiceInstallmentResponse struct {
	ID      string      `json:"id"`
	DueDate time.Time   `json:"dueDate"`
	Amount  types.Money `json:"amount"`
	PaidAt  *time.Time  `json:"paidAt,omitempty"`
	Status  string      `json:"status"`
}

// FromInvoice converts domain entity to response DTO.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		Number:         inv.Number,
		IssueDate:      inv.IssueDate,
		Direction:      string(inv.Direction),
		CounterpartyID: inv.CounterpartyID.String(),
		Notes:          inv.Notes,
		Version:        inv.Version,
		Lines:          make([]InvoiceLineResponse, 0, len(inv.Lines)),
		Installments:   make([]InvoiceInstallmentResponse, 0, len(inv.Installments)),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}

	for _, line := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			ID:                  line.ID.String(),
			LineNo:              line.LineNo,
			CatalogItemID:       line.CatalogItemID.String(),
			Quantity:            line.Quantity,
			Unit:                line.Unit,
			UnitPrice:           line.UnitPrice,
			FeedsLedger:         line.FeedsLedger,
			CostCenterID:        idPtrToString(line.CostCenterID),
			ManagementAccountID: idPtrToString(line.ManagementAccountID),
			SeasonID:            idPtrToString(line.SeasonID),
		})
	}

	for _, inst := range inv.Installments {
		resp.Installments = append(resp.Installments, FromInstallment(&inst))
	}

	return resp
}

// FromInstallment converts an installment to response DTO.
func FromInstallment(inst *invoice.Installment) InvoiceInstallmentResponse {
	return InvoiceInstallmentResponse{
		ID:      inst.ID.String(),
		DueDate: inst.DueDate,
		Amount:  inst.Amount,
		PaidAt:  inst.PaidAt,
		Status:  string(inst.Status),
	}
}

// FromInvoiceList converts a list of invoices to response DTOs.
func FromInvoiceList(invoices []*invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv))
	}
	return out
}
