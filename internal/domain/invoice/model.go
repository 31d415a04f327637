// Package invoice provides the Invoice aggregate: header, line items and
// payment installments. Lines and installments live and die with the header.
package invoice

import (
	"context"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/entity"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
)

// Direction distinguishes purchase invoices (goods flowing in) from
// sale invoices (goods flowing out).
type Direction string

const (
	DirectionPurchase Direction = "purchase"
	DirectionSale     Direction = "sale"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionPurchase || d == DirectionSale
}

// InstallmentStatus is the derived payment state of an installment.
// It is never persisted; only paid_at is stored.
type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "PENDING"
	StatusOverdue InstallmentStatus = "OVERDUE"
	StatusPaid    InstallmentStatus = "PAID"
)

// Invoice is a purchase or sale document header.
type Invoice struct {
	entity.BaseDocument

	// Number is unique per tenant
	Number string `db:"number" json:"number"`

	// IssueDate is the business date of the document
	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	Direction Direction `db:"direction" json:"direction"`

	// CounterpartyID is the supplier (purchase) or customer (sale)
	CounterpartyID id.ID `db:"counterparty_id" json:"counterpartyId"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// Table parts
	Lines        []LineItem    `db:"-" json:"lines"`
	Installments []Installment `db:"-" json:"installments"`
}

// LineItem is one invoiced good or service.
type LineItem struct {
	ID        id.ID `db:"id" json:"id"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`
	LineNo    int   `db:"line_no" json:"lineNo"`

	CatalogItemID id.ID `db:"catalog_item_id" json:"catalogItemId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Unit      string         `db:"unit" json:"unit"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`

	// FeedsLedger marks lines whose physical fulfillment alters tracked stock
	FeedsLedger bool `db:"feeds_ledger" json:"feedsLedger"`

	// Optional accounting dimensions
	CostCenterID        *id.ID `db:"cost_center_id" json:"costCenterId,omitempty"`
	ManagementAccountID *id.ID `db:"management_account_id" json:"managementAccountId,omitempty"`
	SeasonID            *id.ID `db:"season_id" json:"seasonId,omitempty"`
}

// Installment is one scheduled payment belonging to an invoice.
type Installment struct {
	ID        id.ID `db:"id" json:"id"`
	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`

	DueDate time.Time   `db:"due_date" json:"dueDate"`
	Amount  types.Money `db:"amount" json:"amount"`

	// PaidAt set means the installment is settled; status derives from it
	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	// Status is computed via StatusAt on read, never stored
	Status InstallmentStatus `db:"-" json:"status"`
}

// StatusAt derives the installment status from paid-at, due date and now.
// Paid-at set wins; otherwise a past due date means OVERDUE.
func (i *Installment) StatusAt(now time.Time) InstallmentStatus {
	if i.PaidAt != nil {
		return StatusPaid
	}
	if i.DueDate.Before(now) {
		return StatusOverdue
	}
	return StatusPending
}

// MarkPaid settles the installment. A nil paidAt defaults to now.
// PAID is terminal: marking an already paid installment keeps the
// original paid-at.
func (i *Installment) MarkPaid(paidAt *time.Time, now time.Time) {
	if i.PaidAt != nil {
		return
	}
	if paidAt == nil {
		t := now
		i.PaidAt = &t
	} else {
		t := *paidAt
		i.PaidAt = &t
	}
	i.Status = StatusPaid
}

// MarkPending clears paid-at for correction; the status reverts to
// whatever the due date dictates.
func (i *Installment) MarkPending(now time.Time) {
	i.PaidAt = nil
	i.Status = i.StatusAt(now)
}

// NewInvoice creates a new invoice header.
func NewInvoice(tenantID id.ID, number string, issueDate time.Time, direction Direction, counterpartyID id.ID) *Invoice {
	return &Invoice{
		BaseDocument:   entity.NewBaseDocument(tenantID),
		Number:         number,
		IssueDate:      issueDate,
		Direction:      direction,
		CounterpartyID: counterpartyID,
		Lines:          make([]LineItem, 0),
		Installments:   make([]Installment, 0),
	}
}

// AddLine appends a line item with the next line number.
func (inv *Invoice) AddLine(line LineItem) {
	line.ID = id.New()
	line.InvoiceID = inv.ID
	line.LineNo = len(inv.Lines) + 1
	inv.Lines = append(inv.Lines, line)
}

// AddInstallment appends a payment installment.
func (inv *Invoice) AddInstallment(inst Installment) {
	inst.ID = id.New()
	inst.InvoiceID = inv.ID
	inv.Installments = append(inv.Installments, inst)
}

// LineByID returns the line item with the given id, if present.
func (inv *Invoice) LineByID(lineItemID id.ID) (LineItem, bool) {
	for _, l := range inv.Lines {
		if l.ID == lineItemID {
			return l, true
		}
	}
	return LineItem{}, false
}

// InstallmentByID returns the installment with the given id, if present.
func (inv *Invoice) InstallmentByID(instID id.ID) (*Installment, bool) {
	for idx := range inv.Installments {
		if inv.Installments[idx].ID == instID {
			return &inv.Installments[idx], true
		}
	}
	return nil, false
}

// ComputeStatuses refreshes all derived installment statuses.
func (inv *Invoice) ComputeStatuses(now time.Time) {
	for idx := range inv.Installments {
		inv.Installments[idx].Status = inv.Installments[idx].StatusAt(now)
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.BaseEntity.Validate(ctx); err != nil {
		return err
	}

	if inv.Number == "" {
		return apperror.NewValidation("number is required").
			WithDetail("field", "number")
	}

	if inv.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}

	if !inv.Direction.Valid() {
		return apperror.NewValidation("invalid direction").
			WithDetail("field", "direction").
			WithDetail("value", string(inv.Direction))
	}

	if id.IsNil(inv.CounterpartyID) {
		return apperror.NewValidation("counterparty is required").
			WithDetail("field", "counterpartyId")
	}

	for i, line := range inv.Lines {
		if id.IsNil(line.CatalogItemID) {
			return apperror.NewValidation("catalog item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Unit == "" {
			return apperror.NewValidation("unit is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	for i, inst := range inv.Installments {
		if inst.DueDate.IsZero() {
			return apperror.NewValidation("due date is required").
				WithDetail("field", "installments").
				WithDetail("index", i)
		}
		if inst.Amount.IsNegative() {
			return apperror.NewValidation("amount must not be negative").
				WithDetail("field", "installments").
				WithDetail("index", i)
		}
	}

	return nil
}
