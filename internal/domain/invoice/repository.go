package invoice

import (
	"context"
	"time"

	"farmbooks/internal/core/id"
	"farmbooks/internal/domain"
)

// Repository defines persistence operations for invoices.
// All reads and writes are scoped by tenant.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, tenantID, invoiceID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, tenantID, invoiceID id.ID) error

	// GetForUpdate retrieves the header with a row lock. The reconciliation
	// coordinator serializes concurrent fulfillments per invoice through it.
	GetForUpdate(ctx context.Context, tenantID, invoiceID id.ID) (*Invoice, error)

	// Line and installment table parts. SaveLines/SaveInstallments implement
	// replace-all semantics: delete existing children, insert the new set.
	GetLines(ctx context.Context, invoiceID id.ID) ([]LineItem, error)
	SaveLines(ctx context.Context, invoiceID id.ID, lines []LineItem) error
	GetInstallments(ctx context.Context, invoiceID id.ID) ([]Installment, error)
	SaveInstallments(ctx context.Context, invoiceID id.ID, installments []Installment) error
	UpdateInstallmentPaidAt(ctx context.Context, invoiceID, installmentID id.ID, paidAt *time.Time) error

	ExistsByNumber(ctx context.Context, tenantID id.ID, number string) (bool, error)
	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	Direction      *Direction
	CounterpartyID *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
}
