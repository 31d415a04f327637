// Package invoice_repo provides the PostgreSQL implementation of the
// invoice repository. Tenant isolation is row-level: every query filters
// by tenant_id.
package invoice_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/invoice"
	"farmbooks/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	linesTable        = "doc_invoice_lines"
	installmentsTable = "doc_invoice_installments"
)

// Compile-time check.
var _ invoice.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[invoice.Invoice](),
	}
}

func (r *InvoiceRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *InvoiceRepo) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(invoicesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// Create inserts a new invoice header.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	data := postgres.StructToMap(inv)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(invoicesTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", invoicesTable, err)
	}

	return nil
}

// GetByID retrieves an invoice header.
func (r *InvoiceRepo) GetByID(ctx context.Context, tenantID, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.getOne(ctx, r.baseSelect(tenantID).Where(squirrel.Eq{"id": invoiceID}), invoiceID.String())
}

// GetByNumber retrieves an invoice header by its tenant-unique number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*invoice.Invoice, error) {
	return r.getOne(ctx, r.baseSelect(tenantID).Where(squirrel.Eq{"number": number}), number)
}

// GetForUpdate retrieves the header with a row lock. Fulfillment
// reconciliation serializes per invoice through it.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, tenantID, invoiceID id.ID) (*invoice.Invoice, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": invoiceID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, invoiceID.String())
}

func (r *InvoiceRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*invoice.Invoice, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoice.Invoice
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", key)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	return &inv, nil
}

// Update updates the header with optimistic locking.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	data := postgres.StructToMap(inv)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "tenant_id", "created_at", "created_by", "version", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Update(invoicesTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": inv.ID}).
		Where(squirrel.Eq{"tenant_id": inv.TenantID}).
		Where(squirrel.Eq{"version": inv.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", invoicesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("invoice", inv.ID.String())
	}

	return nil
}

// Delete removes the invoice with its lines and installments (FK cascade).
func (r *InvoiceRepo) Delete(ctx context.Context, tenantID, invoiceID id.ID) error {
	sql, args, err := r.builder().
		Delete(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", invoicesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}

	return nil
}

// GetLines retrieves line items ordered by line number.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	sql, args, err := r.builder().
		Select(postgres.ExtractDBColumns[invoice.LineItem]()...).
		From(linesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.LineItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the invoice's line items (delete existing + insert new).
func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.LineItem) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+linesTable+" WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder().
		Insert(linesTable).
		Columns(
			"id", "invoice_id", "line_no", "catalog_item_id",
			"quantity", "unit", "unit_price", "feeds_ledger",
			"cost_center_id", "management_account_id", "season_id",
		)

	for _, line := range lines {
		q = q.Values(
			line.ID, invoiceID, line.LineNo, line.CatalogItemID,
			line.Quantity, line.Unit, line.UnitPrice, line.FeedsLedger,
			line.CostCenterID, line.ManagementAccountID, line.SeasonID,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// GetInstallments retrieves installments ordered by due date.
func (r *InvoiceRepo) GetInstallments(ctx context.Context, invoiceID id.ID) ([]invoice.Installment, error) {
	sql, args, err := r.builder().
		Select(postgres.ExtractDBColumns[invoice.Installment]()...).
		From(installmentsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("due_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var installments []invoice.Installment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &installments, sql, args...); err != nil {
		return nil, fmt.Errorf("get installments: %w", err)
	}

	return installments, nil
}

// SaveInstallments replaces the invoice's installments.
func (r *InvoiceRepo) SaveInstallments(ctx context.Context, invoiceID id.ID, installments []invoice.Installment) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+installmentsTable+" WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete existing installments: %w", err)
	}

	if len(installments) == 0 {
		return nil
	}

	q := r.builder().
		Insert(installmentsTable).
		Columns("id", "invoice_id", "due_date", "amount", "paid_at")

	for _, inst := range installments {
		q = q.Values(inst.ID, invoiceID, inst.DueDate, inst.Amount, inst.PaidAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert installments: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert installments: %w", err)
	}

	return nil
}

// UpdateInstallmentPaidAt sets or clears the settlement timestamp.
func (r *InvoiceRepo) UpdateInstallmentPaidAt(ctx context.Context, invoiceID, installmentID id.ID, paidAt *time.Time) error {
	sql, args, err := r.builder().
		Update(installmentsTable).
		Set("paid_at", paidAt).
		Where(squirrel.Eq{"id": installmentID}).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("installment", installmentID.String())
	}

	return nil
}

// ExistsByNumber checks number uniqueness within the tenant.
func (r *InvoiceRepo) ExistsByNumber(ctx context.Context, tenantID id.ID, number string) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(invoicesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"number": number}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check number: %w", err)
	}

	return true, nil
}

// List retrieves invoice headers with filtering and pagination.
func (r *InvoiceRepo) List(ctx context.Context, tenantID id.ID, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect(tenantID)

	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count invoices: %w", err)
	}

	orderBy := "issue_date DESC, number DESC"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list invoices: %w", err)
	}

	return result, nil
}
