// Package fulfillment_repo provides the PostgreSQL implementation of the
// fulfillment event repository.
package fulfillment_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/fulfillment"
	"farmbooks/internal/infrastructure/storage/postgres"
)

const (
	eventsTable = "doc_fulfillment_events"
	linesTable  = "doc_fulfillment_event_lines"
)

// Compile-time check.
var _ fulfillment.Repository = (*FulfillmentRepo)(nil)

// FulfillmentRepo implements fulfillment.Repository.
type FulfillmentRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewFulfillmentRepo creates a new fulfillment event repository.
func NewFulfillmentRepo(txManager *postgres.TxManager) *FulfillmentRepo {
	return &FulfillmentRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[fulfillment.Event](),
	}
}

func (r *FulfillmentRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create persists the event header together with its lines.
func (r *FulfillmentRepo) Create(ctx context.Context, event *fulfillment.Event) error {
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.builder().
		Insert(eventsTable).
		Columns("id", "tenant_id", "invoice_id", "kind", "event_date", "notes", "created_at").
		Values(event.ID, event.TenantID, event.InvoiceID, event.Kind, event.EventDate, event.Notes, event.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert event: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", eventsTable, err)
	}

	q := r.builder().
		Insert(linesTable).
		Columns("id", "event_id", "invoice_line_item_id", "quantity")
	for _, line := range event.Lines {
		q = q.Values(line.ID, event.ID, line.InvoiceLineItemID, line.Quantity)
	}

	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", linesTable, err)
	}

	return nil
}

// GetByID loads an event with its lines.
func (r *FulfillmentRepo) GetByID(ctx context.Context, tenantID, eventID id.ID) (*fulfillment.Event, error) {
	sql, args, err := r.builder().
		Select(r.selectCols...).
		From(eventsTable).
		Where(squirrel.Eq{"id": eventID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)

	var event fulfillment.Event
	if err := pgxscan.Get(ctx, querier, &event, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("fulfillment event", eventID.String())
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := r.loadLines(ctx, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *FulfillmentRepo) loadLines(ctx context.Context, event *fulfillment.Event) error {
	sql, args, err := r.builder().
		Select(postgres.ExtractDBColumns[fulfillment.Line]()...).
		From(linesTable).
		Where(squirrel.Eq{"event_id": event.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &event.Lines, sql, args...); err != nil {
		return fmt.Errorf("get event lines: %w", err)
	}

	return nil
}

// Delete removes an event and its lines (FK cascade).
func (r *FulfillmentRepo) Delete(ctx context.Context, tenantID, eventID id.ID) error {
	sql, args, err := r.builder().
		Delete(eventsTable).
		Where(squirrel.Eq{"id": eventID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", eventsTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("fulfillment event", eventID.String())
	}

	return nil
}

// List retrieves events matching the filter, lines included.
func (r *FulfillmentRepo) List(ctx context.Context, tenantID id.ID, filter fulfillment.ListFilter) (*domain.ListResult[*fulfillment.Event], error) {
	result := &domain.ListResult[*fulfillment.Event]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(r.selectCols...).
		From(eventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.InvoiceID != nil {
		q = q.Where(squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count events: %w", err)
	}

	q = q.OrderBy("event_date DESC, created_at DESC")
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
		return result, fmt.Errorf("list events: %w", err)
	}

	for _, event := range result.Items {
		if err := r.loadLines(ctx, event); err != nil {
			return result, err
		}
	}

	return result, nil
}

// SumFulfilledByLineItem aggregates fulfilled quantity per invoice line item
// across all of the invoice's events.
func (r *FulfillmentRepo) SumFulfilledByLineItem(ctx context.Context, tenantID, invoiceID id.ID) (map[id.ID]types.Quantity, error) {
	sql := `
		SELECT l.invoice_line_item_id, SUM(l.quantity)
		FROM ` + linesTable + ` l
		JOIN ` + eventsTable + ` e ON e.id = l.event_id
		WHERE e.tenant_id = $1 AND e.invoice_id = $2
		GROUP BY l.invoice_line_item_id
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("sum fulfilled: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var lineItemID id.ID
		var total types.Quantity
		if err := rows.Scan(&lineItemID, &total); err != nil {
			return nil, fmt.Errorf("scan fulfilled total: %w", err)
		}
		totals[lineItemID] = total
	}

	return totals, rows.Err()
}

// HasEvents reports whether any event references the invoice. Satisfies
// invoice.FulfillmentGuard.
func (r *FulfillmentRepo) HasEvents(ctx context.Context, tenantID, invoiceID id.ID) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(eventsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
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
		return false, fmt.Errorf("check events: %w", err)
	}

	return true, nil
}
