// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository. The table is append-only; no UPDATE or DELETE exists
// here at all.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/ledger"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/infrastructure/storage/postgres"
)

const (
	entriesTable       = "reg_stock_ledger"
	movementTypesTable = "cat_movement_types"
)

var entryColumns = []string{
	"id", "tenant_id", "movement_date", "movement_type_id",
	"catalog_item_id", "unit", "quantity",
	"cost_center_id", "management_account_id", "season_id", "work_location_id",
	"recorder_type", "recorder_id", "created_at",
}

// Compile-time check.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

// NewLedgerRepo creates a new stock ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
	}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateEntries appends entries via the COPY protocol. Must run inside a
// transaction so a batch lands atomically.
func (r *LedgerRepo) CreateEntries(ctx context.Context, entries []ledger.Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID, e.TenantID, e.MovementDate, e.MovementTypeID,
			e.CatalogItemID, e.Unit, e.Quantity,
			e.CostCenterID, e.ManagementAccountID, e.SeasonID, e.WorkLocationID,
			e.RecorderType, e.RecorderID, e.CreatedAt,
		})
	}

	n, err := r.inserter.CopyFromSlice(ctx, entriesTable, entryColumns, rows)
	if err != nil {
		return fmt.Errorf("copy entries: %w", err)
	}
	if n != int64(len(entries)) {
		return fmt.Errorf("copy entries: inserted %d of %d rows", n, len(entries))
	}

	return nil
}

// List retrieves entries with filtering and pagination, newest first.
func (r *LedgerRepo) List(ctx context.Context, tenantID id.ID, filter ledger.ListFilter) (domain.ListResult[ledger.Entry], error) {
	result := domain.ListResult[ledger.Entry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.CatalogItemID != nil {
		q = q.Where(squirrel.Eq{"catalog_item_id": *filter.CatalogItemID})
	}
	if filter.MovementTypeID != nil {
		q = q.Where(squirrel.Eq{"movement_type_id": *filter.MovementTypeID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"movement_date": *filter.DateTo})
	}

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count entries: %w", err)
	}

	q = q.OrderBy("movement_date DESC, created_at DESC")
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
		return result, fmt.Errorf("list entries: %w", err)
	}

	return result, nil
}

// SumByItemAndDirection totals an item's quantity per ledger direction by
// joining entries with their movement type.
func (r *LedgerRepo) SumByItemAndDirection(ctx context.Context, tenantID, catalogItemID id.ID) (types.Quantity, types.Quantity, error) {
	sql := `
		SELECT
			COALESCE(SUM(CASE WHEN mt.direction = $3 THEN e.quantity ELSE 0 END), 0) AS inbound,
			COALESCE(SUM(CASE WHEN mt.direction = $4 THEN e.quantity ELSE 0 END), 0) AS outbound
		FROM ` + entriesTable + ` e
		JOIN ` + movementTypesTable + ` mt ON mt.id = e.movement_type_id
		WHERE e.tenant_id = $1 AND e.catalog_item_id = $2
	`

	var inbound, outbound types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql,
		tenantID, catalogItemID,
		movement.DirectionInbound, movement.DirectionOutbound,
	).Scan(&inbound, &outbound)
	if err != nil {
		return types.ZeroQuantity(), types.ZeroQuantity(), fmt.Errorf("sum entries: %w", err)
	}

	return inbound, outbound, nil
}
