// Package refs_repo implements the reference-data lookups against the
// ref_* tables. The rest of the farm backend owns those tables; this module
// only reads them.
package refs_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain/refs"
	"farmbooks/internal/infrastructure/storage/postgres"
)

const itemsTable = "ref_items"

// dimensionTables maps each accounting dimension to its table.
var dimensionTables = map[refs.Dimension]string{
	refs.DimensionCostCenter:        "ref_cost_centers",
	refs.DimensionManagementAccount: "ref_management_accounts",
	refs.DimensionSeason:            "ref_seasons",
	refs.DimensionWorkLocation:      "ref_work_locations",
}

// Compile-time checks.
var (
	_ refs.ItemLookup      = (*RefsRepo)(nil)
	_ refs.DimensionLookup = (*RefsRepo)(nil)
)

// RefsRepo implements refs.ItemLookup and refs.DimensionLookup.
type RefsRepo struct {
	txManager *postgres.TxManager
}

// NewRefsRepo creates a new reference-data repository.
func NewRefsRepo(txManager *postgres.TxManager) *RefsRepo {
	return &RefsRepo{txManager: txManager}
}

func (r *RefsRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetItem returns the catalog item or NotFound.
func (r *RefsRepo) GetItem(ctx context.Context, tenantID, itemID id.ID) (*refs.Item, error) {
	sql, args, err := r.builder().
		Select("id", "name", "unit", "active").
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item refs.Item
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("catalog item", itemID.String())
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &item, nil
}

// Exists checks existence of an accounting dimension reference.
func (r *RefsRepo) Exists(ctx context.Context, tenantID id.ID, dim refs.Dimension, refID id.ID) (bool, error) {
	table, ok := dimensionTables[dim]
	if !ok {
		return false, fmt.Errorf("unknown dimension %q", dim)
	}

	sql, args, err := r.builder().
		Select("1").
		From(table).
		Where(squirrel.Eq{"id": refID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
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
		return false, fmt.Errorf("check %s: %w", table, err)
	}

	return true, nil
}
