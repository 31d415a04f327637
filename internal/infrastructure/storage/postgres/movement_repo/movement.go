// Package movement_repo provides the PostgreSQL implementation of the
// movement type catalog repository. System rows have NULL tenant_id and are
// visible to every tenant; tenant rows shadow nothing, codes are unique per
// scope.
package movement_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/infrastructure/storage/postgres"
)

const movementTypesTable = "cat_movement_types"

// Compile-time check.
var _ movement.Repository = (*MovementTypeRepo)(nil)

// MovementTypeRepo implements movement.Repository.
type MovementTypeRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewMovementTypeRepo creates a new movement type repository.
func NewMovementTypeRepo(txManager *postgres.TxManager) *MovementTypeRepo {
	return &MovementTypeRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[movement.MovementType](),
	}
}

func (r *MovementTypeRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// visibleTo matches system rows plus the tenant's own rows.
func visibleTo(tenantID id.ID) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.Eq{"tenant_id": nil},
		squirrel.Eq{"tenant_id": tenantID},
	}
}

// Create inserts a movement type row.
func (r *MovementTypeRepo) Create(ctx context.Context, mt *movement.MovementType) error {
	sql, args, err := r.builder().
		Insert(movementTypesTable).
		Columns("id", "tenant_id", "code", "name", "direction", "is_system").
		Values(mt.ID, mt.TenantID, mt.Code, mt.Name, mt.Direction, mt.IsSystem).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", movementTypesTable, err)
	}

	return nil
}

// GetByID retrieves a movement type visible to the tenant.
func (r *MovementTypeRepo) GetByID(ctx context.Context, tenantID, typeID id.ID) (*movement.MovementType, error) {
	sql, args, err := r.builder().
		Select(r.selectCols...).
		From(movementTypesTable).
		Where(squirrel.Eq{"id": typeID}).
		Where(visibleTo(tenantID)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mt movement.MovementType
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &mt, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement type", typeID.String())
		}
		return nil, fmt.Errorf("get movement type: %w", err)
	}

	return &mt, nil
}

// GetByCode resolves a code within the tenant scope. When both a tenant row
// and a system row carry the code, the tenant row wins.
func (r *MovementTypeRepo) GetByCode(ctx context.Context, tenantID id.ID, code movement.Code) (*movement.MovementType, error) {
	sql, args, err := r.builder().
		Select(r.selectCols...).
		From(movementTypesTable).
		Where(squirrel.Eq{"code": code}).
		Where(visibleTo(tenantID)).
		OrderBy("tenant_id NULLS LAST").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mt movement.MovementType
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &mt, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement type", string(code))
		}
		return nil, fmt.Errorf("get movement type by code: %w", err)
	}

	return &mt, nil
}

// Update rewrites the mutable columns of a tenant row.
func (r *MovementTypeRepo) Update(ctx context.Context, mt *movement.MovementType) error {
	sql, args, err := r.builder().
		Update(movementTypesTable).
		Set("name", mt.Name).
		Where(squirrel.Eq{"id": mt.ID}).
		Where(squirrel.Eq{"is_system": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", movementTypesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("movement type", mt.ID.String())
	}

	return nil
}

// Delete removes a tenant row. System rows are protected at the service
// layer and excluded here as well.
func (r *MovementTypeRepo) Delete(ctx context.Context, typeID id.ID) error {
	sql, args, err := r.builder().
		Delete(movementTypesTable).
		Where(squirrel.Eq{"id": typeID}).
		Where(squirrel.Eq{"is_system": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", movementTypesTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("movement type", typeID.String())
	}

	return nil
}

// List returns system rows plus the tenant's own rows.
func (r *MovementTypeRepo) List(ctx context.Context, tenantID id.ID) ([]movement.MovementType, error) {
	sql, args, err := r.builder().
		Select(r.selectCols...).
		From(movementTypesTable).
		Where(visibleTo(tenantID)).
		OrderBy("is_system DESC, code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var types []movement.MovementType
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &types, sql, args...); err != nil {
		return nil, fmt.Errorf("list movement types: %w", err)
	}

	return types, nil
}

// ExistsByCode checks code uniqueness within the tenant scope.
func (r *MovementTypeRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code movement.Code) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(movementTypesTable).
		Where(squirrel.Eq{"code": code}).
		Where(visibleTo(tenantID)).
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
		return false, fmt.Errorf("check code: %w", err)
	}

	return true, nil
}
