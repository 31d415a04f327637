// Package ledger provides the stock ledger service.
package ledger

import (
	"context"
	"fmt"
	"time"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/tx"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/domain/refs"
	"farmbooks/pkg/logger"
)

// Service provides business operations for the stock ledger.
type Service struct {
	repo      Repository
	movements *movement.Service
	items     refs.ItemLookup
	dims      refs.DimensionLookup
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, movements *movement.Service, items refs.ItemLookup, dims refs.DimensionLookup, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		movements: movements,
		items:     items,
		dims:      dims,
		txManager: txManager,
	}
}

// Append validates and batch-inserts ledger entries.
// Called by the reconciliation coordinator within its transaction.
func (s *Service) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if err := entries[i].Validate(ctx); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if err := s.repo.CreateEntries(ctx, entries); err != nil {
		return fmt.Errorf("create entries: %w", err)
	}

	logger.Info(ctx, "stock ledger entries appended",
		"count", len(entries),
		"tenant_id", entries[0].TenantID,
	)

	return nil
}

// InitialStockInput describes an opening-balance seed for one item.
type InitialStockInput struct {
	CatalogItemID  id.ID
	Quantity       types.Quantity
	MovementDate   time.Time
	WorkLocationID *id.ID
}

// RecordInitialStock seeds a product's opening balance through the
// INITIAL_STOCK movement type. This is the "create ledger entry" contract
// exposed to flows outside fulfillment reconciliation.
func (s *Service) RecordInitialStock(ctx context.Context, tenantID id.ID, input InitialStockInput) (*Entry, error) {
	if !input.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	item, err := s.items.GetItem(ctx, tenantID, input.CatalogItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, apperror.NewValidation("catalog item is inactive").
			WithDetail("catalog_item_id", input.CatalogItemID.String())
	}

	if input.WorkLocationID != nil {
		exists, err := s.dims.Exists(ctx, tenantID, refs.DimensionWorkLocation, *input.WorkLocationID)
		if err != nil {
			return nil, fmt.Errorf("check work location: %w", err)
		}
		if !exists {
			return nil, apperror.NewValidation("work location does not exist").
				WithDetail("field", "workLocationId").
				WithDetail("work_location_id", input.WorkLocationID.String())
		}
	}

	mt, err := s.movements.ResolveCode(ctx, tenantID, movement.CodeInitialStock)
	if err != nil {
		return nil, err
	}

	movementDate := input.MovementDate
	if movementDate.IsZero() {
		movementDate = time.Now().UTC()
	}

	entry := NewEntry(tenantID, movementDate, mt.ID, item.ID, item.Unit, input.Quantity)
	entry.WorkLocationID = input.WorkLocationID

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.Append(ctx, []Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// List retrieves ledger entries with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[Entry], error) {
	return s.repo.List(ctx, tenantID, filter)
}

// ItemBalance is the signed stock level of one catalog item.
type ItemBalance struct {
	CatalogItemID id.ID          `json:"catalogItemId"`
	Inbound       types.Quantity `json:"inbound"`
	Outbound      types.Quantity `json:"outbound"`
	Balance       types.Quantity `json:"balance"`
}

// Balance computes the current signed balance for an item from the full
// entry history (inbound minus outbound).
func (s *Service) Balance(ctx context.Context, tenantID, catalogItemID id.ID) (ItemBalance, error) {
	inbound, outbound, err := s.repo.SumByItemAndDirection(ctx, tenantID, catalogItemID)
	if err != nil {
		return ItemBalance{}, fmt.Errorf("sum ledger: %w", err)
	}

	return ItemBalance{
		CatalogItemID: catalogItemID,
		Inbound:       inbound,
		Outbound:      outbound,
		Balance:       inbound.Sub(outbound),
	}, nil
}
