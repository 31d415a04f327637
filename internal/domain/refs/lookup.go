// Package refs declares the reference-data contracts the core consumes.
// Catalog items, cost centers, management accounts, seasons and work
// locations are managed elsewhere; the core only checks existence and
// reads the item's unit of measure.
package refs

import (
	"context"

	"farmbooks/internal/core/id"
)

// Item is the subset of a catalog item the core needs.
type Item struct {
	ID     id.ID  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Unit   string `db:"unit" json:"unit"`
	Active bool   `db:"active" json:"active"`
}

// ItemLookup validates catalog items and supplies their unit.
type ItemLookup interface {
	// GetItem returns the item or NotFound. Inactive items resolve with
	// Active=false; callers decide whether that matters.
	GetItem(ctx context.Context, tenantID, itemID id.ID) (*Item, error)
}

// Dimension names the optional accounting dimensions a ledger entry carries.
type Dimension string

const (
	DimensionCostCenter        Dimension = "cost_center"
	DimensionManagementAccount Dimension = "management_account"
	DimensionSeason            Dimension = "season"
	DimensionWorkLocation      Dimension = "work_location"
)

// DimensionLookup checks existence of accounting dimension references.
type DimensionLookup interface {
	Exists(ctx context.Context, tenantID id.ID, dim Dimension, refID id.ID) (bool, error)
}
