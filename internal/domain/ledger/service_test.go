package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/movement"
	"farmbooks/internal/domain/refs"
)

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	entries   []Entry
	direction map[id.ID]movement.Direction
}

func (f *fakeRepo) CreateEntries(ctx context.Context, entries []Entry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[Entry], error) {
	return domain.ListResult[Entry]{Items: f.entries, TotalCount: int64(len(f.entries))}, nil
}

func (f *fakeRepo) SumByItemAndDirection(ctx context.Context, tenantID, catalogItemID id.ID) (types.Quantity, types.Quantity, error) {
	inbound, outbound := types.ZeroQuantity(), types.ZeroQuantity()
	for _, e := range f.entries {
		if e.TenantID != tenantID || e.CatalogItemID != catalogItemID {
			continue
		}
		if f.direction[e.MovementTypeID] == movement.DirectionInbound {
			inbound = inbound.Add(e.Quantity)
		} else {
			outbound = outbound.Add(e.Quantity)
		}
	}
	return inbound, outbound, nil
}

type fakeMovementRepo struct {
	byCode map[movement.Code]*movement.MovementType
}

func (f *fakeMovementRepo) Create(ctx context.Context, mt *movement.MovementType) error { return nil }
func (f *fakeMovementRepo) GetByID(ctx context.Context, tenantID, typeID id.ID) (*movement.MovementType, error) {
	return nil, apperror.NewNotFound("movement type", typeID)
}
func (f *fakeMovementRepo) GetByCode(ctx context.Context, tenantID id.ID, code movement.Code) (*movement.MovementType, error) {
	if mt, ok := f.byCode[code]; ok {
		return mt, nil
	}
	return nil, apperror.NewNotFound("movement type", string(code))
}
func (f *fakeMovementRepo) Update(ctx context.Context, mt *movement.MovementType) error { return nil }
func (f *fakeMovementRepo) Delete(ctx context.Context, typeID id.ID) error              { return nil }
func (f *fakeMovementRepo) List(ctx context.Context, tenantID id.ID) ([]movement.MovementType, error) {
	return nil, nil
}
func (f *fakeMovementRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code movement.Code) (bool, error) {
	_, ok := f.byCode[code]
	return ok, nil
}

type fakeItems struct {
	items map[id.ID]*refs.Item
}

func (f *fakeItems) GetItem(ctx context.Context, tenantID, itemID id.ID) (*refs.Item, error) {
	if item, ok := f.items[itemID]; ok {
		return item, nil
	}
	return nil, apperror.NewNotFound("catalog item", itemID)
}

type fakeDims struct {
	known map[id.ID]refs.Dimension
}

func (f *fakeDims) Exists(ctx context.Context, tenantID id.ID, dim refs.Dimension, refID id.ID) (bool, error) {
	return f.known[refID] == dim, nil
}

type testEnv struct {
	svc      *Service
	repo     *fakeRepo
	items    *fakeItems
	dims     *fakeDims
	tenantID id.ID
}

func newTestEnv(seedInitialStock bool) *testEnv {
	repo := &fakeRepo{direction: make(map[id.ID]movement.Direction)}
	movements := &fakeMovementRepo{byCode: make(map[movement.Code]*movement.MovementType)}
	if seedInitialStock {
		for code, direction := range movement.SeedCodes {
			mt := &movement.MovementType{ID: id.New(), Code: code, Name: string(code), Direction: direction, IsSystem: true}
			movements.byCode[code] = mt
			repo.direction[mt.ID] = direction
		}
	}
	items := &fakeItems{items: make(map[id.ID]*refs.Item)}
	dims := &fakeDims{known: make(map[id.ID]refs.Dimension)}
	txm := &fakeTxManager{}

	return &testEnv{
		svc:      NewService(repo, movement.NewService(movements, txm), items, dims, txm),
		repo:     repo,
		items:    items,
		dims:     dims,
		tenantID: id.New(),
	}
}

func (e *testEnv) addItem(unit string, active bool) id.ID {
	item := &refs.Item{ID: id.New(), Name: "test item", Unit: unit, Active: active}
	e.items.items[item.ID] = item
	return item.ID
}

func TestRecordInitialStock(t *testing.T) {
	env := newTestEnv(true)
	itemID := env.addItem("kg", true)

	entry, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
		CatalogItemID: itemID,
		Quantity:      types.MustQuantity("120.5"),
		MovementDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, itemID, entry.CatalogItemID)
	assert.Equal(t, "kg", entry.Unit)
	assert.True(t, entry.Quantity.Equal(types.MustQuantity("120.5")))
	require.Len(t, env.repo.entries, 1)
}

func TestRecordInitialStock_WorkLocation(t *testing.T) {
	env := newTestEnv(true)
	itemID := env.addItem("kg", true)
	locationID := id.New()
	env.dims.known[locationID] = refs.DimensionWorkLocation

	entry, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
		CatalogItemID:  itemID,
		Quantity:       types.MustQuantity("50"),
		WorkLocationID: &locationID,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.WorkLocationID)
	assert.Equal(t, locationID, *entry.WorkLocationID)
}

func TestRecordInitialStock_Errors(t *testing.T) {
	t.Run("non-positive quantity", func(t *testing.T) {
		env := newTestEnv(true)
		itemID := env.addItem("kg", true)
		_, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
			CatalogItemID: itemID,
			Quantity:      types.ZeroQuantity(),
		})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		env := newTestEnv(true)
		_, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
			CatalogItemID: id.New(),
			Quantity:      types.MustQuantity("1"),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("inactive item", func(t *testing.T) {
		env := newTestEnv(true)
		itemID := env.addItem("kg", false)
		_, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
			CatalogItemID: itemID,
			Quantity:      types.MustQuantity("1"),
		})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unknown work location", func(t *testing.T) {
		env := newTestEnv(true)
		itemID := env.addItem("kg", true)
		locationID := id.New()
		_, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
			CatalogItemID:  itemID,
			Quantity:       types.MustQuantity("1"),
			WorkLocationID: &locationID,
		})
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
		assert.Empty(t, env.repo.entries)
	})

	t.Run("missing seed type", func(t *testing.T) {
		env := newTestEnv(false)
		itemID := env.addItem("kg", true)
		_, err := env.svc.RecordInitialStock(context.Background(), env.tenantID, InitialStockInput{
			CatalogItemID: itemID,
			Quantity:      types.MustQuantity("1"),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsConfiguration(err))
	})
}

func TestAppend_ValidatesEveryEntry(t *testing.T) {
	env := newTestEnv(true)

	good := NewEntry(env.tenantID, time.Now(), id.New(), id.New(), "kg", types.MustQuantity("5"))
	bad := NewEntry(env.tenantID, time.Now(), id.New(), id.New(), "kg", types.MustQuantity("-5"))

	err := env.svc.Append(context.Background(), []Entry{good, bad})
	require.Error(t, err)
	assert.Empty(t, env.repo.entries)
}

func TestBalance(t *testing.T) {
	env := newTestEnv(true)
	itemID := env.addItem("kg", true)
	ctx := context.Background()

	_, err := env.svc.RecordInitialStock(ctx, env.tenantID, InitialStockInput{
		CatalogItemID: itemID,
		Quantity:      types.MustQuantity("100"),
	})
	require.NoError(t, err)

	// A manual outbound entry, as fulfillment reconciliation would append.
	var saleTypeID id.ID
	for typeID, dir := range env.repo.direction {
		if dir == movement.DirectionOutbound {
			saleTypeID = typeID
			break
		}
	}
	outbound := NewEntry(env.tenantID, time.Now(), saleTypeID, itemID, "kg", types.MustQuantity("30"))
	require.NoError(t, env.svc.Append(ctx, []Entry{outbound}))

	balance, err := env.svc.Balance(ctx, env.tenantID, itemID)
	require.NoError(t, err)
	assert.True(t, balance.Inbound.Equal(types.MustQuantity("100")))
	assert.True(t, balance.Outbound.Equal(types.MustQuantity("30")))
	assert.True(t, balance.Balance.Equal(types.MustQuantity("70")))
}
