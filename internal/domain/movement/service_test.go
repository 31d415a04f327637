package movement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
)

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	byID map[id.ID]*MovementType
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[id.ID]*MovementType)}
}

// seed installs the six system movement types, like cmd/seed does.
func (f *fakeRepo) seed() {
	for code, direction := range SeedCodes {
		mt := &MovementType{
			ID:        id.New(),
			Code:      code,
			Name:      string(code),
			Direction: direction,
			IsSystem:  true,
		}
		f.byID[mt.ID] = mt
	}
}

func (f *fakeRepo) visible(tenantID id.ID, mt *MovementType) bool {
	return mt.TenantID == nil || *mt.TenantID == tenantID
}

func (f *fakeRepo) Create(ctx context.Context, mt *MovementType) error {
	f.byID[mt.ID] = mt
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, tenantID, typeID id.ID) (*MovementType, error) {
	mt, ok := f.byID[typeID]
	if !ok || !f.visible(tenantID, mt) {
		return nil, apperror.NewNotFound("movement type", typeID)
	}
	return mt, nil
}

func (f *fakeRepo) GetByCode(ctx context.Context, tenantID id.ID, code Code) (*MovementType, error) {
	var system *MovementType
	for _, mt := range f.byID {
		if mt.Code != code || !f.visible(tenantID, mt) {
			continue
		}
		if mt.TenantID != nil {
			return mt, nil
		}
		system = mt
	}
	if system != nil {
		return system, nil
	}
	return nil, apperror.NewNotFound("movement type", string(code))
}

func (f *fakeRepo) Update(ctx context.Context, mt *MovementType) error {
	f.byID[mt.ID] = mt
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, typeID id.ID) error {
	delete(f.byID, typeID)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, tenantID id.ID) ([]MovementType, error) {
	var out []MovementType
	for _, mt := range f.byID {
		if f.visible(tenantID, mt) {
			out = append(out, *mt)
		}
	}
	return out, nil
}

func (f *fakeRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code Code) (bool, error) {
	_, err := f.GetByCode(ctx, tenantID, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func newTestService(seeded bool) (*Service, *fakeRepo) {
	repo := newFakeRepo()
	if seeded {
		repo.seed()
	}
	return NewService(repo, &fakeTxManager{}), repo
}

func TestSeedCodesCoverBothDirections(t *testing.T) {
	assert.Len(t, SeedCodes, 6)
	assert.Equal(t, DirectionInbound, SeedCodes[CodeInitialStock])
	assert.Equal(t, DirectionInbound, SeedCodes[CodePurchase])
	assert.Equal(t, DirectionInbound, SeedCodes[CodeInboundAdjustment])
	assert.Equal(t, DirectionOutbound, SeedCodes[CodeSale])
	assert.Equal(t, DirectionOutbound, SeedCodes[CodeConsumption])
	assert.Equal(t, DirectionOutbound, SeedCodes[CodeOutboundAdjustment])
}

func TestCreate_TenantDefinedType(t *testing.T) {
	svc, repo := newTestService(true)
	tenantID := id.New()

	mt := NewMovementType(tenantID, "SPOILAGE", "Spoilage write-off", DirectionOutbound)
	// Callers cannot smuggle a system row in.
	mt.IsSystem = true

	require.NoError(t, svc.Create(context.Background(), mt))
	assert.False(t, mt.IsSystem)
	assert.NotNil(t, repo.byID[mt.ID])
}

func TestCreate_ReservedCodeRejected(t *testing.T) {
	svc, _ := newTestService(true)
	tenantID := id.New()

	mt := NewMovementType(tenantID, CodePurchase, "My purchase", DirectionInbound)
	err := svc.Create(context.Background(), mt)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_DuplicateCodeRejected(t *testing.T) {
	svc, _ := newTestService(true)
	tenantID := id.New()
	ctx := context.Background()

	first := NewMovementType(tenantID, "SPOILAGE", "Spoilage", DirectionOutbound)
	require.NoError(t, svc.Create(ctx, first))

	second := NewMovementType(tenantID, "SPOILAGE", "Spoilage again", DirectionOutbound)
	err := svc.Create(ctx, second)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestUpdate_SystemTypeForbidden(t *testing.T) {
	svc, repo := newTestService(true)
	tenantID := id.New()

	var systemID id.ID
	for _, mt := range repo.byID {
		if mt.Code == CodeSale {
			systemID = mt.ID
		}
	}

	_, err := svc.Update(context.Background(), tenantID, systemID, "Renamed")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.Equal(t, 403, appErr.HTTPStatus)
}

func TestDelete_SystemTypeForbidden(t *testing.T) {
	svc, repo := newTestService(true)
	tenantID := id.New()

	var systemID id.ID
	for _, mt := range repo.byID {
		if mt.Code == CodeInitialStock {
			systemID = mt.ID
		}
	}

	err := svc.Delete(context.Background(), tenantID, systemID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	// Still there.
	_, err = svc.GetByID(context.Background(), tenantID, systemID)
	assert.NoError(t, err)
}

func TestUpdate_NameOnly(t *testing.T) {
	svc, _ := newTestService(true)
	tenantID := id.New()
	ctx := context.Background()

	mt := NewMovementType(tenantID, "SPOILAGE", "Spoilage", DirectionOutbound)
	require.NoError(t, svc.Create(ctx, mt))

	updated, err := svc.Update(ctx, tenantID, mt.ID, "Field loss")
	require.NoError(t, err)
	assert.Equal(t, "Field loss", updated.Name)
	assert.Equal(t, DirectionOutbound, updated.Direction)
}

func TestResolveCode_MissingSeedIsConfigurationError(t *testing.T) {
	svc, _ := newTestService(false) // nothing seeded
	tenantID := id.New()

	_, err := svc.ResolveCode(context.Background(), tenantID, CodeSale)
	require.Error(t, err)
	assert.True(t, apperror.IsConfiguration(err))
	assert.Equal(t, 500, apperror.GetHTTPStatus(err))
}

func TestResolveCode_UnknownTenantCodeStaysNotFound(t *testing.T) {
	svc, _ := newTestService(true)
	tenantID := id.New()

	_, err := svc.ResolveCode(context.Background(), tenantID, Code("NO_SUCH"))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolveCode_TenantRowWinsOverSystemRow(t *testing.T) {
	svc, repo := newTestService(true)
	tenantID := id.New()

	// A tenant shadowing a non-reserved code used by another tenant's
	// custom type must only see its own row.
	other := id.New()
	theirs := &MovementType{ID: id.New(), TenantID: &other, Code: "SPOILAGE", Name: "Theirs", Direction: DirectionOutbound}
	repo.byID[theirs.ID] = theirs

	mine := NewMovementType(tenantID, "SPOILAGE", "Mine", DirectionOutbound)
	require.NoError(t, svc.Create(context.Background(), mine))

	got, err := svc.ResolveCode(context.Background(), tenantID, "SPOILAGE")
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)
}
