package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/refs"
)

// --- fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	invoices map[id.ID]*Invoice

	numberCheckErr error
	updateCalls    int
	saveLinesCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: make(map[id.ID]*Invoice)}
}

func (f *fakeRepo) put(inv *Invoice) { f.invoices[inv.ID] = inv }

func (f *fakeRepo) Create(ctx context.Context, inv *Invoice) error {
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, tenantID, invoiceID id.ID) (*Invoice, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return inv, nil
}

func (f *fakeRepo) GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Invoice, error) {
	if f.numberCheckErr != nil {
		return nil, f.numberCheckErr
	}
	for _, inv := range f.invoices {
		if inv.TenantID == tenantID && inv.Number == number {
			return inv, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (f *fakeRepo) Update(ctx context.Context, inv *Invoice) error {
	f.updateCalls++
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tenantID, invoiceID id.ID) error {
	delete(f.invoices, invoiceID)
	return nil
}

func (f *fakeRepo) GetForUpdate(ctx context.Context, tenantID, invoiceID id.ID) (*Invoice, error) {
	return f.GetByID(ctx, tenantID, invoiceID)
}

func (f *fakeRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]LineItem, error) {
	if inv, ok := f.invoices[invoiceID]; ok {
		return inv.Lines, nil
	}
	return nil, nil
}

func (f *fakeRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []LineItem) error {
	f.saveLinesCalls++
	return nil
}

func (f *fakeRepo) GetInstallments(ctx context.Context, invoiceID id.ID) ([]Installment, error) {
	if inv, ok := f.invoices[invoiceID]; ok {
		return inv.Installments, nil
	}
	return nil, nil
}

func (f *fakeRepo) SaveInstallments(ctx context.Context, invoiceID id.ID, installments []Installment) error {
	return nil
}

func (f *fakeRepo) UpdateInstallmentPaidAt(ctx context.Context, invoiceID, installmentID id.ID, paidAt *time.Time) error {
	if inv, ok := f.invoices[invoiceID]; ok {
		if inst, found := inv.InstallmentByID(installmentID); found {
			inst.PaidAt = paidAt
			return nil
		}
	}
	return apperror.NewNotFound("installment", installmentID)
}

func (f *fakeRepo) ExistsByNumber(ctx context.Context, tenantID id.ID, number string) (bool, error) {
	_, err := f.GetByNumber(ctx, tenantID, number)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *fakeRepo) List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return domain.ListResult[*Invoice]{}, nil
}

type fakeGuard struct {
	hasEvents bool
	err       error
}

func (f *fakeGuard) HasEvents(ctx context.Context, tenantID, invoiceID id.ID) (bool, error) {
	return f.hasEvents, f.err
}

type fakeDims struct {
	known map[id.ID]refs.Dimension
}

func newFakeDims() *fakeDims {
	return &fakeDims{known: make(map[id.ID]refs.Dimension)}
}

func (f *fakeDims) Exists(ctx context.Context, tenantID id.ID, dim refs.Dimension, refID id.ID) (bool, error) {
	return f.known[refID] == dim, nil
}

// --- helpers ---

func validInvoice(tenantID id.ID) *Invoice {
	inv := NewInvoice(tenantID, "PINV-0001",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DirectionPurchase, id.New())
	inv.AddLine(LineItem{
		CatalogItemID: id.New(),
		Quantity:      types.MustQuantity("1000"),
		Unit:          "kg",
		FeedsLedger:   true,
	})
	return inv
}

func newTestService(repo *fakeRepo, guard *fakeGuard) *Service {
	return NewService(repo, guard, newFakeDims(), &fakeTxManager{}, nil)
}

// --- tests ---

func TestUpdate(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{})

	inv := validInvoice(tenantID)
	repo.put(inv)

	inv.Notes = "corrected"
	require.NoError(t, svc.Update(context.Background(), inv))
	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, 1, repo.saveLinesCalls)
}

func TestUpdateRejectedWithFulfillmentEvents(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{hasEvents: true})

	inv := validInvoice(tenantID)
	repo.put(inv)

	inv.Notes = "corrected"
	err := svc.Update(context.Background(), inv)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, inv.ID.String(), appErr.Details["invoice_id"])

	// Nothing was written: the stored lines keep the ids the events reference.
	assert.Zero(t, repo.updateCalls)
	assert.Zero(t, repo.saveLinesCalls)
}

func TestUpdateDuplicateNumber(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{})

	other := validInvoice(tenantID)
	repo.put(other)

	inv := validInvoice(tenantID)
	inv.Number = other.Number

	err := svc.Update(context.Background(), inv)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Zero(t, repo.updateCalls)
}

func TestUpdateNumberCheckFailure(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{})

	inv := validInvoice(tenantID)
	repo.put(inv)

	// A broken connection is not a free pass: the failure propagates
	// instead of skipping the duplicate check.
	dbErr := errors.New("connection reset")
	repo.numberCheckErr = dbErr

	err := svc.Update(context.Background(), inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Zero(t, repo.updateCalls)
}

func TestUpdateGuardFailure(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	guardErr := errors.New("connection reset")
	svc := newTestService(repo, &fakeGuard{err: guardErr})

	inv := validInvoice(tenantID)
	repo.put(inv)

	err := svc.Update(context.Background(), inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, guardErr)
	assert.Zero(t, repo.updateCalls)
}

func TestCreateUnknownDimension(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	dims := newFakeDims()
	svc := NewService(repo, &fakeGuard{}, dims, &fakeTxManager{}, nil)

	costCenterID := id.New()
	inv := validInvoice(tenantID)
	inv.Lines[0].CostCenterID = &costCenterID

	err := svc.Create(context.Background(), inv)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "costCenterId", appErr.Details["field"])
	assert.Empty(t, repo.invoices)

	// Registering the reference makes the same payload pass.
	dims.known[costCenterID] = refs.DimensionCostCenter
	require.NoError(t, svc.Create(context.Background(), inv))
}

func TestUpdateUnknownDimension(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{})

	inv := validInvoice(tenantID)
	repo.put(inv)

	seasonID := id.New()
	inv.Lines[0].SeasonID = &seasonID

	err := svc.Update(context.Background(), inv)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "seasonId", appErr.Details["field"])
	assert.Zero(t, repo.updateCalls)
}

func TestDeleteRejectedWithFulfillmentEvents(t *testing.T) {
	tenantID := id.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGuard{hasEvents: true})

	inv := validInvoice(tenantID)
	repo.put(inv)

	err := svc.Delete(context.Background(), tenantID, inv.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Contains(t, repo.invoices, inv.ID)
}
