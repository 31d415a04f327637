package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	appctx "farmbooks/internal/core/context"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/fulfillment"
)

type fakeEventRepo struct {
	events  map[id.ID]*fulfillment.Event
	deleted []id.ID
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[id.ID]*fulfillment.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *fulfillment.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, tenantID, eventID id.ID) (*fulfillment.Event, error) {
	e, ok := f.events[eventID]
	if !ok || e.TenantID != tenantID {
		return nil, apperror.NewNotFound("fulfillment event", eventID)
	}
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, tenantID, eventID id.ID) error {
	f.deleted = append(f.deleted, eventID)
	delete(f.events, eventID)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, tenantID id.ID, filter fulfillment.ListFilter) (*domain.ListResult[*fulfillment.Event], error) {
	return &domain.ListResult[*fulfillment.Event]{}, nil
}

func (f *fakeEventRepo) SumFulfilledByLineItem(ctx context.Context, tenantID, invoiceID id.ID) (map[id.ID]types.Quantity, error) {
	return nil, nil
}

func (f *fakeEventRepo) HasEvents(ctx context.Context, tenantID, invoiceID id.ID) (bool, error) {
	return false, nil
}

func eventContext(t *testing.T, tenantID, eventID id.ID) *gin.Context {
	t.Helper()
	c, _ := testContext(t)
	c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), &appctx.UserContext{
		TenantID: tenantID.String(),
	}))
	c.Params = gin.Params{{Key: "id", Value: eventID.String()}}
	return c
}

// The receipt and shipment surfaces must stay disjoint: an event of the
// other kind behaves as if it did not exist on this route.

func TestFulfillmentGetWrongKind(t *testing.T) {
	tenantID := id.New()
	repo := newFakeEventRepo()
	receipt := fulfillment.NewEvent(tenantID, id.New(), fulfillment.KindReceipt,
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), "")
	repo.events[receipt.ID] = receipt

	h := NewShipmentHandler(NewBaseHandler(), fulfillment.NewService(repo, nil, nil, nil, nil, nil))

	c := eventContext(t, tenantID, receipt.ID)
	h.Get(c)

	require.Len(t, c.Errors, 1)
	appErr, ok := apperror.AsAppError(c.Errors[0].Err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestFulfillmentDeleteWrongKind(t *testing.T) {
	tenantID := id.New()
	repo := newFakeEventRepo()
	receipt := fulfillment.NewEvent(tenantID, id.New(), fulfillment.KindReceipt,
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), "")
	repo.events[receipt.ID] = receipt

	h := NewShipmentHandler(NewBaseHandler(), fulfillment.NewService(repo, nil, nil, nil, nil, nil))

	c := eventContext(t, tenantID, receipt.ID)
	h.Delete(c)

	require.Len(t, c.Errors, 1)
	appErr, ok := apperror.AsAppError(c.Errors[0].Err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)

	// The receipt survives; nothing was deleted through the wrong route.
	assert.Empty(t, repo.deleted)
	assert.Contains(t, repo.events, receipt.ID)
}
