package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/core/types"
	"farmbooks/internal/domain/invoice"
)

func baseInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv := invoice.NewInvoice(id.New(), "PINV-0001",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		invoice.DirectionPurchase, id.New())
	inv.Notes = "spring order"
	inv.AddLine(invoice.LineItem{
		CatalogItemID: id.New(),
		Quantity:      types.MustQuantity("1000"),
		Unit:          "kg",
		UnitPrice:     types.MustQuantity("2.40"),
		FeedsLedger:   true,
	})
	inv.AddLine(invoice.LineItem{
		CatalogItemID: id.New(),
		Quantity:      types.MustQuantity("5"),
		Unit:          "pcs",
	})
	inv.AddInstallment(invoice.Installment{
		DueDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:  types.MustQuantity("2400"),
	})
	return inv
}

func TestUpdateApplyToPartialHeader(t *testing.T) {
	inv := baseInvoice(t)
	origCounterparty := inv.CounterpartyID
	newNumber := "PINV-0002"

	req := UpdateInvoiceRequest{Number: &newNumber}
	require.NoError(t, req.ApplyTo(inv))

	assert.Equal(t, "PINV-0002", inv.Number)
	// Omitted header fields and both child sets stay untouched.
	assert.Equal(t, origCounterparty, inv.CounterpartyID)
	assert.Equal(t, "spring order", inv.Notes)
	assert.Len(t, inv.Lines, 2)
	assert.Len(t, inv.Installments, 1)
}

func TestUpdateApplyToReplacesLinesWholesale(t *testing.T) {
	inv := baseInvoice(t)
	oldLineID := inv.Lines[0].ID

	req := UpdateInvoiceRequest{
		Lines: []InvoiceLineRequest{
			{
				CatalogItemID: id.New().String(),
				Quantity:      types.MustQuantity("750"),
				Unit:          "kg",
				FeedsLedger:   true,
			},
		},
	}
	require.NoError(t, req.ApplyTo(inv))

	// The stored set is replaced, not merged: one line, new identity,
	// numbering restarted.
	require.Len(t, inv.Lines, 1)
	assert.NotEqual(t, oldLineID, inv.Lines[0].ID)
	assert.Equal(t, 1, inv.Lines[0].LineNo)
	assert.True(t, inv.Lines[0].Quantity.Equal(types.MustQuantity("750")))
	// Installments were omitted and survive.
	assert.Len(t, inv.Installments, 1)
}

func TestUpdateApplyToEmptyLinesClears(t *testing.T) {
	inv := baseInvoice(t)

	req := UpdateInvoiceRequest{Lines: []InvoiceLineRequest{}}
	require.NoError(t, req.ApplyTo(inv))

	assert.Empty(t, inv.Lines)
}

func TestUpdateApplyToReplacesInstallments(t *testing.T) {
	inv := baseInvoice(t)
	oldInstID := inv.Installments[0].ID

	req := UpdateInvoiceRequest{
		Installments: []InvoiceInstallmentRequest{
			{DueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Amount: types.MustQuantity("1200")},
			{DueDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Amount: types.MustQuantity("1200")},
		},
	}
	require.NoError(t, req.ApplyTo(inv))

	require.Len(t, inv.Installments, 2)
	assert.NotEqual(t, oldInstID, inv.Installments[0].ID)
	assert.Len(t, inv.Lines, 2)
}

func TestUpdateApplyToBadIDs(t *testing.T) {
	inv := baseInvoice(t)

	badCounterparty := "not-a-uuid"
	err := (&UpdateInvoiceRequest{CounterpartyID: &badCounterparty}).ApplyTo(inv)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	err = (&UpdateInvoiceRequest{
		Lines: []InvoiceLineRequest{{CatalogItemID: "nope", Quantity: types.MustQuantity("1"), Unit: "kg"}},
	}).ApplyTo(inv)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "catalogItemId", appErr.Details["field"])
}

func TestCreateToEntity(t *testing.T) {
	tenantID := id.New()
	catalogItemID := id.New()
	costCenterID := id.New().String()

	req := CreateInvoiceRequest{
		Number:         "SINV-0007",
		IssueDate:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Direction:      string(invoice.DirectionSale),
		CounterpartyID: id.New().String(),
		Lines: []InvoiceLineRequest{
			{
				CatalogItemID: catalogItemID.String(),
				Quantity:      types.MustQuantity("300"),
				Unit:          "kg",
				UnitPrice:     types.MustQuantity("3.10"),
				FeedsLedger:   true,
				CostCenterID:  &costCenterID,
			},
		},
		Installments: []InvoiceInstallmentRequest{
			{DueDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), Amount: types.MustQuantity("930")},
		},
	}

	inv, err := req.ToEntity(tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenantID, inv.TenantID)
	assert.Equal(t, invoice.DirectionSale, inv.Direction)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, catalogItemID, inv.Lines[0].CatalogItemID)
	require.NotNil(t, inv.Lines[0].CostCenterID)
	assert.Equal(t, costCenterID, inv.Lines[0].CostCenterID.String())
	require.Len(t, inv.Installments, 1)
}
