package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/ledger"
	"farmbooks/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles HTTP requests for the stock ledger. The ledger is
// read-only over HTTP except for initial stock seeding.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// List handles GET /ledger.
func (h *LedgerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	filter := ledger.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if v := c.Query("catalogItemId"); v != "" {
		itemID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid catalog item id"))
			return
		}
		filter.CatalogItemID = &itemID
	}
	if v := c.Query("movementTypeId"); v != "" {
		typeID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid movement type id"))
			return
		}
		filter.MovementTypeID = &typeID
	}
	if v := c.Query("dateFrom"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateFrom, expected YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &t
	}
	if v := c.Query("dateTo"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid dateTo, expected YYYY-MM-DD"))
			return
		}
		filter.DateTo = &t
	}

	result, err := h.service.List(ctx, tenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromLedgerEntryList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Balance handles GET /ledger/balance/:itemId.
func (h *LedgerHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseIDParam(c, "itemId")
	if !ok {
		return
	}

	balance, err := h.service.Balance(ctx, tenantID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromItemBalance(balance))
}

// RecordInitialStock handles POST /ledger/initial-stock.
func (h *LedgerHandler) RecordInitialStock(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.RecordInitialStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.RecordInitialStock(ctx, tenantID, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromLedgerEntry(entry))
}
