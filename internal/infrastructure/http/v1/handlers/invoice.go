package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/invoice"
	"farmbooks/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoice documents.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := req.ToEntity(tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(inv))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Update handles PUT /invoices/:id.
func (h *InvoiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(inv); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, tenantID, invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /invoices with filtering.
func (h *InvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	filter := invoice.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")

	if dir := c.Query("direction"); dir != "" {
		d := invoice.Direction(dir)
		if !d.Valid() {
			h.Error(c, apperror.NewValidation("invalid direction").WithDetail("value", dir))
			return
		}
		filter.Direction = &d
	}
	if v := c.Query("counterpartyId"); v != "" {
		counterpartyID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid counterparty id"))
			return
		}
		filter.CounterpartyID = &counterpartyID
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
		Items:      dto.FromInvoiceList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// PayInstallment handles POST /invoices/:id/installments/:installmentId/pay.
func (h *InvoiceHandler) PayInstallment(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	installmentID, ok := h.ParseIDParam(c, "installmentId")
	if !ok {
		return
	}

	// Body is optional: an empty body means paid now.
	var req dto.PayInstallmentRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	inst, err := h.service.MarkInstallmentPaid(ctx, tenantID, invoiceID, installmentID, req.PaidAt)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInstallment(inst))
}

// UnpayInstallment handles POST /invoices/:id/installments/:installmentId/unpay.
// It reopens a settled installment for correction.
func (h *InvoiceHandler) UnpayInstallment(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	installmentID, ok := h.ParseIDParam(c, "installmentId")
	if !ok {
		return
	}

	inst, err := h.service.MarkInstallmentPending(ctx, tenantID, invoiceID, installmentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInstallment(inst))
}
