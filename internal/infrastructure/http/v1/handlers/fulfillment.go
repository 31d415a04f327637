package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmbooks/internal/core/apperror"
	"farmbooks/internal/core/id"
	"farmbooks/internal/domain"
	"farmbooks/internal/domain/fulfillment"
	"farmbooks/internal/infrastructure/http/v1/dto"
)

// FulfillmentHandler handles HTTP requests for fulfillment events. The
// same handler serves receipts and shipments; the kind is fixed per route.
type FulfillmentHandler struct {
	*BaseHandler
	service *fulfillment.Service
	kind    fulfillment.Kind
}

// NewReceiptHandler creates a handler for goods receipts against
// purchase invoices.
func NewReceiptHandler(base *BaseHandler, service *fulfillment.Service) *FulfillmentHandler {
	return &FulfillmentHandler{BaseHandler: base, service: service, kind: fulfillment.KindReceipt}
}

// NewShipmentHandler creates a handler for shipments against sale invoices.
func NewShipmentHandler(base *BaseHandler, service *fulfillment.Service) *FulfillmentHandler {
	return &FulfillmentHandler{BaseHandler: base, service: service, kind: fulfillment.KindShipment}
}

// Create handles POST /receipts and POST /shipments.
func (h *FulfillmentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateFulfillmentEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	event, err := h.service.CreateEvent(ctx, tenantID, h.kind, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromFulfillmentEvent(event))
}

// Get handles GET /receipts/:id and GET /shipments/:id.
func (h *FulfillmentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if event.Kind != h.kind {
		h.Error(c, apperror.NewNotFound("fulfillment event", eventID))
		return
	}

	h.OK(c, dto.FromFulfillmentEvent(event))
}

// Delete handles DELETE /receipts/:id and DELETE /shipments/:id.
// Deleting an event appends compensating ledger entries; history is
// never rewritten.
func (h *FulfillmentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	eventID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if event.Kind != h.kind {
		h.Error(c, apperror.NewNotFound("fulfillment event", eventID))
		return
	}

	if err := h.service.DeleteEvent(ctx, tenantID, eventID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /receipts and GET /shipments.
func (h *FulfillmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	kind := h.kind
	filter := fulfillment.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		Kind:       &kind,
	}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	if v := c.Query("invoiceId"); v != "" {
		invoiceID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid invoice id"))
			return
		}
		filter.InvoiceID = &invoiceID
	}

	result, err := h.service.ListEvents(ctx, tenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromFulfillmentEventList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// InvoiceFulfillment handles GET /invoices/:id/fulfillment. It reports the
// fulfilled total per invoice line item across both kinds.
func (h *FulfillmentHandler) InvoiceFulfillment(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	totals, err := h.service.FulfilledByLineItem(ctx, tenantID, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"invoiceId": invoiceID.String(),
		"lines":     dto.FromFulfilledTotals(totals),
	})
}
