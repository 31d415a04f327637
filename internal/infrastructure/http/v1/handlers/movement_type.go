package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmbooks/internal/domain/movement"
	"farmbooks/internal/infrastructure/http/v1/dto"
)

// MovementTypeHandler handles HTTP requests for the movement type catalog.
type MovementTypeHandler struct {
	*BaseHandler
	service *movement.Service
}

// NewMovementTypeHandler creates a new movement type handler.
func NewMovementTypeHandler(base *BaseHandler, service *movement.Service) *MovementTypeHandler {
	return &MovementTypeHandler{BaseHandler: base, service: service}
}

// List handles GET /movement-types. System rows come first.
func (h *MovementTypeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	list, err := h.service.List(ctx, tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovementTypeList(list))
}

// Get handles GET /movement-types/:id.
func (h *MovementTypeHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	typeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	mt, err := h.service.GetByID(ctx, tenantID, typeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovementType(mt))
}

// Create handles POST /movement-types.
func (h *MovementTypeHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateMovementTypeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mt := req.ToEntity(tenantID)
	if err := h.service.Create(ctx, mt); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromMovementType(mt))
}

// Update handles PUT /movement-types/:id.
func (h *MovementTypeHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	typeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMovementTypeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mt, err := h.service.Update(ctx, tenantID, typeID, req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovementType(mt))
}

// Delete handles DELETE /movement-types/:id.
func (h *MovementTypeHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	typeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, tenantID, typeID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
