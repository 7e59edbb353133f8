package handler

import (
	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// AvailabilityHandler online/offline toggle of the calling professional
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler creates an AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// GetStatus current availability and what is left today
// GET /api/v1/availability
func (h *AvailabilityHandler) GetStatus(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.availabilitySvc.GetStatus(c.Request.Context(), professionalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, status)
}

// Activate goes online
// POST /api/v1/availability/activate
func (h *AvailabilityHandler) Activate(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.availabilitySvc.Activate(c.Request.Context(), professionalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, status)
}

// Deactivate goes offline with a justification
// POST /api/v1/availability/deactivate
func (h *AvailabilityHandler) Deactivate(c *gin.Context) {
	var req dto.DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "informe a justificativa")
		return
	}
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.availabilitySvc.Deactivate(c.Request.Context(), professionalID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, status)
}
