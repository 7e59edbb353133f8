package handler

import (
	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// ApplicationHandler professional side of a posting: apply, withdraw, list own applications
type ApplicationHandler struct {
	postingSvc service.PostingService
}

// NewApplicationHandler creates an ApplicationHandler
func NewApplicationHandler(postingSvc service.PostingService) *ApplicationHandler {
	return &ApplicationHandler{postingSvc: postingSvc}
}

// Apply applies the caller to a posting
// POST /api/v1/postings/:id/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	var req dto.ApplyRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
			return
		}
	}
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	app, err := h.postingSvc.Apply(c.Request.Context(), id, professionalID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, app)
}

// Withdraw removes a PENDING application of the caller
// DELETE /api/v1/applications/:id
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, ok := pathID(c, "id", "id da candidatura")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.postingSvc.Withdraw(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMine applications of the caller
// GET /api/v1/applications/me
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	apps, err := h.postingSvc.ListMyApplications(c.Request.Context(), professionalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}
