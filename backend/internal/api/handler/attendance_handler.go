package handler

import (
	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// AttendanceHandler attendance validation HTTP handler
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler creates an AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// ValidateAttendance records whether the professional showed up
// POST /api/v1/postings/:id/attendance
func (h *AttendanceHandler) ValidateAttendance(c *gin.Context) {
	id, ok := pathID(c, "id", "id da vaga")
	if !ok {
		return
	}
	var req dto.ValidateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.ValidateAttendance(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// JustifyAttendance moderation: accept a no-show justification
// POST /api/v1/attendance/:id/justify
func (h *AttendanceHandler) JustifyAttendance(c *gin.Context) {
	id, ok := pathID(c, "id", "id do registro")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.JustifyAttendance(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
