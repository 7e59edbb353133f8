package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

// CalendarHandler schedule blocks of the calling professional
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler creates a CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ListBlocks active blocks
// GET /api/v1/calendar/blocks
func (h *CalendarHandler) ListBlocks(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	blocks, err := h.calendarSvc.ListBlocks(c.Request.Context(), professionalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": blocks})
}

// AddBlock manual unavailability
// POST /api/v1/calendar/blocks
func (h *CalendarHandler) AddBlock(c *gin.Context) {
	var req dto.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "parâmetros inválidos")
		return
	}
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	block, err := h.calendarSvc.AddManualBlock(c.Request.Context(), professionalID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, block)
}

// DeleteBlock deactivates a manual block
// DELETE /api/v1/calendar/blocks/:id
func (h *CalendarHandler) DeleteBlock(c *gin.Context) {
	id, ok := pathID(c, "id", "id do bloqueio")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.calendarSvc.DeactivateBlock(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportFeed iCalendar download
// GET /api/v1/calendar/feed.ics
func (h *CalendarHandler) ExportFeed(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	feed, err := h.calendarSvc.ExportBlocks(c.Request.Context(), professionalID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="agenda.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// ImportFeed uploads an .ics file, multipart field "file"
// POST /api/v1/calendar/import
func (h *CalendarHandler) ImportFeed(c *gin.Context) {
	professionalID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeBadRequest, "envie o arquivo .ics no campo file")
		return
	}
	defer file.Close()

	result, err := h.calendarSvc.ImportBlocks(c.Request.Context(), professionalID, file)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}
