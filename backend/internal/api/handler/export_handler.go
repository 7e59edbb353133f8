package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"plantao/backend/internal/dto"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler report download HTTP handler
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance attendance workbook of a clinic
// GET /api/v1/clinics/:id/attendance/export?from=2026-03-01&to=2026-04-01
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	clinicID, ok := pathID(c, "id", "id da clínica")
	if !ok {
		return
	}
	var q dto.ExportAttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "informe from e to no formato AAAA-MM-DD")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), clinicID, q.From, q.To, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
