package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler spreadsheet and calendar downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportInvoices invoice list as .xlsx, same filters as the list endpoint
// GET /api/v1/finance/invoices/export
func (h *ExportHandler) ExportInvoices(c *gin.Context) {
	var req dto.InvoiceListRequest
	if !bindQuery(c, &req) {
		return
	}

	buf, filename, err := h.exportSvc.ExportInvoices(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// InvoiceCalendar due dates of a student's open invoices
// GET /api/v1/finance/invoices/calendar.ics?student_id=
func (h *ExportHandler) InvoiceCalendar(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.ValidationError(c, map[string]string{"student_id": "is required"})
		return
	}

	data, err := h.exportSvc.InvoiceCalendar(c.Request.Context(), studentID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, "invoices.ics")
	c.Data(http.StatusOK, icsContentType, data)
}

// MyInvoiceCalendar the calling student's feed
// GET /api/v1/me/invoices/calendar.ics
func (h *ExportHandler) MyInvoiceCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.exportSvc.MyInvoiceCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, "my-invoices.ics")
	c.Data(http.StatusOK, icsContentType, data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c)
	}
}
