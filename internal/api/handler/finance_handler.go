package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// FinanceHandler invoices, payments and statistics
type FinanceHandler struct {
	financeSvc service.FinanceService
}

// NewFinanceHandler creates a FinanceHandler
func NewFinanceHandler(financeSvc service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeSvc: financeSvc}
}

// ────────────────────── invoices ──────────────────────

// ListInvoices
// GET /api/v1/finance/invoices
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	var req dto.InvoiceListRequest
	if !bindQuery(c, &req) {
		return
	}

	invoices, total, err := h.financeSvc.ListInvoices(c.Request.Context(), &req)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OKPage(c, "invoices", invoices, total, req.GetPage(), req.GetLimit())
}

// ListMyInvoices the calling student's own invoices
// GET /api/v1/me/invoices
func (h *FinanceHandler) ListMyInvoices(c *gin.Context) {
	var req dto.InvoiceListRequest
	if !bindQuery(c, &req) {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invoices, total, err := h.financeSvc.ListMyInvoices(c.Request.Context(), userID, &req)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OKPage(c, "invoices", invoices, total, req.GetPage(), req.GetLimit())
}

// GetInvoice
// GET /api/v1/finance/invoices/:id
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.financeSvc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, invoice)
}

// CreateInvoice
// POST /api/v1/finance/invoices
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invoice, err := h.financeSvc.CreateInvoice(c.Request.Context(), &req, callerID)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.Created(c, invoice)
}

// UpdateInvoice pending and overdue invoices only
// PUT /api/v1/finance/invoices/:id
func (h *FinanceHandler) UpdateInvoice(c *gin.Context) {
	var req dto.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invoice, err := h.financeSvc.UpdateInvoice(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, invoice)
}

// DeleteInvoice cancels an invoice that has no payments
// DELETE /api/v1/finance/invoices/:id
func (h *FinanceHandler) DeleteInvoice(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.financeSvc.CancelInvoice(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OKMessage(c, "invoice cancelled")
}

// GenerateInvoices bills a program's active students from its fee structure
// POST /api/v1/finance/programs/:programId/generate-invoices
func (h *FinanceHandler) GenerateInvoices(c *gin.Context) {
	var req dto.GenerateInvoicesRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.financeSvc.GenerateInvoices(c.Request.Context(), c.Param("programId"), &req, callerID)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.Created(c, result)
}

// ────────────────────── payments ──────────────────────

// ListPayments
// GET /api/v1/finance/payments
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	var req dto.PaymentListRequest
	if !bindQuery(c, &req) {
		return
	}

	payments, total, err := h.financeSvc.ListPayments(c.Request.Context(), &req)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OKPage(c, "payments", payments, total, req.GetPage(), req.GetLimit())
}

// GetPayment
// GET /api/v1/finance/payments/:id
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	payment, err := h.financeSvc.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, payment)
}

// RecordPayment
// POST /api/v1/finance/payments
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.financeSvc.RecordPayment(c.Request.Context(), &req, callerID)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.Created(c, payment)
}

// Statistics dashboard totals
// GET /api/v1/finance/statistics
func (h *FinanceHandler) Statistics(c *gin.Context) {
	stats, err := h.financeSvc.Statistics(c.Request.Context())
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, stats)
}

func handleFinanceError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvoiceNotEditable),
		errors.Is(err, service.ErrInvoiceHasPayments),
		errors.Is(err, service.ErrInvoiceNotPayable):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvoiceTotalBelowPaid):
		response.ValidationError(c, map[string]string{"items": err.Error()})
	case errors.Is(err, service.ErrOverpayment):
		response.ValidationError(c, map[string]string{"amount_kes": err.Error()})
	case errors.Is(err, service.ErrDuplicateMpesaRef):
		response.ValidationError(c, map[string]string{"mpesa_ref": err.Error()})
	case errors.Is(err, service.ErrProgramHasNoFees):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c)
	}
}
