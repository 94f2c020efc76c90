package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"imtr/backend/config"
	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	pkgerrors "imtr/backend/pkg/errors"
	"imtr/backend/pkg/events"
	"imtr/backend/pkg/redis"
)

// ── finance module errors ──

var (
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvoiceNotEditable    = errors.New("only pending or overdue invoices can be changed")
	ErrInvoiceHasPayments    = errors.New("invoice has payments and cannot be deleted")
	ErrInvoiceTotalBelowPaid = errors.New("invoice total cannot be lower than the amount already paid")
	ErrInvoiceNotPayable     = errors.New("invoice is cancelled or already paid")
	ErrOverpayment           = errors.New("payment exceeds the outstanding balance")
	ErrDuplicateMpesaRef     = errors.New("M-Pesa reference has already been recorded")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrProgramHasNoFees      = errors.New("program has no fee lines to invoice")
)

const (
	statsCacheKey   = "finance:stats"
	financeCacheTag = "finance:"

	// cent tolerance when comparing float amounts
	kesEpsilon = 0.005
)

// FinanceService invoices, payments and finance statistics
type FinanceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest, callerID string) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, req *dto.InvoiceListRequest) ([]dto.InvoiceResponse, int64, error)
	ListMyInvoices(ctx context.Context, userID string, req *dto.InvoiceListRequest) ([]dto.InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest, callerID string) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id, callerID string) error
	GenerateInvoices(ctx context.Context, programID string, req *dto.GenerateInvoicesRequest, callerID string) (*dto.GenerateInvoicesResponse, error)

	RecordPayment(ctx context.Context, req *dto.CreatePaymentRequest, callerID string) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, req *dto.PaymentListRequest) ([]dto.PaymentResponse, int64, error)

	Statistics(ctx context.Context) (*dto.FinanceStatistics, error)
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error)
}

type financeService struct {
	cfg    *config.FinanceConfig
	repo   *repository.Repository
	cache  Cache
	bus    events.Publisher
	logger *zap.Logger
}

// NewFinanceService creates a FinanceService; cache and bus may be nil
func NewFinanceService(
	cfg *config.FinanceConfig,
	repo *repository.Repository,
	cache Cache,
	bus events.Publisher,
	logger *zap.Logger,
) FinanceService {
	return &financeService{cfg: cfg, repo: repo, cache: cache, bus: bus, logger: logger}
}

// ────────────────────── CreateInvoice ──────────────────────

func (s *financeService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest, callerID string) (*dto.InvoiceResponse, error) {
	if fields := validation.Invoice(req); len(fields) > 0 {
		return nil, fields
	}
	due, err := validation.ParseDate(req.DueDate)
	if err != nil {
		return nil, validation.FieldErrors{"due_date": "must be a date in YYYY-MM-DD format"}
	}

	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation.FieldErrors{"student_id": "student does not exist"}
		}
		s.logger.Error("failed to load student", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}

	items, total := buildItems(req.Items)
	invoice := &model.Invoice{
		InvoiceNumber: s.nextInvoiceNumber(time.Now()),
		StudentID:     student.ID,
		TotalKES:      total,
		Status:        model.InvoiceStatusPending,
		DueDate:       due,
		Notes:         trimmedOrNil(req.Notes),
		Items:         items,
	}
	invoice.CreatedBy = &callerID

	if err := s.repo.Invoice.Create(ctx, invoice); err != nil {
		s.logger.Error("failed to create invoice", zap.String("student_id", student.ID), zap.Error(err))
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publishInvoiceCreated(ctx, invoice)

	invoice.Student = student
	return toInvoiceResponse(invoice, 0, nil), nil
}

// ────────────────────── GetInvoice / List ──────────────────────

func (s *financeService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.Payment.ListByInvoice(ctx, id)
	if err != nil {
		s.logger.Error("failed to list invoice payments", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toInvoiceResponse(invoice, completedSum(payments), payments), nil
}

func (s *financeService) ListInvoices(ctx context.Context, req *dto.InvoiceListRequest) ([]dto.InvoiceResponse, int64, error) {
	filters, err := invoiceFilters(req)
	if err != nil {
		return nil, 0, err
	}
	return s.listInvoices(ctx, filters, &req.ListQuery)
}

// ListMyInvoices invoices of the student record owned by userID
func (s *financeService) ListMyInvoices(ctx context.Context, userID string, req *dto.InvoiceListRequest) ([]dto.InvoiceResponse, int64, error) {
	student, err := s.repo.Student.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	filters, err := invoiceFilters(req)
	if err != nil {
		return nil, 0, err
	}
	filters.StudentID = student.ID
	return s.listInvoices(ctx, filters, &req.ListQuery)
}

func (s *financeService) listInvoices(ctx context.Context, filters *repository.InvoiceListFilters, q *dto.ListQuery) ([]dto.InvoiceResponse, int64, error) {
	invoices, total, err := s.repo.Invoice.List(ctx, filters, listParams(q))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list invoices", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	paid, err := s.repo.Payment.SumCompletedByInvoices(ctx, ids)
	if err != nil {
		s.logger.Error("failed to sum invoice payments", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		result = append(result, *toInvoiceResponse(&invoices[i], paid[invoices[i].ID], nil))
	}
	return result, total, nil
}

// ────────────────────── UpdateInvoice ──────────────────────

// UpdateInvoice edits a pending or overdue invoice. New items replace the old
// ones and the total is recomputed; moving the due date of an overdue invoice
// to today or later puts it back to pending.
func (s *financeService) UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest, callerID string) (*dto.InvoiceResponse, error) {
	if fields := validation.InvoiceUpdate(req); len(fields) > 0 {
		return nil, fields
	}

	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Editable() {
		return nil, ErrInvoiceNotEditable
	}

	payments, err := s.repo.Payment.ListByInvoice(ctx, id)
	if err != nil {
		s.logger.Error("failed to list invoice payments", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	paid := completedSum(payments)

	var newItems []model.InvoiceItem
	if req.Items != nil {
		var total float64
		newItems, total = buildItems(req.Items)
		if total+kesEpsilon < paid {
			return nil, ErrInvoiceTotalBelowPaid
		}
		invoice.TotalKES = total
	}
	if req.DueDate != nil {
		due, err := validation.ParseDate(*req.DueDate)
		if err != nil {
			return nil, validation.FieldErrors{"due_date": "must be a date in YYYY-MM-DD format"}
		}
		invoice.DueDate = due
		if invoice.Status == model.InvoiceStatusOverdue && !due.Before(today(time.Now())) {
			invoice.Status = model.InvoiceStatusPending
		}
	}
	if req.Notes != nil {
		invoice.Notes = trimmedOrNil(req.Notes)
	}
	// a lowered total can be covered by what was already collected
	if paid > 0 && paid >= invoice.TotalKES-kesEpsilon {
		invoice.Status = model.InvoiceStatusPaid
	}
	invoice.UpdatedBy = &callerID

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Invoice.Update(ctx, invoice); err != nil {
			return err
		}
		if newItems != nil {
			return txRepo.Invoice.ReplaceItems(ctx, invoice.ID, newItems)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrConcurrentUpdate
		}
		s.logger.Error("failed to update invoice", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if newItems != nil {
		invoice.Items = newItems
	}

	s.invalidateStats(ctx)
	return toInvoiceResponse(invoice, paid, payments), nil
}

// ────────────────────── CancelInvoice ──────────────────────

// CancelInvoice backs DELETE: invoices are never removed, an unpaid one is
// marked cancelled
func (s *financeService) CancelInvoice(ctx context.Context, id, callerID string) error {
	invoice, err := s.getInvoice(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.Payment.CountByInvoice(ctx, id)
	if err != nil {
		s.logger.Error("failed to count invoice payments", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrInvoiceHasPayments
	}
	if !invoice.Editable() {
		return ErrInvoiceNotEditable
	}

	if err := s.repo.Invoice.SetStatus(ctx, id, model.InvoiceStatusCancelled, &callerID); err != nil {
		s.logger.Error("failed to cancel invoice", zap.String("id", id), zap.Error(err))
		return err
	}

	s.invalidateStats(ctx)
	s.logger.Info("invoice cancelled", zap.String("id", id), zap.String("by", callerID))
	return nil
}

// ────────────────────── GenerateInvoices ──────────────────────

// GenerateInvoices bills students of a program from its fee structure. An
// empty StudentIDs means every active student of the program; requested
// students that cannot be billed are reported as skipped. All invoices are
// created in one transaction.
func (s *financeService) GenerateInvoices(ctx context.Context, programID string, req *dto.GenerateInvoicesRequest, callerID string) (*dto.GenerateInvoicesResponse, error) {
	if fields := validation.Struct(req); len(fields) > 0 {
		return nil, fields
	}
	due, err := validation.ParseDate(req.DueDate)
	if err != nil {
		return nil, validation.FieldErrors{"due_date": "must be a date in YYYY-MM-DD format"}
	}

	program, err := s.repo.Program.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("failed to load program", zap.String("program_id", programID), zap.Error(err))
		return nil, err
	}
	lines := program.Fees.Data().Lines()
	if len(lines) == 0 {
		return nil, ErrProgramHasNoFees
	}

	candidates, skipped, err := s.billableStudents(ctx, program.ID, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	resp := &dto.GenerateInvoicesResponse{
		Skipped:  skipped,
		Invoices: []dto.InvoiceResponse{},
	}

	var invoices []*model.Invoice
	now := time.Now()
	for i := range candidates {
		st := &candidates[i]
		exists, err := s.repo.Invoice.HasOpenInvoiceDue(ctx, st.ID, due)
		if err != nil {
			s.logger.Error("failed to check existing invoices", zap.String("student_id", st.ID), zap.Error(err))
			return nil, err
		}
		if exists {
			resp.Skipped = append(resp.Skipped, dto.SkippedStudent{StudentID: st.ID, Reason: "already invoiced for this due date"})
			continue
		}

		items := make([]model.InvoiceItem, 0, len(lines))
		for pos, l := range lines {
			items = append(items, model.InvoiceItem{Position: pos, Item: l.Item, AmountKES: model.RoundKES(l.Amount)})
		}
		inv := &model.Invoice{
			InvoiceNumber: s.nextInvoiceNumber(now),
			StudentID:     st.ID,
			TotalKES:      program.Fees.Data().Total(),
			Status:        model.InvoiceStatusPending,
			DueDate:       due,
			Notes:         trimmedOrNil(req.Notes),
			Items:         items,
		}
		inv.CreatedBy = &callerID
		invoices = append(invoices, inv)
	}

	if len(invoices) > 0 {
		err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
			for _, inv := range invoices {
				if err := txRepo.Invoice.Create(ctx, inv); err != nil {
					return fmt.Errorf("invoice for student %s: %w", inv.StudentID, err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("failed to generate invoices", zap.String("program_id", program.ID), zap.Error(err))
			return nil, err
		}
	}

	byID := make(map[string]*model.Student, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}
	for _, inv := range invoices {
		s.publishInvoiceCreated(ctx, inv)
		inv.Student = byID[inv.StudentID]
		resp.Invoices = append(resp.Invoices, *toInvoiceResponse(inv, 0, nil))
	}
	resp.Generated = len(invoices)
	if resp.Skipped == nil {
		resp.Skipped = []dto.SkippedStudent{}
	}

	if resp.Generated > 0 {
		s.invalidateStats(ctx)
	}
	s.logger.Info("invoices generated",
		zap.String("program_id", program.ID),
		zap.Int("generated", resp.Generated),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

// billableStudents resolves the students to bill, preserving request order
func (s *financeService) billableStudents(ctx context.Context, programID string, ids []string) ([]model.Student, []dto.SkippedStudent, error) {
	if len(ids) == 0 {
		students, err := s.repo.Student.ListActiveByProgram(ctx, programID)
		if err != nil {
			s.logger.Error("failed to list program students", zap.String("program_id", programID), zap.Error(err))
			return nil, nil, err
		}
		return students, nil, nil
	}

	found, err := s.repo.Student.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load students", zap.Error(err))
		return nil, nil, err
	}
	byID := make(map[string]model.Student, len(found))
	for _, st := range found {
		byID[st.ID] = st
	}

	var (
		out     []model.Student
		skipped []dto.SkippedStudent
		seen    = make(map[string]bool, len(ids))
	)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		st, ok := byID[id]
		switch {
		case !ok:
			skipped = append(skipped, dto.SkippedStudent{StudentID: id, Reason: "student not found"})
		case st.ProgramID != programID:
			skipped = append(skipped, dto.SkippedStudent{StudentID: id, Reason: "student is not enrolled in this program"})
		case st.Status != model.StudentStatusActive:
			skipped = append(skipped, dto.SkippedStudent{StudentID: id, Reason: "student is not active"})
		default:
			out = append(out, st)
		}
	}
	return out, skipped, nil
}

// ────────────────────── RecordPayment ──────────────────────

// RecordPayment stores a payment against an invoice under a row lock on the
// invoice. A completed payment that settles the balance marks the invoice paid.
func (s *financeService) RecordPayment(ctx context.Context, req *dto.CreatePaymentRequest, callerID string) (*dto.PaymentResponse, error) {
	if fields := validation.Payment(req); len(fields) > 0 {
		return nil, fields
	}

	paidAt := time.Now()
	if req.PaidAt != nil && *req.PaidAt != "" {
		t, err := validation.ParsePaidAt(*req.PaidAt)
		if err != nil {
			return nil, validation.FieldErrors{"paid_at": "must be an RFC3339 timestamp or YYYY-MM-DD date"}
		}
		paidAt = t
	}
	status := req.Status
	if status == "" {
		status = model.PaymentStatusCompleted
	}

	var mpesaRef *string
	if req.MpesaRef != nil && strings.TrimSpace(*req.MpesaRef) != "" {
		ref := validation.NormalizeMpesaRef(*req.MpesaRef)
		mpesaRef = &ref
	}

	amount := model.RoundKES(req.AmountKES)
	payment := &model.Payment{
		InvoiceID:     req.InvoiceID,
		AmountKES:     amount,
		Method:        req.Method,
		MpesaRef:      mpesaRef,
		TransactionID: trimmedOrNil(req.TransactionID),
		PaidAt:        paidAt,
		Status:        status,
		RecordedBy:    &callerID,
	}

	var invoice *model.Invoice
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		inv, err := txRepo.Invoice.GetByIDForUpdate(ctx, req.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validation.FieldErrors{"invoice_id": "invoice does not exist"}
			}
			return err
		}
		invoice = inv
		if inv.Status == model.InvoiceStatusCancelled || inv.Status == model.InvoiceStatusPaid {
			return ErrInvoiceNotPayable
		}

		if mpesaRef != nil {
			if _, err := txRepo.Payment.GetByMpesaRef(ctx, *mpesaRef); err == nil {
				return ErrDuplicateMpesaRef
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		paid, err := txRepo.Payment.SumCompleted(ctx, inv.ID)
		if err != nil {
			return err
		}
		if status == model.PaymentStatusCompleted && paid+amount > inv.TotalKES+kesEpsilon {
			return ErrOverpayment
		}

		if err := txRepo.Payment.Create(ctx, payment); err != nil {
			return err
		}

		if status == model.PaymentStatusCompleted && paid+amount >= inv.TotalKES-kesEpsilon {
			if err := txRepo.Invoice.SetStatus(ctx, inv.ID, model.InvoiceStatusPaid, &callerID); err != nil {
				return err
			}
			inv.Status = model.InvoiceStatusPaid
		}
		return nil
	})
	if err != nil {
		if isPaymentRejection(err) {
			return nil, err
		}
		s.logger.Error("failed to record payment", zap.String("invoice_id", req.InvoiceID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("invoice_id", invoice.ID),
		zap.Float64("amount_kes", amount),
		zap.String("invoice_status", invoice.Status),
	)

	s.invalidateStats(ctx)
	publish(ctx, s.bus, s.logger, events.TopicPaymentRecorded, events.PaymentRecorded{
		PaymentID:     payment.ID,
		InvoiceID:     invoice.ID,
		AmountKES:     amount,
		Method:        payment.Method,
		InvoiceStatus: invoice.Status,
	})

	payment.Invoice = invoice
	return toPaymentResponse(payment), nil
}

func isPaymentRejection(err error) bool {
	if _, ok := validation.AsFieldErrors(err); ok {
		return true
	}
	return errors.Is(err, ErrInvoiceNotPayable) ||
		errors.Is(err, ErrDuplicateMpesaRef) ||
		errors.Is(err, ErrOverpayment)
}

// ────────────────────── payments read side ──────────────────────

func (s *financeService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	payment, err := s.repo.Payment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.logger.Error("failed to load payment", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

func (s *financeService) ListPayments(ctx context.Context, req *dto.PaymentListRequest) ([]dto.PaymentResponse, int64, error) {
	filters := &repository.PaymentListFilters{
		InvoiceID: req.InvoiceID,
		Method:    req.Method,
		Status:    req.Status,
		Search:    req.GetSearch(),
	}

	payments, total, err := s.repo.Payment.List(ctx, filters, listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list payments", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, *toPaymentResponse(&payments[i]))
	}
	return result, total, nil
}

// ────────────────────── Statistics ──────────────────────

// Statistics dashboard totals, served from the cache when present
func (s *financeService) Statistics(ctx context.Context) (*dto.FinanceStatistics, error) {
	if s.cache != nil {
		var cached dto.FinanceStatistics
		err := s.cache.GetJSON(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("failed to read statistics cache", zap.Error(err))
		}
	}

	byStatus, err := s.repo.Invoice.TotalsByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate invoices", zap.Error(err))
		return nil, err
	}
	byMethod, err := s.repo.Payment.TotalsByMethod(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate payments", zap.Error(err))
		return nil, err
	}

	stats := &dto.FinanceStatistics{
		InvoiceCounts: map[string]int64{
			model.InvoiceStatusPending:   0,
			model.InvoiceStatusPaid:      0,
			model.InvoiceStatusOverdue:   0,
			model.InvoiceStatusCancelled: 0,
		},
		CollectedByMethod: map[string]float64{},
		GeneratedAt:       formatTime(time.Now()),
	}
	for _, row := range byStatus {
		stats.InvoiceCounts[row.Status] = row.Count
		if row.Status != model.InvoiceStatusCancelled {
			stats.TotalInvoiced += row.Total
		}
	}
	for _, row := range byMethod {
		stats.CollectedByMethod[row.Method] = model.RoundKES(row.Total)
		stats.TotalCollected += row.Total
	}
	stats.TotalInvoiced = model.RoundKES(stats.TotalInvoiced)
	stats.TotalCollected = model.RoundKES(stats.TotalCollected)
	stats.TotalOutstanding = balance(stats.TotalInvoiced, stats.TotalCollected)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, s.cfg.StatisticsCacheTTL); err != nil {
			s.logger.Warn("failed to cache statistics", zap.Error(err))
		}
	}
	return stats, nil
}

// ────────────────────── MarkOverdueInvoices ──────────────────────

// MarkOverdueInvoices flips pending invoices due before now's date to overdue
func (s *financeService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.Invoice.MarkOverdue(ctx, today(now))
	if err != nil {
		s.logger.Error("failed to mark overdue invoices", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.invalidateStats(ctx)
		s.logger.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

// ── helpers ──

func (s *financeService) getInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.repo.Invoice.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("failed to load invoice", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return invoice, nil
}

// nextInvoiceNumber INV-202501-3F9A1C2B
func (s *financeService) nextInvoiceNumber(now time.Time) string {
	prefix := s.cfg.InvoicePrefix
	if prefix == "" {
		prefix = "INV"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("200601"), suffix)
}

func (s *financeService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, financeCacheTag); err != nil {
		s.logger.Warn("failed to invalidate finance cache", zap.Error(err))
	}
}

func (s *financeService) publishInvoiceCreated(ctx context.Context, inv *model.Invoice) {
	publish(ctx, s.bus, s.logger, events.TopicInvoiceCreated, events.InvoiceCreated{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		StudentID:     inv.StudentID,
		TotalKES:      inv.TotalKES,
		DueDate:       formatDate(inv.DueDate),
	})
}

// buildItems positions lines in request order and sums them
func buildItems(reqItems []dto.InvoiceItemRequest) ([]model.InvoiceItem, float64) {
	items := make([]model.InvoiceItem, 0, len(reqItems))
	var total float64
	for i, it := range reqItems {
		amount := model.RoundKES(it.AmountKES)
		items = append(items, model.InvoiceItem{
			Position:    i,
			Item:        strings.TrimSpace(it.Item),
			AmountKES:   amount,
			Description: trimmedOrNil(it.Description),
		})
		total += amount
	}
	return items, model.RoundKES(total)
}

func invoiceFilters(req *dto.InvoiceListRequest) (*repository.InvoiceListFilters, error) {
	filters := &repository.InvoiceListFilters{
		Status:    req.Status,
		StudentID: req.StudentID,
		Search:    req.GetSearch(),
	}
	fields := validation.FieldErrors{}
	if req.DueFrom != "" {
		t, err := validation.ParseDate(req.DueFrom)
		if err != nil {
			fields.Add("due_from", "must be a date in YYYY-MM-DD format")
		} else {
			filters.DueFrom = &t
		}
	}
	if req.DueTo != "" {
		t, err := validation.ParseDate(req.DueTo)
		if err != nil {
			fields.Add("due_to", "must be a date in YYYY-MM-DD format")
		} else {
			filters.DueTo = &t
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return filters, nil
}

func completedSum(payments []model.Payment) float64 {
	var sum float64
	for _, p := range payments {
		if p.Status == model.PaymentStatusCompleted {
			sum += p.AmountKES
		}
	}
	return model.RoundKES(sum)
}

// today midnight UTC of t's calendar date
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
