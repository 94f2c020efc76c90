package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"imtr/backend/config"
	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/validation"
	"imtr/backend/pkg/events"
	"imtr/backend/pkg/redis"
)

const financeClerkID = "5d1e0c7a-3b2f-4a19-8c6d-7e8f9a0b1c2d"

func setupTestFinanceService(cache Cache) (FinanceService, *mockRepos, *fakePublisher) {
	repo, mocks := newMockRepos()
	bus := &fakePublisher{}
	cfg := testConfig()
	return NewFinanceService(&cfg.Finance, repo, cache, bus, nopLogger), mocks, bus
}

// createTestStudent enrolled student with an active user account
func createTestStudent(m *mockRepos, program *model.Program, email, number, status string) *model.Student {
	user := createTestUser(m, email, "password123", model.RoleStudent, model.UserStatusActive)
	st := &model.Student{
		UserID:          user.ID,
		ProgramID:       program.ID,
		StudentNumber:   number,
		EnrollmentYear:  2025,
		AdmissionDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		ScholarshipType: model.ScholarshipNone,
		Status:          status,
	}
	_ = m.students.Create(context.Background(), st)
	return st
}

func financeFixture(t *testing.T, svc FinanceService, m *mockRepos) (*model.Student, *dto.InvoiceResponse) {
	t.Helper()
	program := createTestProgram(m, "DIT", model.ProgramStatusActive, model.FeeStructure{Tuition: 45000, Registration: 5000})
	student := createTestStudent(m, program, "wanjiru@example.com", "DIT/2025/0001", model.StudentStatusActive)

	inv, err := svc.CreateInvoice(context.Background(), &dto.CreateInvoiceRequest{
		StudentID: student.ID,
		Items: []dto.InvoiceItemRequest{
			{Item: "Tuition", AmountKES: 10000},
			{Item: "Library", AmountKES: 500.499},
		},
		DueDate: "2030-03-31",
	}, financeClerkID)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	return student, inv
}

// ── CreateInvoice ──

func TestCreateInvoice(t *testing.T) {
	svc, m, bus := setupTestFinanceService(nil)
	student, inv := financeFixture(t, svc, m)

	if inv.TotalKES != 10500.5 {
		t.Errorf("expected total 10500.50, got %v", inv.TotalKES)
	}
	if inv.BalanceKES != 10500.5 || inv.PaidKES != 0 {
		t.Errorf("unexpected balance: paid=%v balance=%v", inv.PaidKES, inv.BalanceKES)
	}
	if inv.Status != model.InvoiceStatusPending || inv.DueDate != "2030-03-31" {
		t.Errorf("unexpected invoice: %+v", inv)
	}
	if !strings.HasPrefix(inv.InvoiceNumber, "INV-") || len(inv.InvoiceNumber) != len("INV-202501-ABCDEF12") {
		t.Errorf("unexpected invoice number %q", inv.InvoiceNumber)
	}
	if inv.StudentNumber != student.StudentNumber || inv.StudentName != "Amina Odhiambo" {
		t.Errorf("student summary missing: %+v", inv)
	}
	if len(inv.Items) != 2 || inv.Items[0].Item != "Tuition" {
		t.Errorf("items should keep request order, got %+v", inv.Items)
	}
	if got := bus.topics(); len(got) != 1 || got[0] != events.TopicInvoiceCreated {
		t.Errorf("expected invoice.created, got %v", got)
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	program := createTestProgram(m, "DIT", model.ProgramStatusActive, model.FeeStructure{Tuition: 45000})
	student := createTestStudent(m, program, "a@example.com", "DIT/2025/0001", model.StudentStatusActive)

	_, err := svc.CreateInvoice(context.Background(), &dto.CreateInvoiceRequest{
		StudentID: student.ID,
		Items: []dto.InvoiceItemRequest{
			{Item: "Tuition", AmountKES: 1000},
			{Item: "", AmountKES: 0},
		},
		DueDate: "2030-03-31",
	}, financeClerkID)
	fields, ok := validation.AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if fields["item_1"] == "" || fields["amount_1"] == "" {
		t.Errorf("expected item_1 and amount_1 errors, got %v", fields)
	}
	if _, bad := fields["amount_0"]; bad {
		t.Error("first line is valid")
	}

	_, err = svc.CreateInvoice(context.Background(), &dto.CreateInvoiceRequest{
		StudentID: "0b8e5a52-7a39-4c36-9d57-6f0a5c1c2b11",
		Items:     []dto.InvoiceItemRequest{{Item: "Tuition", AmountKES: 1000}},
		DueDate:   "2030-03-31",
	}, financeClerkID)
	fields, ok = validation.AsFieldErrors(err)
	if !ok || fields["student_id"] == "" {
		t.Errorf("expected student_id error for an unknown student, got %v", err)
	}

	_, err = svc.CreateInvoice(context.Background(), &dto.CreateInvoiceRequest{
		StudentID: student.ID,
		DueDate:   "2030-03-31",
	}, financeClerkID)
	fields, ok = validation.AsFieldErrors(err)
	if !ok || fields["items"] == "" {
		t.Errorf("expected items error for an empty invoice, got %v", err)
	}
}

// ── RecordPayment ──

func mpesaPayment(invoiceID string, amount float64, ref string) *dto.CreatePaymentRequest {
	return &dto.CreatePaymentRequest{
		InvoiceID: invoiceID,
		AmountKES: amount,
		Method:    model.PaymentMethodMpesa,
		MpesaRef:  ptr(ref),
	}
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	svc, m, bus := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	first, err := svc.RecordPayment(ctx, mpesaPayment(inv.ID, 5000, "qab1cd2ef3"), financeClerkID)
	if err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if first.InvoiceStatus != model.InvoiceStatusPending {
		t.Errorf("partial payment keeps the invoice pending, got %s", first.InvoiceStatus)
	}
	if first.MpesaRef == nil || *first.MpesaRef != "QAB1CD2EF3" {
		t.Errorf("mpesa ref should be upper-cased, got %v", first.MpesaRef)
	}

	second, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID,
		AmountKES: 5500.5,
		Method:    model.PaymentMethodCash,
	}, financeClerkID)
	if err != nil {
		t.Fatalf("second payment failed: %v", err)
	}
	if second.InvoiceStatus != model.InvoiceStatusPaid {
		t.Errorf("settling the balance marks the invoice paid, got %s", second.InvoiceStatus)
	}

	got, err := svc.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if got.PaidKES != 10500.5 || got.BalanceKES != 0 || len(got.Payments) != 2 {
		t.Errorf("unexpected invoice after payments: paid=%v balance=%v payments=%d", got.PaidKES, got.BalanceKES, len(got.Payments))
	}

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 1, Method: model.PaymentMethodCash,
	}, financeClerkID); !errors.Is(err, ErrInvoiceNotPayable) {
		t.Errorf("paid invoice should not accept payments, got %v", err)
	}

	paymentEvents := 0
	for _, topic := range bus.topics() {
		if topic == events.TopicPaymentRecorded {
			paymentEvents++
		}
	}
	if paymentEvents != 2 {
		t.Errorf("expected 2 payment events, got %d", paymentEvents)
	}
}

func TestRecordPayment_Rejections(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, mpesaPayment(inv.ID, 20000, "QAB1CD2EF3"), financeClerkID); !errors.Is(err, ErrOverpayment) {
		t.Errorf("expected ErrOverpayment, got %v", err)
	}

	if _, err := svc.RecordPayment(ctx, mpesaPayment(inv.ID, 100, "QAB1CD2EF3"), financeClerkID); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, mpesaPayment(inv.ID, 100, "qab1cd2ef3"), financeClerkID); !errors.Is(err, ErrDuplicateMpesaRef) {
		t.Errorf("expected ErrDuplicateMpesaRef, got %v", err)
	}

	_, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 100, Method: model.PaymentMethodMpesa,
	}, financeClerkID)
	if fields, ok := validation.AsFieldErrors(err); !ok || fields["mpesa_ref"] == "" {
		t.Errorf("mpesa payments need a reference, got %v", err)
	}

	_, err = svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: "0b8e5a52-7a39-4c36-9d57-6f0a5c1c2b11", AmountKES: 100, Method: model.PaymentMethodCash,
	}, financeClerkID)
	if fields, ok := validation.AsFieldErrors(err); !ok || fields["invoice_id"] == "" {
		t.Errorf("expected invoice_id error, got %v", err)
	}
}

func TestRecordPayment_PendingPaymentDoesNotSettle(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)

	resp, err := svc.RecordPayment(context.Background(), &dto.CreatePaymentRequest{
		InvoiceID: inv.ID,
		AmountKES: 10500.5,
		Method:    model.PaymentMethodBankTransfer,
		Status:    model.PaymentStatusPending,
	}, financeClerkID)
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if resp.InvoiceStatus != model.InvoiceStatusPending {
		t.Errorf("a pending payment must not settle the invoice, got %s", resp.InvoiceStatus)
	}
}

// ── Update / Cancel ──

func TestUpdateInvoice(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 8000, Method: model.PaymentMethodCash,
	}, financeClerkID); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	_, err := svc.UpdateInvoice(ctx, inv.ID, &dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Item: "Tuition", AmountKES: 5000}},
	}, financeClerkID)
	if !errors.Is(err, ErrInvoiceTotalBelowPaid) {
		t.Errorf("expected ErrInvoiceTotalBelowPaid, got %v", err)
	}

	updated, err := svc.UpdateInvoice(ctx, inv.ID, &dto.UpdateInvoiceRequest{
		Items:   []dto.InvoiceItemRequest{{Item: "Tuition", AmountKES: 12000}},
		DueDate: ptr("2030-06-30"),
		Notes:   ptr("second term"),
	}, financeClerkID)
	if err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}
	if updated.TotalKES != 12000 || updated.BalanceKES != 4000 || updated.DueDate != "2030-06-30" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if len(m.invoices.invoices[inv.ID].Items) != 1 {
		t.Error("items should be replaced")
	}
}

func TestUpdateInvoice_OverdueBackToPending(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)
	m.invoices.invoices[inv.ID].Status = model.InvoiceStatusOverdue

	future := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	updated, err := svc.UpdateInvoice(context.Background(), inv.ID, &dto.UpdateInvoiceRequest{DueDate: &future}, financeClerkID)
	if err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}
	if updated.Status != model.InvoiceStatusPending {
		t.Errorf("expected pending after extending the due date, got %s", updated.Status)
	}
}

func TestUpdateInvoice_LoweredToPaidAmountSettles(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 8000, Method: model.PaymentMethodCash,
	}, financeClerkID); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	updated, err := svc.UpdateInvoice(ctx, inv.ID, &dto.UpdateInvoiceRequest{
		Items: []dto.InvoiceItemRequest{{Item: "Tuition", AmountKES: 8000}},
	}, financeClerkID)
	if err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}
	if updated.Status != model.InvoiceStatusPaid || updated.BalanceKES != 0 {
		t.Fatalf("expected a settled invoice, got status=%s balance=%v", updated.Status, updated.BalanceKES)
	}
	if got := m.invoices.invoices[inv.ID].Status; got != model.InvoiceStatusPaid {
		t.Errorf("stored status = %s, want paid", got)
	}

	_, err = svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 1, Method: model.PaymentMethodCash,
	}, financeClerkID)
	if !errors.Is(err, ErrInvoiceNotPayable) {
		t.Errorf("expected ErrInvoiceNotPayable, got %v", err)
	}

	if _, err := svc.MarkOverdueInvoices(ctx, time.Now().AddDate(5, 0, 0)); err != nil {
		t.Fatalf("MarkOverdueInvoices failed: %v", err)
	}
	if got := m.invoices.invoices[inv.ID].Status; got != model.InvoiceStatusPaid {
		t.Errorf("a settled invoice must not turn overdue, got %s", got)
	}
}

func TestCancelInvoice(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	student, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 100, Method: model.PaymentMethodCash,
	}, financeClerkID); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if err := svc.CancelInvoice(ctx, inv.ID, financeClerkID); !errors.Is(err, ErrInvoiceHasPayments) {
		t.Errorf("expected ErrInvoiceHasPayments, got %v", err)
	}

	other, err := svc.CreateInvoice(ctx, &dto.CreateInvoiceRequest{
		StudentID: student.ID,
		Items:     []dto.InvoiceItemRequest{{Item: "Examination", AmountKES: 1500}},
		DueDate:   "2030-04-30",
	}, financeClerkID)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if err := svc.CancelInvoice(ctx, other.ID, financeClerkID); err != nil {
		t.Fatalf("CancelInvoice failed: %v", err)
	}
	if m.invoices.invoices[other.ID].Status != model.InvoiceStatusCancelled {
		t.Error("invoice should be cancelled, not removed")
	}
	if _, err := svc.UpdateInvoice(ctx, other.ID, &dto.UpdateInvoiceRequest{Notes: ptr("x")}, financeClerkID); !errors.Is(err, ErrInvoiceNotEditable) {
		t.Errorf("cancelled invoice is not editable, got %v", err)
	}
	if err := svc.CancelInvoice(ctx, "missing", financeClerkID); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("expected ErrInvoiceNotFound, got %v", err)
	}
}

// ── GenerateInvoices ──

func TestGenerateInvoices_AllActiveStudents(t *testing.T) {
	svc, m, bus := setupTestFinanceService(nil)
	program := createTestProgram(m, "DIT", model.ProgramStatusActive, model.FeeStructure{Tuition: 45000, Registration: 5000, Library: 1000})
	createTestStudent(m, program, "a@example.com", "DIT/2025/0001", model.StudentStatusActive)
	createTestStudent(m, program, "b@example.com", "DIT/2025/0002", model.StudentStatusActive)
	createTestStudent(m, program, "c@example.com", "DIT/2025/0003", model.StudentStatusSuspended)

	resp, err := svc.GenerateInvoices(context.Background(), program.ID, &dto.GenerateInvoicesRequest{DueDate: "2030-01-31"}, financeClerkID)
	if err != nil {
		t.Fatalf("GenerateInvoices failed: %v", err)
	}
	if resp.Generated != 2 || len(resp.Invoices) != 2 || len(resp.Skipped) != 0 {
		t.Fatalf("expected 2 invoices for active students, got %+v", resp)
	}
	for _, inv := range resp.Invoices {
		if inv.TotalKES != 51000 || len(inv.Items) != 3 {
			t.Errorf("invoice should follow the fee structure, got total=%v items=%d", inv.TotalKES, len(inv.Items))
		}
	}
	if len(bus.events) != 2 {
		t.Errorf("expected one event per invoice, got %d", len(bus.events))
	}
}

func TestGenerateInvoices_SkipsStudents(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	program := createTestProgram(m, "DIT", model.ProgramStatusActive, model.FeeStructure{Tuition: 45000})
	otherProgram := createTestProgram(m, "CMS", model.ProgramStatusActive, model.FeeStructure{Tuition: 30000})
	ok := createTestStudent(m, program, "a@example.com", "DIT/2025/0001", model.StudentStatusActive)
	invoiced := createTestStudent(m, program, "b@example.com", "DIT/2025/0002", model.StudentStatusActive)
	suspended := createTestStudent(m, program, "c@example.com", "DIT/2025/0003", model.StudentStatusSuspended)
	foreign := createTestStudent(m, otherProgram, "d@example.com", "CMS/2025/0001", model.StudentStatusActive)
	missing := "0b8e5a52-7a39-4c36-9d57-6f0a5c1c2b11"
	ctx := context.Background()

	if _, err := svc.GenerateInvoices(ctx, program.ID, &dto.GenerateInvoicesRequest{
		DueDate: "2030-01-31", StudentIDs: []string{invoiced.ID},
	}, financeClerkID); err != nil {
		t.Fatalf("first generation failed: %v", err)
	}

	resp, err := svc.GenerateInvoices(ctx, program.ID, &dto.GenerateInvoicesRequest{
		DueDate:    "2030-01-31",
		StudentIDs: []string{ok.ID, invoiced.ID, suspended.ID, foreign.ID, missing, ok.ID},
	}, financeClerkID)
	if err != nil {
		t.Fatalf("GenerateInvoices failed: %v", err)
	}
	if resp.Generated != 1 || resp.Invoices[0].StudentID != ok.ID {
		t.Errorf("only the eligible student should be billed, got %+v", resp.Invoices)
	}

	reasons := map[string]string{}
	for _, s := range resp.Skipped {
		reasons[s.StudentID] = s.Reason
	}
	want := map[string]string{
		invoiced.ID:  "already invoiced for this due date",
		suspended.ID: "student is not active",
		foreign.ID:   "student is not enrolled in this program",
		missing:      "student not found",
	}
	for id, reason := range want {
		if reasons[id] != reason {
			t.Errorf("student %s: expected %q, got %q", id, reason, reasons[id])
		}
	}
	if len(resp.Skipped) != len(want) {
		t.Errorf("duplicate ids must not be reported twice, got %+v", resp.Skipped)
	}
}

func TestGenerateInvoices_ProgramErrors(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	noFees := createTestProgram(m, "FREE", model.ProgramStatusActive, model.FeeStructure{})
	ctx := context.Background()
	req := &dto.GenerateInvoicesRequest{DueDate: "2030-01-31"}

	if _, err := svc.GenerateInvoices(ctx, noFees.ID, req, financeClerkID); !errors.Is(err, ErrProgramHasNoFees) {
		t.Errorf("expected ErrProgramHasNoFees, got %v", err)
	}
	if _, err := svc.GenerateInvoices(ctx, "missing", req, financeClerkID); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("expected ErrProgramNotFound, got %v", err)
	}
	_, err := svc.GenerateInvoices(ctx, noFees.ID, &dto.GenerateInvoicesRequest{DueDate: "31-01-2030"}, financeClerkID)
	if fields, ok := validation.AsFieldErrors(err); !ok || fields["due_date"] == "" {
		t.Errorf("expected due_date error, got %v", err)
	}
}

// ── lists ──

func TestListInvoices_Filters(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	student, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 500, Method: model.PaymentMethodCard,
	}, financeClerkID); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	list, total, err := svc.ListInvoices(ctx, &dto.InvoiceListRequest{Status: model.InvoiceStatusPending})
	if err != nil || total != 1 {
		t.Fatalf("expected 1 pending invoice, got %d (%v)", total, err)
	}
	if list[0].PaidKES != 500 || list[0].BalanceKES != 10000.5 {
		t.Errorf("list rows should carry paid amounts, got paid=%v balance=%v", list[0].PaidKES, list[0].BalanceKES)
	}

	_, total, _ = svc.ListInvoices(ctx, &dto.InvoiceListRequest{DueTo: "2030-01-01"})
	if total != 0 {
		t.Errorf("due_to before the due date should exclude the invoice, got %d", total)
	}

	_, _, err = svc.ListInvoices(ctx, &dto.InvoiceListRequest{DueFrom: "March"})
	if fields, ok := validation.AsFieldErrors(err); !ok || fields["due_from"] == "" {
		t.Errorf("expected due_from error, got %v", err)
	}

	mine, total, err := svc.ListMyInvoices(ctx, student.UserID, &dto.InvoiceListRequest{})
	if err != nil || total != 1 || mine[0].ID != inv.ID {
		t.Errorf("student should see their own invoice, got %d (%v)", total, err)
	}
	if _, _, err := svc.ListMyInvoices(ctx, "not-a-student", &dto.InvoiceListRequest{}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("expected ErrStudentNotFound, got %v", err)
	}

	payments, total, err := svc.ListPayments(ctx, &dto.PaymentListRequest{InvoiceID: inv.ID})
	if err != nil || total != 1 || payments[0].Method != model.PaymentMethodCard {
		t.Errorf("unexpected payments: %+v (%v)", payments, err)
	}
	if _, err := svc.GetPayment(ctx, payments[0].ID); err != nil {
		t.Errorf("GetPayment failed: %v", err)
	}
	if _, err := svc.GetPayment(ctx, "missing"); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

// ── overdue sweep ──

func TestMarkOverdueInvoices(t *testing.T) {
	svc, m, _ := setupTestFinanceService(nil)
	_, inv := financeFixture(t, svc, m)

	n, err := svc.MarkOverdueInvoices(context.Background(), time.Date(2030, 3, 31, 18, 0, 0, 0, time.UTC))
	if err != nil || n != 0 {
		t.Errorf("invoice due today is not overdue yet, got n=%d err=%v", n, err)
	}

	n, err = svc.MarkOverdueInvoices(context.Background(), time.Date(2030, 4, 1, 8, 0, 0, 0, time.UTC))
	if err != nil || n != 1 {
		t.Fatalf("expected one overdue invoice, got n=%d err=%v", n, err)
	}
	if m.invoices.invoices[inv.ID].Status != model.InvoiceStatusOverdue {
		t.Error("invoice should be overdue")
	}
}

// ── statistics ──

func TestStatistics_CachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, nopLogger)
	if err != nil {
		t.Fatalf("redis.NewClient failed: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	svc, m, _ := setupTestFinanceService(rdb)
	student, inv := financeFixture(t, svc, m)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, &dto.CreatePaymentRequest{
		InvoiceID: inv.ID, AmountKES: 500.5, Method: model.PaymentMethodCash,
	}, financeClerkID); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalInvoiced != 10500.5 || stats.TotalCollected != 500.5 || stats.TotalOutstanding != 10000 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.InvoiceCounts[model.InvoiceStatusPending] != 1 || stats.InvoiceCounts[model.InvoiceStatusOverdue] != 0 {
		t.Errorf("unexpected counts: %v", stats.InvoiceCounts)
	}
	if _, ok := stats.InvoiceCounts[model.InvoiceStatusCancelled]; !ok {
		t.Error("every status should be reported")
	}
	if !mr.Exists(statsCacheKey) {
		t.Fatal("statistics should be cached")
	}

	// a write behind the service's back is invisible until the cache is dropped
	m.invoices.invoices[inv.ID].TotalKES = 99999
	cached, _ := svc.Statistics(ctx)
	if cached.TotalInvoiced != 10500.5 {
		t.Errorf("expected cached totals, got %v", cached.TotalInvoiced)
	}
	m.invoices.invoices[inv.ID].TotalKES = 10500.5

	if _, err := svc.CreateInvoice(ctx, &dto.CreateInvoiceRequest{
		StudentID: student.ID,
		Items:     []dto.InvoiceItemRequest{{Item: "Examination", AmountKES: 1500}},
		DueDate:   "2030-04-30",
	}, financeClerkID); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if mr.Exists(statsCacheKey) {
		t.Error("finance writes should invalidate the cache")
	}

	fresh, _ := svc.Statistics(ctx)
	if fresh.TotalInvoiced != 12000.5 || fresh.InvoiceCounts[model.InvoiceStatusPending] != 2 {
		t.Errorf("expected fresh totals, got %+v", fresh)
	}
}

func TestStatistics_WithoutCache(t *testing.T) {
	svc, _, _ := setupTestFinanceService(nil)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalInvoiced != 0 || stats.TotalOutstanding != 0 || len(stats.InvoiceCounts) != 4 {
		t.Errorf("unexpected empty statistics: %+v", stats)
	}
}
