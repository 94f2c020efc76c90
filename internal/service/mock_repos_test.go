package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	pkgerrors "imtr/backend/pkg/errors"
)

// ── in-memory repository aggregate ──

type mockRepos struct {
	users     *mockUserRepo
	students  *mockStudentRepo
	approvals *mockApprovalRepo
	programs  *mockProgramRepo
	courses   *mockCourseRepo
	invoices  *mockInvoiceRepo
	payments  *mockPaymentRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		users:     newMockUserRepo(),
		students:  newMockStudentRepo(),
		approvals: newMockApprovalRepo(),
		programs:  newMockProgramRepo(),
		courses:   newMockCourseRepo(),
		invoices:  newMockInvoiceRepo(),
		payments:  newMockPaymentRepo(),
	}
	m.users.approvals = m.approvals
	m.students.users = m.users
	m.invoices.students = m.students
	repo := &repository.Repository{
		User:     m.users,
		Student:  m.students,
		Approval: m.approvals,
		Program:  m.programs,
		Course:   m.courses,
		Invoice:  m.invoices,
		Payment:  m.payments,
	}
	return repo, m
}

var nopLogger = zap.NewNop()

func paginate[T any](items []T, p repository.ListParams) ([]T, int64) {
	total := int64(len(items))
	if p.Offset >= len(items) {
		return []T{}, total
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end], total
}

func checkSort(p repository.ListParams, allowed ...string) error {
	if p.SortBy == "" {
		return nil
	}
	for _, a := range allowed {
		if a == p.SortBy {
			return nil
		}
	}
	return repository.ErrInvalidSortField
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[string]*model.User
	approvals *mockApprovalRepo
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Profile != nil {
		user.Profile.UserID = user.ID
	}
	user.Version = 1
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) NationalIDTaken(_ context.Context, nationalID, excludeUserID string) (bool, error) {
	for _, u := range m.users {
		if u.ID == excludeUserID || u.Profile == nil || u.Profile.NationalID == nil {
			continue
		}
		if *u.Profile.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	user.Version++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SaveProfile(_ context.Context, profile *model.UserProfile) error {
	if u, ok := m.users[profile.UserID]; ok {
		u.Profile = profile
	}
	return nil
}

func (m *mockUserRepo) SetStatus(_ context.Context, id, status, _ string) error {
	if u, ok := m.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (m *mockUserRepo) TransitionStatus(_ context.Context, id, role, from, to, _ string) error {
	u, ok := m.users[id]
	if !ok || u.Role != role || u.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	u.Status = to
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) sorted() []model.User {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockUserRepo) List(_ context.Context, f *repository.UserListFilters, p repository.ListParams) ([]model.User, int64, error) {
	if err := checkSort(p, "created_at", "email", "role", "status"); err != nil {
		return nil, 0, err
	}
	var out []model.User
	for _, u := range m.sorted() {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.EmailVerified != nil && u.EmailVerified != *f.EmailVerified {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, u)
	}
	page, total := paginate(out, p)
	return page, total, nil
}

func (m *mockUserRepo) ListPending(_ context.Context, search string, p repository.ListParams) ([]model.User, int64, error) {
	if err := checkSort(p, "created_at", "email"); err != nil {
		return nil, 0, err
	}
	var out []model.User
	for _, u := range m.sorted() {
		if u.Role != model.RoleStudent || u.Status != model.UserStatusPending {
			continue
		}
		if m.approvals != nil && m.approvals.byUser(u.ID) != nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(search)) {
			continue
		}
		out = append(out, u)
	}
	page, total := paginate(out, p)
	return page, total, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	users    *mockUserRepo
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) withUser(s *model.Student) *model.Student {
	if s.User == nil && m.users != nil {
		s.User = m.users.users[s.UserID]
	}
	return s
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.StudentNumber == student.StudentNumber {
			return fmt.Errorf("duplicate student number %s", student.StudentNumber)
		}
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = time.Now()
	m.students[student.ID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.withUser(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return m.withUser(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) SetStatus(_ context.Context, id, status, _ string) error {
	if s, ok := m.students[id]; ok {
		s.Status = status
	}
	return nil
}

func (m *mockStudentRepo) sorted() []model.Student {
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, *m.withUser(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNumber < out[j].StudentNumber })
	return out
}

func (m *mockStudentRepo) List(_ context.Context, f *repository.StudentListFilters, p repository.ListParams) ([]model.Student, int64, error) {
	if err := checkSort(p, "created_at", "student_number", "enrollment_year", "status"); err != nil {
		return nil, 0, err
	}
	var out []model.Student
	for _, s := range m.sorted() {
		if f.ProgramID != "" && s.ProgramID != f.ProgramID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.EnrollmentYear != 0 && s.EnrollmentYear != f.EnrollmentYear {
			continue
		}
		if f.ScholarshipType != "" && s.ScholarshipType != f.ScholarshipType {
			continue
		}
		out = append(out, s)
	}
	page, total := paginate(out, p)
	return page, total, nil
}

func (m *mockStudentRepo) ListActiveByProgram(_ context.Context, programID string) ([]model.Student, error) {
	var out []model.Student
	for _, s := range m.sorted() {
		if s.ProgramID == programID && s.Status == model.StudentStatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) ListByIDs(_ context.Context, ids []string) ([]model.Student, error) {
	var out []model.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, *m.withUser(s))
		}
	}
	return out, nil
}

func (m *mockStudentRepo) CountByProgram(_ context.Context, programID string) (int64, error) {
	var n int64
	for _, s := range m.students {
		if s.ProgramID == programID {
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) MaxSequence(_ context.Context, prefix string) (int, error) {
	max := 0
	for _, s := range m.students {
		if !strings.HasPrefix(s.StudentNumber, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(s.StudentNumber, prefix)); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

// ── Mock ApprovalRepository ──

type mockApprovalRepo struct {
	approvals []*model.StudentApproval
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{}
}

func (m *mockApprovalRepo) byUser(userID string) *model.StudentApproval {
	for _, a := range m.approvals {
		if a.UserID == userID {
			return a
		}
	}
	return nil
}

func (m *mockApprovalRepo) Create(_ context.Context, approval *model.StudentApproval) error {
	if m.byUser(approval.UserID) != nil {
		return fmt.Errorf("duplicate approval for %s", approval.UserID)
	}
	approval.ID = uuid.NewString()
	m.approvals = append(m.approvals, approval)
	return nil
}

func (m *mockApprovalRepo) GetByUserID(_ context.Context, userID string) (*model.StudentApproval, error) {
	if a := m.byUser(userID); a != nil {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApprovalRepo) List(_ context.Context, decision, _ string, p repository.ListParams) ([]model.StudentApproval, int64, error) {
	if err := checkSort(p, "created_at", "reviewed_at", "decision"); err != nil {
		return nil, 0, err
	}
	var out []model.StudentApproval
	for _, a := range m.approvals {
		if decision != "" && a.Decision != decision {
			continue
		}
		out = append(out, *a)
	}
	page, total := paginate(out, p)
	return page, total, nil
}

// ── Mock ProgramRepository ──

type mockProgramRepo struct {
	programs map[string]*model.Program
}

func newMockProgramRepo() *mockProgramRepo {
	return &mockProgramRepo{programs: make(map[string]*model.Program)}
}

func (m *mockProgramRepo) Create(_ context.Context, program *model.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	program.Version = 1
	m.programs[program.ID] = program
	return nil
}

func (m *mockProgramRepo) GetByID(_ context.Context, id string) (*model.Program, error) {
	if p, ok := m.programs[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Program, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProgramRepo) GetByCode(_ context.Context, code string) (*model.Program, error) {
	for _, p := range m.programs {
		if strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) Update(_ context.Context, program *model.Program) error {
	program.Version++
	m.programs[program.ID] = program
	return nil
}

func (m *mockProgramRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.programs, id)
	return nil
}

func (m *mockProgramRepo) List(_ context.Context, f *repository.ProgramListFilters, p repository.ListParams) ([]model.Program, int64, error) {
	if err := checkSort(p, "created_at", "name", "code", "level", "duration_months"); err != nil {
		return nil, 0, err
	}
	var out []model.Program
	for _, pr := range m.programs {
		if f.Level != "" && pr.Level != f.Level {
			continue
		}
		if f.Status != "" && pr.Status != f.Status {
			continue
		}
		out = append(out, *pr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	page, total := paginate(out, p)
	return page, total, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.Version = 1
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByProgramAndCode(_ context.Context, programID, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.ProgramID == programID && strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	course.Version++
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) List(_ context.Context, f *repository.CourseListFilters, p repository.ListParams) ([]model.Course, int64, error) {
	if err := checkSort(p, "created_at", "code", "title", "year", "semester", "credits"); err != nil {
		return nil, 0, err
	}
	var out []model.Course
	for _, c := range m.courses {
		if f.ProgramID != "" && c.ProgramID != f.ProgramID {
			continue
		}
		if f.Year != 0 && c.Year != f.Year {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	page, total := paginate(out, p)
	return page, total, nil
}

// ── Mock InvoiceRepository ──

type mockInvoiceRepo struct {
	invoices map[string]*model.Invoice
	students *mockStudentRepo
	failOn   string // student id whose Create fails
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[string]*model.Invoice)}
}

func (m *mockInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	if m.failOn != "" && invoice.StudentID == m.failOn {
		return fmt.Errorf("insert failed")
	}
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}
	invoice.CreatedAt = time.Now()
	invoice.Version = 1
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id string) (*model.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if inv.Student == nil && m.students != nil {
		if s, ok := m.students.students[inv.StudentID]; ok {
			inv.Student = m.students.withUser(s)
		}
	}
	return inv, nil
}

func (m *mockInvoiceRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	invoice.Version++
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *mockInvoiceRepo) ReplaceItems(_ context.Context, invoiceID string, items []model.InvoiceItem) error {
	if inv, ok := m.invoices[invoiceID]; ok {
		for i := range items {
			items[i].InvoiceID = invoiceID
		}
		inv.Items = items
	}
	return nil
}

func (m *mockInvoiceRepo) SetStatus(_ context.Context, id, status string, _ *string) error {
	if inv, ok := m.invoices[id]; ok {
		inv.Status = status
	}
	return nil
}

func (m *mockInvoiceRepo) HasOpenInvoiceDue(_ context.Context, studentID string, due time.Time) (bool, error) {
	for _, inv := range m.invoices {
		if inv.StudentID == studentID && inv.DueDate.Equal(due) && inv.Status != model.InvoiceStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvoiceRepo) filtered(f *repository.InvoiceListFilters) []model.Invoice {
	var out []model.Invoice
	for _, inv := range m.invoices {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.StudentID != "" && inv.StudentID != f.StudentID {
			continue
		}
		if f.DueFrom != nil && inv.DueDate.Before(*f.DueFrom) {
			continue
		}
		if f.DueTo != nil && inv.DueDate.After(*f.DueTo) {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockInvoiceRepo) List(_ context.Context, f *repository.InvoiceListFilters, p repository.ListParams) ([]model.Invoice, int64, error) {
	if err := checkSort(p, "created_at", "invoice_number", "due_date", "total_kes", "status"); err != nil {
		return nil, 0, err
	}
	page, total := paginate(m.filtered(f), p)
	return page, total, nil
}

func (m *mockInvoiceRepo) ListForExport(_ context.Context, f *repository.InvoiceListFilters, max int) ([]model.Invoice, error) {
	out := m.filtered(f)
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (m *mockInvoiceRepo) ListOpen(_ context.Context, studentID string) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range m.invoices {
		if inv.Status != model.InvoiceStatusPending && inv.Status != model.InvoiceStatusOverdue {
			continue
		}
		if studentID != "" && inv.StudentID != studentID {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *mockInvoiceRepo) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range m.invoices {
		if inv.Status == model.InvoiceStatusPending && inv.DueDate.Before(asOf) {
			inv.Status = model.InvoiceStatusOverdue
			n++
		}
	}
	return n, nil
}

func (m *mockInvoiceRepo) TotalsByStatus(_ context.Context) ([]repository.StatusTotal, error) {
	byStatus := map[string]*repository.StatusTotal{}
	for _, inv := range m.invoices {
		t, ok := byStatus[inv.Status]
		if !ok {
			t = &repository.StatusTotal{Status: inv.Status}
			byStatus[inv.Status] = t
		}
		t.Count++
		t.Total += inv.TotalKES
	}
	var out []repository.StatusTotal
	for _, t := range byStatus {
		out = append(out, *t)
	}
	return out, nil
}

// ── Mock PaymentRepository ──

type mockPaymentRepo struct {
	payments []*model.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{}
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	payment.ID = uuid.NewString()
	payment.CreatedAt = time.Now()
	m.payments = append(m.payments, payment)
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) GetByMpesaRef(_ context.Context, ref string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.MpesaRef != nil && *p.MpesaRef == ref {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) CountByInvoice(_ context.Context, invoiceID string) (int64, error) {
	var n int64
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			n++
		}
	}
	return n, nil
}

func (m *mockPaymentRepo) SumCompleted(_ context.Context, invoiceID string) (float64, error) {
	var sum float64
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID && p.Status == model.PaymentStatusCompleted {
			sum += p.AmountKES
		}
	}
	return sum, nil
}

func (m *mockPaymentRepo) SumCompletedByInvoices(ctx context.Context, invoiceIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(invoiceIDs))
	for _, id := range invoiceIDs {
		sum, _ := m.SumCompleted(ctx, id)
		if sum > 0 {
			out[id] = sum
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) TotalsByMethod(_ context.Context) ([]repository.MethodTotal, error) {
	byMethod := map[string]float64{}
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusCompleted {
			byMethod[p.Method] += p.AmountKES
		}
	}
	var out []repository.MethodTotal
	for method, total := range byMethod {
		out = append(out, repository.MethodTotal{Method: method, Total: total})
	}
	return out, nil
}

func (m *mockPaymentRepo) List(_ context.Context, f *repository.PaymentListFilters, p repository.ListParams) ([]model.Payment, int64, error) {
	if err := checkSort(p, "created_at", "paid_at", "amount_kes", "method"); err != nil {
		return nil, 0, err
	}
	var out []model.Payment
	for _, pm := range m.payments {
		if f.InvoiceID != "" && pm.InvoiceID != f.InvoiceID {
			continue
		}
		if f.Method != "" && pm.Method != f.Method {
			continue
		}
		if f.Status != "" && pm.Status != f.Status {
			continue
		}
		out = append(out, *pm)
	}
	page, total := paginate(out, p)
	return page, total, nil
}

// ── fakes for infrastructure ports ──

type publishedEvent struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	f.events = append(f.events, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (f *fakePublisher) topics() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.topic)
	}
	return out
}

type fakeTokenStore struct {
	revoked map[string]time.Duration
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{revoked: make(map[string]time.Duration)}
}

func (f *fakeTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}
