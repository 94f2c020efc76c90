package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"imtr/backend/internal/model"
	pkgerrors "imtr/backend/pkg/errors"
)

// InvoiceListFilters filters of GET /finance/invoices
type InvoiceListFilters struct {
	Status    string
	StudentID string
	DueFrom   *time.Time
	DueTo     *time.Time
	Search    string
}

// StatusTotal invoice count and amount for one status
type StatusTotal struct {
	Status string
	Count  int64
	Total  float64
}

// InvoiceRepository invoice data access
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Invoice, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	ReplaceItems(ctx context.Context, invoiceID string, items []model.InvoiceItem) error
	SetStatus(ctx context.Context, id, status string, updatedBy *string) error
	HasOpenInvoiceDue(ctx context.Context, studentID string, due time.Time) (bool, error)
	List(ctx context.Context, filters *InvoiceListFilters, p ListParams) ([]model.Invoice, int64, error)
	ListForExport(ctx context.Context, filters *InvoiceListFilters, max int) ([]model.Invoice, error)
	ListOpen(ctx context.Context, studentID string) ([]model.Invoice, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	TotalsByStatus(ctx context.Context) ([]StatusTotal, error)
}

type invoiceRepo struct {
	db *gorm.DB
}

// NewInvoiceRepo creates an InvoiceRepository
func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

var invoiceSorts = sortColumns{
	"created_at":     "invoices.created_at",
	"due_date":       "invoices.due_date",
	"total_kes":      "invoices.total_kes",
	"invoice_number": "invoices.invoice_number",
	"status":         "invoices.status",
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("invoice_items.position ASC")
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Omit("Student").Create(invoice).Error
}

func (r *invoiceRepo) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Student.User.Profile").
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByIDForUpdate row-locks the invoice; payment recording holds the lock
// while it sums prior payments.
func (r *invoiceRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *model.Invoice) error {
	oldVersion := invoice.Version
	result := r.db.WithContext(ctx).
		Model(invoice).
		Omit("Items", "Student").
		Where("version = ?", oldVersion).
		Updates(map[string]interface{}{
			"total_kes":  invoice.TotalKES,
			"status":     invoice.Status,
			"due_date":   invoice.DueDate,
			"notes":      invoice.Notes,
			"updated_by": invoice.UpdatedBy,
			"updated_at": time.Now(),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	invoice.Version = oldVersion + 1
	return nil
}

func (r *invoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []model.InvoiceItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return db.Create(&items).Error
}

func (r *invoiceRepo) SetStatus(ctx context.Context, id, status string, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

func (r *invoiceRepo) HasOpenInvoiceDue(ctx context.Context, studentID string, due time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("student_id = ? AND due_date = ? AND status <> ?", studentID, due, model.InvoiceStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepo) applyFilters(q *gorm.DB, filters *InvoiceListFilters) *gorm.DB {
	if filters.Status != "" {
		q = q.Where("invoices.status = ?", filters.Status)
	}
	if filters.StudentID != "" {
		q = q.Where("invoices.student_id = ?", filters.StudentID)
	}
	if filters.DueFrom != nil {
		q = q.Where("invoices.due_date >= ?", *filters.DueFrom)
	}
	if filters.DueTo != nil {
		q = q.Where("invoices.due_date <= ?", *filters.DueTo)
	}
	if filters.Search != "" {
		like := likePattern(filters.Search)
		q = q.Where(
			"invoices.invoice_number ILIKE ? OR invoices.student_id IN (SELECT id FROM students WHERE student_number ILIKE ?)",
			like, like,
		)
	}
	return q
}

func (r *invoiceRepo) List(ctx context.Context, filters *InvoiceListFilters, p ListParams) ([]model.Invoice, int64, error) {
	return listPage[model.Invoice](ctx, r.db, p, invoiceSorts, func(q *gorm.DB) *gorm.DB {
		return r.applyFilters(q, filters)
	}, "Items", "Student.User.Profile")
}

func (r *invoiceRepo) ListForExport(ctx context.Context, filters *InvoiceListFilters, max int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.applyFilters(r.db.WithContext(ctx).Model(&model.Invoice{}), filters).
		Preload("Items", orderedItems).
		Preload("Student.User.Profile").
		Order("invoices.created_at DESC").
		Limit(max).
		Find(&invoices).Error
	return invoices, err
}

// ListOpen pending and overdue invoices ordered by due date; every student
// when studentID is empty
func (r *invoiceRepo) ListOpen(ctx context.Context, studentID string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	q := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Student.User.Profile").
		Where("status IN ?", []string{model.InvoiceStatusPending, model.InvoiceStatusOverdue})
	if studentID != "" {
		q = q.Where("student_id = ?", studentID)
	}
	err := q.Order("due_date ASC").Find(&invoices).Error
	return invoices, err
}

// MarkOverdue flips pending invoices whose due date is before asOf
func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("status = ? AND due_date < ?", model.InvoiceStatusPending, asOf.Format("2006-01-02")).
		Updates(map[string]interface{}{
			"status":     model.InvoiceStatusOverdue,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *invoiceRepo) TotalsByStatus(ctx context.Context) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_kes), 0) AS total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
