package repository

import (
	"context"

	"gorm.io/gorm"

	"imtr/backend/internal/model"
)

// PaymentListFilters filters of GET /finance/payments
type PaymentListFilters struct {
	InvoiceID string
	Method    string
	Status    string
	Search    string
}

// MethodTotal completed amount per payment method
type MethodTotal struct {
	Method string
	Total  float64
}

// PaymentRepository payment data access
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByMpesaRef(ctx context.Context, ref string) (*model.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]model.Payment, error)
	CountByInvoice(ctx context.Context, invoiceID string) (int64, error)
	SumCompleted(ctx context.Context, invoiceID string) (float64, error)
	SumCompletedByInvoices(ctx context.Context, invoiceIDs []string) (map[string]float64, error)
	TotalsByMethod(ctx context.Context) ([]MethodTotal, error)
	List(ctx context.Context, filters *PaymentListFilters, p ListParams) ([]model.Payment, int64, error)
}

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo creates a PaymentRepository
func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

var paymentSorts = sortColumns{
	"created_at": "payments.created_at",
	"paid_at":    "payments.paid_at",
	"amount_kes": "payments.amount_kes",
	"method":     "payments.method",
	"status":     "payments.status",
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Omit("Invoice").Create(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Invoice").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) GetByMpesaRef(ctx context.Context, ref string) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Where("mpesa_ref = ?", ref).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) CountByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count, err
}

func (r *paymentRepo) SumCompleted(ctx context.Context, invoiceID string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(amount_kes), 0)").
		Where("invoice_id = ? AND status = ?", invoiceID, model.PaymentStatusCompleted).
		Scan(&sum).Error
	return sum, err
}

func (r *paymentRepo) SumCompletedByInvoices(ctx context.Context, invoiceIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		InvoiceID string
		Total     float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("invoice_id, COALESCE(SUM(amount_kes), 0) AS total").
		Where("invoice_id IN ? AND status = ?", invoiceIDs, model.PaymentStatusCompleted).
		Group("invoice_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.InvoiceID] = row.Total
	}
	return out, nil
}

func (r *paymentRepo) TotalsByMethod(ctx context.Context) ([]MethodTotal, error) {
	var rows []MethodTotal
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("method, COALESCE(SUM(amount_kes), 0) AS total").
		Where("status = ?", model.PaymentStatusCompleted).
		Group("method").
		Scan(&rows).Error
	return rows, err
}

func (r *paymentRepo) List(ctx context.Context, filters *PaymentListFilters, p ListParams) ([]model.Payment, int64, error) {
	return listPage[model.Payment](ctx, r.db, p, paymentSorts, func(q *gorm.DB) *gorm.DB {
		if filters.InvoiceID != "" {
			q = q.Where("payments.invoice_id = ?", filters.InvoiceID)
		}
		if filters.Method != "" {
			q = q.Where("payments.method = ?", filters.Method)
		}
		if filters.Status != "" {
			q = q.Where("payments.status = ?", filters.Status)
		}
		if filters.Search != "" {
			like := likePattern(filters.Search)
			q = q.Where("payments.mpesa_ref ILIKE ? OR payments.transaction_id ILIKE ?", like, like)
		}
		return q
	}, "Invoice")
}
