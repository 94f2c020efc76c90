package dto

// ── invoices ──

// InvoiceItemRequest invoice line; validated as a whole list so errors can be
// keyed per index
type InvoiceItemRequest struct {
	Item        string  `json:"item"`
	AmountKES   float64 `json:"amount_kes"`
	Description *string `json:"description"`
}

// CreateInvoiceRequest manual invoice
type CreateInvoiceRequest struct {
	StudentID string               `json:"student_id" binding:"required,uuid"`
	Items     []InvoiceItemRequest `json:"items"`
	DueDate   string               `json:"due_date"   binding:"required,iso_date"`
	Notes     *string              `json:"notes"      binding:"omitempty,max=1000"`
}

// UpdateInvoiceRequest partial update; a non-nil Items replaces every line
type UpdateInvoiceRequest struct {
	Items   []InvoiceItemRequest `json:"items"`
	DueDate *string              `json:"due_date" binding:"omitempty,iso_date"`
	Notes   *string              `json:"notes"    binding:"omitempty,max=1000"`
}

// InvoiceListRequest GET /finance/invoices
type InvoiceListRequest struct {
	ListQuery
	Status    string `form:"status"     json:"status,omitempty"     binding:"omitempty,oneof=pending paid overdue cancelled"`
	StudentID string `form:"student_id" json:"student_id,omitempty" binding:"omitempty,uuid"`
	DueFrom   string `form:"due_from"   json:"due_from,omitempty"   binding:"omitempty,iso_date"`
	DueTo     string `form:"due_to"     json:"due_to,omitempty"     binding:"omitempty,iso_date"`
}

// GenerateInvoicesRequest bulk invoice generation for a program
type GenerateInvoicesRequest struct {
	DueDate    string   `json:"due_date"    binding:"required,iso_date"`
	Notes      *string  `json:"notes"       binding:"omitempty,max=1000"`
	StudentIDs []string `json:"student_ids" binding:"omitempty,dive,uuid"`
}

// InvoiceItemResponse invoice line
type InvoiceItemResponse struct {
	Item        string  `json:"item"`
	AmountKES   float64 `json:"amount_kes"`
	Description *string `json:"description,omitempty"`
}

// InvoiceResponse invoice with lines and payments
type InvoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	StudentID     string                `json:"student_id"`
	StudentNumber string                `json:"student_number,omitempty"`
	StudentName   string                `json:"student_name,omitempty"`
	Items         []InvoiceItemResponse `json:"items"`
	TotalKES      float64               `json:"total_kes"`
	PaidKES       float64               `json:"paid_kes"`
	BalanceKES    float64               `json:"balance_kes"`
	Status        string                `json:"status"`
	DueDate       string                `json:"due_date"`
	Notes         *string               `json:"notes,omitempty"`
	Payments      []PaymentResponse     `json:"payments,omitempty"`
	CreatedAt     string                `json:"created_at"`
}

// SkippedStudent student left out of a bulk generation
type SkippedStudent struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// GenerateInvoicesResponse bulk generation outcome
type GenerateInvoicesResponse struct {
	Generated int               `json:"generated"`
	Skipped   []SkippedStudent  `json:"skipped"`
	Invoices  []InvoiceResponse `json:"invoices"`
}

// ── payments ──

// CreatePaymentRequest payment recording
type CreatePaymentRequest struct {
	InvoiceID     string  `json:"invoice_id"     binding:"required,uuid"`
	AmountKES     float64 `json:"amount_kes"`
	Method        string  `json:"method"         binding:"required,oneof=mpesa card bank_transfer cash"`
	MpesaRef      *string `json:"mpesa_ref"`
	TransactionID *string `json:"transaction_id" binding:"omitempty,max=100"`
	PaidAt        *string `json:"paid_at"` // RFC3339 or YYYY-MM-DD, defaults to now
	Status        string  `json:"status"         binding:"omitempty,oneof=completed pending failed cancelled"`
}

// PaymentListRequest GET /finance/payments
type PaymentListRequest struct {
	ListQuery
	InvoiceID string `form:"invoice_id" json:"invoice_id,omitempty" binding:"omitempty,uuid"`
	Method    string `form:"method"     json:"method,omitempty"     binding:"omitempty,oneof=mpesa card bank_transfer cash"`
	Status    string `form:"status"     json:"status,omitempty"     binding:"omitempty,oneof=completed pending failed cancelled"`
}

// PaymentResponse payment
type PaymentResponse struct {
	ID            string  `json:"id"`
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number,omitempty"`
	AmountKES     float64 `json:"amount_kes"`
	Method        string  `json:"method"`
	MpesaRef      *string `json:"mpesa_ref,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
	PaidAt        string  `json:"paid_at"`
	Status        string  `json:"status"`
	InvoiceStatus string  `json:"invoice_status,omitempty"`
}

// ── statistics ──

// FinanceStatistics dashboard totals
type FinanceStatistics struct {
	TotalInvoiced     float64            `json:"total_invoiced"`
	TotalCollected    float64            `json:"total_collected"`
	TotalOutstanding  float64            `json:"total_outstanding"`
	InvoiceCounts     map[string]int64   `json:"invoice_counts"`
	CollectedByMethod map[string]float64 `json:"collected_by_method"`
	GeneratedAt       string             `json:"generated_at"`
}
