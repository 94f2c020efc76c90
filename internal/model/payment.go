package model

import "time"

// Payment methods
const (
	PaymentMethodMpesa        = "mpesa"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
)

// Payment statuses
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment money received against an invoice, table payments
type Payment struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID     string    `gorm:"type:uuid;not null"                             json:"invoice_id"`
	AmountKES     float64   `gorm:"column:amount_kes;type:numeric(12,2);not null"  json:"amount_kes"`
	Method        string    `gorm:"type:varchar(20);not null"                      json:"method"`
	MpesaRef      *string   `gorm:"type:varchar(20)"                               json:"mpesa_ref,omitempty"`
	TransactionID *string   `gorm:"type:varchar(100)"                              json:"transaction_id,omitempty"`
	PaidAt        time.Time `gorm:"not null"                                       json:"paid_at"`
	Status        string    `gorm:"type:varchar(20);not null;default:'completed'"  json:"status"`
	RecordedBy    *string   `gorm:"type:uuid"                                      json:"recorded_by,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	Invoice *Invoice `gorm:"foreignKey:InvoiceID;references:ID" json:"invoice,omitempty"`
}

// TableName table name
func (Payment) TableName() string { return "payments" }
