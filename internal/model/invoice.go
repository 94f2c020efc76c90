package model

import "time"

// Invoice statuses
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice fee invoice issued to a student, table invoices
type Invoice struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceNumber string    `gorm:"type:varchar(40);not null"                      json:"invoice_number"`
	StudentID     string    `gorm:"type:uuid;not null"                             json:"student_id"`
	TotalKES      float64   `gorm:"column:total_kes;type:numeric(12,2);not null"   json:"total_kes"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	DueDate       time.Time `gorm:"type:date;not null"                             json:"due_date"`
	Notes         *string   `gorm:"type:text"                                      json:"notes,omitempty"`
	VersionedModel

	Items   []InvoiceItem `gorm:"foreignKey:InvoiceID;references:ID" json:"items,omitempty"`
	Student *Student      `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
}

// TableName table name
func (Invoice) TableName() string { return "invoices" }

// Editable only pending and overdue invoices accept changes
func (i *Invoice) Editable() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}

// InvoiceItem invoice line
type InvoiceItem struct {
	ID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID   string  `gorm:"type:uuid;not null"                             json:"invoice_id"`
	Position    int     `gorm:"not null"                                       json:"position"`
	Item        string  `gorm:"type:varchar(150);not null"                     json:"item"`
	AmountKES   float64 `gorm:"column:amount_kes;type:numeric(12,2);not null"  json:"amount_kes"`
	Description *string `gorm:"type:text"                                      json:"description,omitempty"`
}

// TableName table name
func (InvoiceItem) TableName() string { return "invoice_items" }
