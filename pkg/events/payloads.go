package events

import "time"

// StudentApproved payload of TopicStudentApproved
type StudentApproved struct {
	UserID        string    `json:"user_id"`
	StudentID     string    `json:"student_id"`
	StudentNumber string    `json:"student_number"`
	ProgramID     string    `json:"program_id"`
	ReviewedBy    string    `json:"reviewed_by"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// StudentRejected payload of TopicStudentRejected
type StudentRejected struct {
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	ReviewedBy string    `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// InvoiceCreated payload of TopicInvoiceCreated
type InvoiceCreated struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	StudentID     string  `json:"student_id"`
	TotalKES      float64 `json:"total_kes"`
	DueDate       string  `json:"due_date"`
}

// PaymentRecorded payload of TopicPaymentRecorded
type PaymentRecorded struct {
	PaymentID     string  `json:"payment_id"`
	InvoiceID     string  `json:"invoice_id"`
	AmountKES     float64 `json:"amount_kes"`
	Method        string  `json:"method"`
	InvoiceStatus string  `json:"invoice_status"`
}
