package validation

import (
	"fmt"
	"strings"
	"time"

	"imtr/backend/internal/dto"
)

// MaxRejectionReason upper bound on a rejection reason
const MaxRejectionReason = 500

// IsMpesaRef M-Pesa confirmation code: 10 upper-case letters or digits
func IsMpesaRef(s string) bool {
	return mpesaRefPattern.MatchString(s)
}

// NormalizeMpesaRef trims and upper-cases a confirmation code
func NormalizeMpesaRef(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsEmail reports whether s is a syntactically valid address
func IsEmail(s string) bool {
	return engine().Var(s, "required,email") == nil
}

// IsKenyanPhone +2547XXXXXXXX, 07XXXXXXXX and the 01 prefixes; spaces ignored
func IsKenyanPhone(s string) bool {
	return kesPhonePattern.MatchString(strings.ReplaceAll(s, " ", ""))
}

// IsNationalID eight digit Kenyan national id
func IsNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// PasswordConfirmation cross-field check; field is the key of the confirmation
func PasswordConfirmation(field, password, confirmation string) FieldErrors {
	fields := FieldErrors{}
	if password != confirmation {
		fields.Add(field, "does not match password")
	}
	return fields
}

// ── student approval ──

// Approval validates the approval form. An empty scholarship type means none;
// any other type needs a positive amount.
func Approval(req *dto.ApproveStudentRequest) FieldErrors {
	fields := Struct(req)

	scholarship := req.ScholarshipType
	if scholarship == "" {
		scholarship = "none"
	}
	if scholarship != "none" {
		if req.ScholarshipAmount == nil {
			fields.Add("scholarship_amount", "is required when a scholarship is selected")
		} else if *req.ScholarshipAmount <= 0 {
			fields.Add("scholarship_amount", "must be greater than 0")
		}
	}
	return fields
}

// Rejection validates a rejection reason
func Rejection(reason string) FieldErrors {
	fields := FieldErrors{}
	trimmed := strings.TrimSpace(reason)
	switch {
	case trimmed == "":
		fields.Add("rejection_reason", "is required")
	case len([]rune(trimmed)) > MaxRejectionReason:
		fields.Add("rejection_reason", fmt.Sprintf("must be at most %d characters", MaxRejectionReason))
	}
	return fields
}

// ── finance ──

// InvoiceItems at least one line; per-line errors are keyed item_<i> and amount_<i>
func InvoiceItems(items []dto.InvoiceItemRequest) FieldErrors {
	fields := FieldErrors{}
	if len(items) == 0 {
		fields.Add("items", "at least one item is required")
		return fields
	}
	for i, it := range items {
		if strings.TrimSpace(it.Item) == "" {
			fields.Add(fmt.Sprintf("item_%d", i), "item name is required")
		} else if len([]rune(it.Item)) > 150 {
			fields.Add(fmt.Sprintf("item_%d", i), "must be at most 150 characters")
		}
		if it.AmountKES <= 0 {
			fields.Add(fmt.Sprintf("amount_%d", i), "amount must be greater than 0")
		}
	}
	return fields
}

// Invoice validates a manual invoice form
func Invoice(req *dto.CreateInvoiceRequest) FieldErrors {
	fields := Struct(req)
	fields.Merge(InvoiceItems(req.Items))
	return fields
}

// InvoiceUpdate validates a partial invoice update
func InvoiceUpdate(req *dto.UpdateInvoiceRequest) FieldErrors {
	fields := Struct(req)
	if req.Items != nil {
		fields.Merge(InvoiceItems(req.Items))
	}
	return fields
}

// Payment validates a payment form; mpesa payments need a confirmation code
func Payment(req *dto.CreatePaymentRequest) FieldErrors {
	fields := Struct(req)
	if req.AmountKES <= 0 {
		fields.Add("amount_kes", "must be greater than 0")
	}
	if req.Method == "mpesa" {
		if req.MpesaRef == nil || strings.TrimSpace(*req.MpesaRef) == "" {
			fields.Add("mpesa_ref", "is required for M-Pesa payments")
		} else if !IsMpesaRef(NormalizeMpesaRef(*req.MpesaRef)) {
			fields.Add("mpesa_ref", "must be 10 letters or digits")
		}
	}
	if req.PaidAt != nil && *req.PaidAt != "" {
		if _, err := ParsePaidAt(*req.PaidAt); err != nil {
			fields.Add("paid_at", "must be an RFC3339 timestamp or YYYY-MM-DD date")
		}
	}
	return fields
}

// ParsePaidAt accepts RFC3339 or a bare date
func ParsePaidAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return ParseDate(s)
}

// ── academics ──

// GradingSystem weights must add up to 100
func GradingSystem(g dto.GradingSystem) FieldErrors {
	fields := FieldErrors{}
	if sum := g.Assignments + g.Midterm + g.FinalExam; sum != 100 {
		fields.Add("grading_system", fmt.Sprintf("weights must sum to 100, got %d", sum))
	}
	return fields
}
