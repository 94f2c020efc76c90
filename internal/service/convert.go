package service

import (
	"sort"
	"time"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/validation"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format(validation.DateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// parseOptionalDate nil for nil or empty input
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toProfileResponse(p *model.UserProfile) *dto.ProfileResponse {
	if p == nil {
		return nil
	}
	return &dto.ProfileResponse{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Phone:       p.Phone,
		Gender:      p.Gender,
		DateOfBirth: formatOptionalDate(p.DateOfBirth),
		Address:     p.Address,
		NationalID:  p.NationalID,
	}
}

func toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		Profile:       toProfileResponse(u.Profile),
		CreatedAt:     formatTime(u.CreatedAt),
	}
	if u.LastLoginAt != nil {
		s := formatTime(*u.LastLoginAt)
		resp.LastLoginAt = &s
	}
	return resp
}

func toPendingResponse(u *model.User) dto.PendingRegistrationResponse {
	resp := dto.PendingRegistrationResponse{
		UserID:       u.ID,
		Email:        u.Email,
		RegisteredAt: formatTime(u.CreatedAt),
	}
	if p := u.Profile; p != nil {
		resp.FirstName = p.FirstName
		resp.LastName = p.LastName
		resp.Phone = p.Phone
		resp.NationalID = p.NationalID
		resp.Gender = p.Gender
		resp.DateOfBirth = formatOptionalDate(p.DateOfBirth)
	}
	return resp
}

func toStudentResponse(s *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		StudentNumber:     s.StudentNumber,
		ProgramID:         s.ProgramID,
		EnrollmentYear:    s.EnrollmentYear,
		AdmissionDate:     formatDate(s.AdmissionDate),
		ScholarshipType:   s.ScholarshipType,
		ScholarshipAmount: s.ScholarshipAmount,
		Status:            s.Status,
		CreatedAt:         formatTime(s.CreatedAt),
	}
	if u := s.User; u != nil {
		resp.Email = u.Email
		if p := u.Profile; p != nil {
			resp.FirstName = p.FirstName
			resp.LastName = p.LastName
			resp.Phone = p.Phone
		}
	}
	if p := s.Program; p != nil {
		resp.ProgramCode = p.Code
		resp.ProgramName = p.Name
	}
	return resp
}

func toApprovalResponse(a *model.StudentApproval) *dto.ApprovalResponse {
	resp := &dto.ApprovalResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Decision:        a.Decision,
		ProgramID:       a.ProgramID,
		RejectionReason: a.RejectionReason,
		ReviewedBy:      a.ReviewedBy,
		ReviewedAt:      formatTime(a.ReviewedAt),
	}
	if u := a.User; u != nil {
		resp.Email = u.Email
		if p := u.Profile; p != nil {
			resp.FirstName = p.FirstName
			resp.LastName = p.LastName
		}
	}
	return resp
}

func toFeeDTO(f model.FeeStructure) dto.FeeStructure {
	return dto.FeeStructure{
		Tuition:      f.Tuition,
		Registration: f.Registration,
		Examination:  f.Examination,
		Library:      f.Library,
		Laboratory:   f.Laboratory,
	}
}

func fromFeeDTO(f dto.FeeStructure) model.FeeStructure {
	return model.FeeStructure{
		Tuition:      model.RoundKES(f.Tuition),
		Registration: model.RoundKES(f.Registration),
		Examination:  model.RoundKES(f.Examination),
		Library:      model.RoundKES(f.Library),
		Laboratory:   model.RoundKES(f.Laboratory),
	}
}

func toProgramResponse(p *model.Program) *dto.ProgramResponse {
	fees := p.Fees.Data()
	return &dto.ProgramResponse{
		ID:             p.ID,
		Name:           p.Name,
		Code:           p.Code,
		Level:          p.Level,
		DurationMonths: p.DurationMonths,
		TotalCredits:   p.TotalCredits,
		Fees:           toFeeDTO(fees),
		TotalFees:      fees.Total(),
		Status:         p.Status,
		Department:     p.Department,
		Faculty:        p.Faculty,
		CoordinatorID:  p.CoordinatorID,
		CreatedAt:      formatTime(p.CreatedAt),
	}
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	hours := c.Hours.Data()
	grading := c.GradingSystem.Data()
	resp := &dto.CourseResponse{
		ID:         c.ID,
		ProgramID:  c.ProgramID,
		Code:       c.Code,
		Title:      c.Title,
		Credits:    c.Credits,
		Year:       c.Year,
		Semester:   c.Semester,
		CourseType: c.CourseType,
		Status:     c.Status,
		IsOffered:  c.IsOffered,
		Hours: dto.CourseHours{
			Lecture:   hours.Lecture,
			Tutorial:  hours.Tutorial,
			Practical: hours.Practical,
			FieldWork: hours.FieldWork,
		},
		GradingSystem: dto.GradingSystem{
			Assignments: grading.Assignments,
			Midterm:     grading.Midterm,
			FinalExam:   grading.FinalExam,
		},
		CreatedAt: formatTime(c.CreatedAt),
	}
	if c.Program != nil {
		resp.ProgramCode = c.Program.Code
	}
	return resp
}

func toInvoiceResponse(inv *model.Invoice, paid float64, payments []model.Payment) *dto.InvoiceResponse {
	items := append([]model.InvoiceItem(nil), inv.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		StudentID:     inv.StudentID,
		Items:         make([]dto.InvoiceItemResponse, 0, len(items)),
		TotalKES:      inv.TotalKES,
		PaidKES:       model.RoundKES(paid),
		BalanceKES:    balance(inv.TotalKES, paid),
		Status:        inv.Status,
		DueDate:       formatDate(inv.DueDate),
		Notes:         inv.Notes,
		CreatedAt:     formatTime(inv.CreatedAt),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			Item:        it.Item,
			AmountKES:   it.AmountKES,
			Description: it.Description,
		})
	}
	if s := inv.Student; s != nil {
		resp.StudentNumber = s.StudentNumber
		if s.User != nil {
			resp.StudentName = s.User.FullName()
		}
	}
	for i := range payments {
		resp.Payments = append(resp.Payments, *toPaymentResponse(&payments[i]))
	}
	return resp
}

func toPaymentResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		AmountKES:     p.AmountKES,
		Method:        p.Method,
		MpesaRef:      p.MpesaRef,
		TransactionID: p.TransactionID,
		PaidAt:        formatTime(p.PaidAt),
		Status:        p.Status,
	}
	if p.Invoice != nil {
		resp.InvoiceNumber = p.Invoice.InvoiceNumber
		resp.InvoiceStatus = p.Invoice.Status
	}
	return resp
}

func balance(total, paid float64) float64 {
	b := model.RoundKES(total - paid)
	if b < 0 {
		return 0
	}
	return b
}
