package dto

// ── students & approvals ──

// StudentListRequest GET /students; pending registrations are not students
type StudentListRequest struct {
	ListQuery
	ProgramID       string `form:"program_id"       json:"program_id,omitempty"       binding:"omitempty,uuid"`
	Status          string `form:"status"           json:"status,omitempty"           binding:"omitempty,oneof=active suspended graduated withdrawn"`
	EnrollmentYear  int    `form:"enrollment_year"  json:"enrollment_year,omitempty"  binding:"omitempty,min=2000,max=2100"`
	ScholarshipType string `form:"scholarship_type" json:"scholarship_type,omitempty" binding:"omitempty,oneof=none merit need_based sports research government"`
}

// PendingListRequest GET /student-approvals/pending
type PendingListRequest struct {
	ListQuery
}

// ApprovalHistoryRequest GET /student-approvals/history
type ApprovalHistoryRequest struct {
	ListQuery
	Decision string `form:"decision" json:"decision,omitempty" binding:"omitempty,oneof=approved rejected"`
}

// ApproveStudentRequest approval form
type ApproveStudentRequest struct {
	ProgramID         string   `json:"program_id"         binding:"required,uuid"`
	EnrollmentYear    int      `json:"enrollment_year"    binding:"required,min=2020,max=2030"`
	AdmissionDate     string   `json:"admission_date"     binding:"required,iso_date"`
	ScholarshipType   string   `json:"scholarship_type"   binding:"omitempty,oneof=none merit need_based sports research government"`
	ScholarshipAmount *float64 `json:"scholarship_amount" binding:"omitempty"`
}

// RejectStudentRequest rejection form
type RejectStudentRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// UpdateStudentStatusRequest enrolment status change
type UpdateStudentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended graduated withdrawn"`
}

// PendingRegistrationResponse registration awaiting review
type PendingRegistrationResponse struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        *string `json:"phone,omitempty"`
	NationalID   *string `json:"national_id,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	RegisteredAt string  `json:"registered_at"`
}

// StudentResponse enrolled student with user and program summary
type StudentResponse struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	StudentNumber     string  `json:"student_number"`
	Email             string  `json:"email"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Phone             *string `json:"phone,omitempty"`
	ProgramID         string  `json:"program_id"`
	ProgramCode       string  `json:"program_code,omitempty"`
	ProgramName       string  `json:"program_name,omitempty"`
	EnrollmentYear    int     `json:"enrollment_year"`
	AdmissionDate     string  `json:"admission_date"`
	ScholarshipType   string  `json:"scholarship_type"`
	ScholarshipAmount float64 `json:"scholarship_amount"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
}

// ApprovalResponse review decision
type ApprovalResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Email           string           `json:"email,omitempty"`
	FirstName       string           `json:"first_name,omitempty"`
	LastName        string           `json:"last_name,omitempty"`
	Decision        string           `json:"decision"`
	ProgramID       *string          `json:"program_id,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	ReviewedBy      string           `json:"reviewed_by"`
	ReviewedAt      string           `json:"reviewed_at"`
	Student         *StudentResponse `json:"student,omitempty"`
}
