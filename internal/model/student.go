package model

import "time"

// Student statuses
const (
	StudentStatusActive    = "active"
	StudentStatusSuspended = "suspended"
	StudentStatusGraduated = "graduated"
	StudentStatusWithdrawn = "withdrawn"
)

// Scholarship types
const (
	ScholarshipNone       = "none"
	ScholarshipMerit      = "merit"
	ScholarshipNeedBased  = "need_based"
	ScholarshipSports     = "sports"
	ScholarshipResearch   = "research"
	ScholarshipGovernment = "government"
)

// Student enrolled student, created when a registration is approved
type Student struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID            string    `gorm:"type:uuid;not null"                             json:"user_id"`
	ProgramID         string    `gorm:"type:uuid;not null"                             json:"program_id"`
	StudentNumber     string    `gorm:"type:varchar(40);not null"                      json:"student_number"`
	EnrollmentYear    int       `gorm:"not null"                                       json:"enrollment_year"`
	AdmissionDate     time.Time `gorm:"type:date;not null"                             json:"admission_date"`
	ScholarshipType   string    `gorm:"type:varchar(20);not null;default:'none'"       json:"scholarship_type"`
	ScholarshipAmount float64   `gorm:"type:numeric(12,2);not null;default:0"          json:"scholarship_amount"`
	Status            string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	VersionedModel

	User    *User    `gorm:"foreignKey:UserID;references:ID"    json:"user,omitempty"`
	Program *Program `gorm:"foreignKey:ProgramID;references:ID" json:"program,omitempty"`
}

// TableName table name
func (Student) TableName() string { return "students" }

// Approval decisions
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// StudentApproval review record of a pending registration; one per user
type StudentApproval struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Decision        string    `gorm:"type:varchar(10);not null"                      json:"decision"`
	ProgramID       *string   `gorm:"type:uuid"                                      json:"program_id,omitempty"`
	RejectionReason *string   `gorm:"type:text"                                      json:"rejection_reason,omitempty"`
	ReviewedBy      string    `gorm:"type:uuid;not null"                             json:"reviewed_by"`
	ReviewedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"reviewed_at"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName table name
func (StudentApproval) TableName() string { return "student_approvals" }
