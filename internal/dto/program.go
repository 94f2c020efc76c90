package dto

// ── programs ──

// FeeStructure fee lines in KES
type FeeStructure struct {
	Tuition      float64 `json:"tuition"      binding:"min=0"`
	Registration float64 `json:"registration" binding:"min=0"`
	Examination  float64 `json:"examination"  binding:"min=0"`
	Library      float64 `json:"library"      binding:"min=0"`
	Laboratory   float64 `json:"laboratory"   binding:"min=0"`
}

// CreateProgramRequest program creation
type CreateProgramRequest struct {
	Name           string       `json:"name"            binding:"required,max=200"`
	Code           string       `json:"code"            binding:"required,max=20"`
	Level          string       `json:"level"           binding:"required,oneof=certificate diploma bachelor master phd postdoc"`
	DurationMonths int          `json:"duration_months" binding:"required,min=1,max=120"`
	TotalCredits   int          `json:"total_credits"   binding:"min=0,max=1000"`
	Fees           FeeStructure `json:"fees"`
	Status         string       `json:"status"          binding:"omitempty,oneof=active inactive archived"`
	Department     *string      `json:"department"      binding:"omitempty,max=150"`
	Faculty        *string      `json:"faculty"         binding:"omitempty,max=150"`
	CoordinatorID  *string      `json:"coordinator_id"  binding:"omitempty,uuid"`
}

// UpdateProgramRequest partial update
type UpdateProgramRequest struct {
	Name           *string       `json:"name"            binding:"omitempty,min=1,max=200"`
	Code           *string       `json:"code"            binding:"omitempty,min=1,max=20"`
	Level          *string       `json:"level"           binding:"omitempty,oneof=certificate diploma bachelor master phd postdoc"`
	DurationMonths *int          `json:"duration_months" binding:"omitempty,min=1,max=120"`
	TotalCredits   *int          `json:"total_credits"   binding:"omitempty,min=0,max=1000"`
	Fees           *FeeStructure `json:"fees"`
	Status         *string       `json:"status"          binding:"omitempty,oneof=active inactive archived"`
	Department     *string       `json:"department"      binding:"omitempty,max=150"`
	Faculty        *string       `json:"faculty"         binding:"omitempty,max=150"`
	CoordinatorID  *string       `json:"coordinator_id"  binding:"omitempty,uuid"`
}

// ProgramListRequest GET /programs
type ProgramListRequest struct {
	ListQuery
	Level      string `form:"level"      json:"level,omitempty"      binding:"omitempty,oneof=certificate diploma bachelor master phd postdoc"`
	Status     string `form:"status"     json:"status,omitempty"     binding:"omitempty,oneof=active inactive archived"`
	Department string `form:"department" json:"department,omitempty" binding:"omitempty,max=150"`
	Faculty    string `form:"faculty"    json:"faculty,omitempty"    binding:"omitempty,max=150"`
}

// ProgramResponse program
type ProgramResponse struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Code           string       `json:"code"`
	Level          string       `json:"level"`
	DurationMonths int          `json:"duration_months"`
	TotalCredits   int          `json:"total_credits"`
	Fees           FeeStructure `json:"fees"`
	TotalFees      float64      `json:"total_fees"`
	Status         string       `json:"status"`
	Department     *string      `json:"department,omitempty"`
	Faculty        *string      `json:"faculty,omitempty"`
	CoordinatorID  *string      `json:"coordinator_id,omitempty"`
	CreatedAt      string       `json:"created_at"`
}
