package dto

// ── courses ──

// CourseHours weekly contact hours
type CourseHours struct {
	Lecture   int `json:"lecture"    binding:"min=0,max=40"`
	Tutorial  int `json:"tutorial"   binding:"min=0,max=40"`
	Practical int `json:"practical"  binding:"min=0,max=40"`
	FieldWork int `json:"field_work" binding:"min=0,max=40"`
}

// GradingSystem assessment weights in percent
type GradingSystem struct {
	Assignments int `json:"assignments" binding:"min=0,max=100"`
	Midterm     int `json:"midterm"     binding:"min=0,max=100"`
	FinalExam   int `json:"final_exam"  binding:"min=0,max=100"`
}

// CreateCourseRequest course creation
type CreateCourseRequest struct {
	ProgramID     string        `json:"program_id"     binding:"required,uuid"`
	Code          string        `json:"code"           binding:"required,max=20"`
	Title         string        `json:"title"          binding:"required,max=200"`
	Credits       int           `json:"credits"        binding:"required,min=1,max=60"`
	Year          int           `json:"year"           binding:"required,min=1,max=7"`
	Semester      int           `json:"semester"       binding:"required,min=1,max=3"`
	CourseType    string        `json:"course_type"    binding:"required,oneof=core elective prerequisite general"`
	Status        string        `json:"status"         binding:"omitempty,oneof=active inactive"`
	IsOffered     *bool         `json:"is_offered"`
	Hours         CourseHours   `json:"hours"`
	GradingSystem GradingSystem `json:"grading_system"`
}

// UpdateCourseRequest partial update
type UpdateCourseRequest struct {
	Code          *string        `json:"code"           binding:"omitempty,min=1,max=20"`
	Title         *string        `json:"title"          binding:"omitempty,min=1,max=200"`
	Credits       *int           `json:"credits"        binding:"omitempty,min=1,max=60"`
	Year          *int           `json:"year"           binding:"omitempty,min=1,max=7"`
	Semester      *int           `json:"semester"       binding:"omitempty,min=1,max=3"`
	CourseType    *string        `json:"course_type"    binding:"omitempty,oneof=core elective prerequisite general"`
	Status        *string        `json:"status"         binding:"omitempty,oneof=active inactive"`
	IsOffered     *bool          `json:"is_offered"`
	Hours         *CourseHours   `json:"hours"`
	GradingSystem *GradingSystem `json:"grading_system"`
}

// CourseListRequest GET /courses
type CourseListRequest struct {
	ListQuery
	ProgramID  string `form:"program_id"  json:"program_id,omitempty"  binding:"omitempty,uuid"`
	Year       int    `form:"year"        json:"year,omitempty"        binding:"omitempty,min=1,max=7"`
	Semester   int    `form:"semester"    json:"semester,omitempty"    binding:"omitempty,min=1,max=3"`
	CourseType string `form:"course_type" json:"course_type,omitempty" binding:"omitempty,oneof=core elective prerequisite general"`
	Status     string `form:"status"      json:"status,omitempty"      binding:"omitempty,oneof=active inactive"`
	IsOffered  *bool  `form:"is_offered"  json:"is_offered,omitempty"`
}

// CourseResponse course
type CourseResponse struct {
	ID            string        `json:"id"`
	ProgramID     string        `json:"program_id"`
	ProgramCode   string        `json:"program_code,omitempty"`
	Code          string        `json:"code"`
	Title         string        `json:"title"`
	Credits       int           `json:"credits"`
	Year          int           `json:"year"`
	Semester      int           `json:"semester"`
	CourseType    string        `json:"course_type"`
	Status        string        `json:"status"`
	IsOffered     bool          `json:"is_offered"`
	Hours         CourseHours   `json:"hours"`
	GradingSystem GradingSystem `json:"grading_system"`
	CreatedAt     string        `json:"created_at"`
}
