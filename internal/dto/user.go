package dto

// ── users ──

// ProfileRequest personal details captured on registration and user creation
type ProfileRequest struct {
	FirstName   string  `json:"first_name"    binding:"required,max=100"`
	LastName    string  `json:"last_name"     binding:"required,max=100"`
	Phone       *string `json:"phone"         binding:"omitempty,kes_phone"`
	Gender      *string `json:"gender"        binding:"omitempty,oneof=male female other"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,iso_date"`
	Address     *string `json:"address"       binding:"omitempty,max=500"`
	NationalID  *string `json:"national_id"   binding:"omitempty,national_id"`
}

// CreateUserRequest admin user creation
type CreateUserRequest struct {
	Email                string `json:"email"                 binding:"required,email,max=255"`
	Password             string `json:"password"              binding:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	Role                 string `json:"role"                  binding:"required,oneof=ADMIN LECTURER STUDENT FINANCE LIBRARIAN IT"`
	Status               string `json:"status"                binding:"omitempty,oneof=active inactive suspended"`
	ProfileRequest
}

// UpdateUserRequest partial update; nil fields are left untouched
type UpdateUserRequest struct {
	Email       *string `json:"email"         binding:"omitempty,email,max=255"`
	Role        *string `json:"role"          binding:"omitempty,oneof=ADMIN LECTURER STUDENT FINANCE LIBRARIAN IT"`
	FirstName   *string `json:"first_name"    binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name"     binding:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone"         binding:"omitempty,kes_phone"`
	Gender      *string `json:"gender"        binding:"omitempty,oneof=male female other"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,iso_date"`
	Address     *string `json:"address"       binding:"omitempty,max=500"`
	NationalID  *string `json:"national_id"   binding:"omitempty,national_id"`
}

// UpdateUserStatusRequest account status change
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

// UserListRequest GET /users
type UserListRequest struct {
	ListQuery
	Role          string `form:"role"           json:"role,omitempty"           binding:"omitempty,oneof=ADMIN LECTURER STUDENT FINANCE LIBRARIAN IT"`
	Status        string `form:"status"         json:"status,omitempty"         binding:"omitempty,oneof=active inactive suspended pending"`
	EmailVerified *bool  `form:"email_verified" json:"email_verified,omitempty"`
}

// LecturerListRequest GET /lecturers
type LecturerListRequest struct {
	ListQuery
	Status string `form:"status" json:"status,omitempty" binding:"omitempty,oneof=active inactive suspended"`
}

// ProfileResponse personal details
type ProfileResponse struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       *string `json:"phone,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Address     *string `json:"address,omitempty"`
	NationalID  *string `json:"national_id,omitempty"`
}

// UserResponse user without credentials
type UserResponse struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Role          string           `json:"role"`
	Status        string           `json:"status"`
	EmailVerified bool             `json:"email_verified"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
	CreatedAt     string           `json:"created_at"`
	LastLoginAt   *string          `json:"last_login_at,omitempty"`
}

// ImportUserResponse bulk import outcome
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Created []ImportedUser    `json:"created,omitempty"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportedUser created account with its one-time password
type ImportedUser struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserError rejected spreadsheet row
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
