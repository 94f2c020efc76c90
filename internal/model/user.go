package model

import "time"

// Roles
const (
	RoleAdmin     = "ADMIN"
	RoleLecturer  = "LECTURER"
	RoleStudent   = "STUDENT"
	RoleFinance   = "FINANCE"
	RoleLibrarian = "LIBRARIAN"
	RoleIT        = "IT"
)

// Roles every valid role, in display order
var Roles = []string{RoleAdmin, RoleLecturer, RoleStudent, RoleFinance, RoleLibrarian, RoleIT}

// User account statuses
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusPending   = "pending"
)

// User login account, table users
type User struct {
	ID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email         string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash  string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          string     `gorm:"type:varchar(20);not null"                      json:"role"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	EmailVerified bool       `gorm:"not null;default:false"                         json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	VersionedModel

	Profile *UserProfile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
}

// TableName table name
func (User) TableName() string { return "users" }

// FullName "First Last", empty without a profile
func (u *User) FullName() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.FirstName + " " + u.Profile.LastName
}

// UserProfile personal details, 1:1 with users
type UserProfile struct {
	UserID      string     `gorm:"type:uuid;primaryKey"        json:"user_id"`
	FirstName   string     `gorm:"type:varchar(100);not null"  json:"first_name"`
	LastName    string     `gorm:"type:varchar(100);not null"  json:"last_name"`
	Phone       *string    `gorm:"type:varchar(20)"            json:"phone,omitempty"`
	Gender      *string    `gorm:"type:varchar(10)"            json:"gender,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date"                   json:"date_of_birth,omitempty"`
	Address     *string    `gorm:"type:text"                   json:"address,omitempty"`
	NationalID  *string    `gorm:"type:varchar(8)"             json:"national_id,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName table name
func (UserProfile) TableName() string { return "user_profiles" }
