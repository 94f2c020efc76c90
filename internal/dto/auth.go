package dto

// ── auth ──

// RegisterRequest student self-registration; creates a pending account
type RegisterRequest struct {
	Email                string `json:"email"                 binding:"required,email,max=255"`
	Password             string `json:"password"              binding:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	ProfileRequest
}

// LoginRequest login
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest refresh token exchange
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest the refresh token is revoked alongside the access token when sent
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest password change for the current user
type ChangePasswordRequest struct {
	OldPassword             string `json:"old_password"              binding:"required"`
	NewPassword             string `json:"new_password"              binding:"required,min=8,max=72"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required"`
}

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

// RegisterResponse accepted registration awaiting review
type RegisterResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// MeResponse current user with the capabilities of its role
type MeResponse struct {
	UserResponse
	Capabilities []string `json:"capabilities"`
}
