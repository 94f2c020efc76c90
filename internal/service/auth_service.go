package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"imtr/backend/config"
	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	"imtr/backend/pkg/jwt"
)

// ── auth errors ──

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountPending     = errors.New("account is awaiting approval")
	ErrAccountDisabled    = errors.New("account is inactive or suspended")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrEmailExists        = errors.New("email is already registered")
	ErrNationalIDExists   = errors.New("national id is already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService authentication use cases
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessJTI string, accessExpiresAt time.Time, refreshToken string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	tokens TokenStore
	logger *zap.Logger
}

// NewAuthService creates an AuthService; tokens may be nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		tokens: tokens,
		logger: logger,
	}
}

// ────────────────────── Register ──────────────────────

// Register creates a STUDENT account in pending state; it only becomes usable
// once an administrator approves it.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if fields := validation.PasswordConfirmation("password_confirmation", req.Password, req.PasswordConfirmation); len(fields) > 0 {
		return nil, fields
	}

	profile, err := buildProfile(&req.ProfileRequest)
	if err != nil {
		return nil, err
	}
	if err := ensureUniqueIdentity(ctx, s.repo, req.Email, profile.NationalID, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         model.RoleStudent,
		Status:       model.UserStatusPending,
		Profile:      profile,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("failed to create registration", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student registration received", zap.String("user_id", user.ID))

	return &dto.RegisterResponse{ID: user.ID, Email: user.Email, Status: user.Status}, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case model.UserStatusActive:
	case model.UserStatusPending:
		return nil, ErrAccountPending
	default:
		return nil, ErrAccountDisabled
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.User.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
		resp.User = *toUserResponse(user)
	}

	return resp, nil
}

// ────────────────────── Refresh ──────────────────────

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrAccountDisabled
	}

	s.revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))

	return s.issueTokens(user)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessJTI string, accessExpiresAt time.Time, refreshToken string) error {
	s.revoke(ctx, accessJTI, time.Until(accessExpiresAt))

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == jwt.TokenTypeRefresh {
			s.revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
		}
	}
	return nil
}

// IsRevoked reports whether the jti was logged out; always false without a store
func (s *authService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.tokens == nil || jti == "" {
		return false, nil
	}
	revoked, err := s.tokens.IsBlacklisted(ctx, jti)
	if err != nil {
		s.logger.Error("failed to check token blacklist", zap.Error(err))
		return false, err
	}
	return revoked, nil
}

func (s *authService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.tokens == nil || jti == "" {
		return
	}
	if err := s.tokens.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("failed to blacklist token", zap.String("jti", jti), zap.Error(err))
	}
}

// ────────────────────── Me / ChangePassword ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	if fields := validation.PasswordConfirmation("new_password_confirmation", req.NewPassword, req.NewPasswordConfirmation); len(fields) > 0 {
		return fields
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("failed to update password", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// buildProfile maps the profile form; date errors come back as FieldErrors
func buildProfile(req *dto.ProfileRequest) (*model.UserProfile, error) {
	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, validation.FieldErrors{"date_of_birth": "must be a date in YYYY-MM-DD format"}
	}
	if dob != nil && dob.After(time.Now()) {
		return nil, validation.FieldErrors{"date_of_birth": "must be in the past"}
	}
	return &model.UserProfile{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       trimmedOrNil(req.Phone),
		Gender:      trimmedOrNil(req.Gender),
		DateOfBirth: dob,
		Address:     trimmedOrNil(req.Address),
		NationalID:  trimmedOrNil(req.NationalID),
	}, nil
}

// ensureUniqueIdentity email and national id must not belong to another user
func ensureUniqueIdentity(ctx context.Context, repo *repository.Repository, email string, nationalID *string, excludeUserID string) error {
	if email != "" {
		existing, err := repo.User.GetByEmail(ctx, strings.TrimSpace(email))
		if err == nil && existing.ID != excludeUserID {
			return ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if nationalID != nil && *nationalID != "" {
		taken, err := repo.User.NationalIDTaken(ctx, *nationalID, excludeUserID)
		if err != nil {
			return err
		}
		if taken {
			return ErrNationalIDExists
		}
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
