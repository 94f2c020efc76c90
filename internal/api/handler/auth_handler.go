package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// AuthHandler authentication endpoints
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register student self-registration, the account stays pending until reviewed
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout revokes the current access token and, when sent, the refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := mustGetClaims(c)
	if !ok {
		return
	}

	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "malformed request: "+err.Error())
		return
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims.ID, expiresAt, req.RefreshToken); err != nil {
		response.InternalError(c)
		return
	}

	response.OKMessage(c, "logged out")
}

// GetCurrentUser profile and capabilities of the caller
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	caps := principal.Capabilities()
	names := make([]string, 0, len(caps))
	for _, cp := range caps {
		names = append(names, string(cp))
	}

	response.OK(c, dto.MeResponse{UserResponse: *user, Capabilities: names})
}

// ChangePassword
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OKMessage(c, "password updated")
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrAccountPending),
		errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		response.ValidationError(c, map[string]string{"old_password": err.Error()})
	case errors.Is(err, service.ErrEmailExists):
		response.ValidationError(c, map[string]string{"email": err.Error()})
	case errors.Is(err, service.ErrNationalIDExists):
		response.ValidationError(c, map[string]string{"national_id": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c)
	}
}
