package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/api/middleware"
	"imtr/backend/internal/auth"
	"imtr/backend/internal/service"
	"imtr/backend/internal/validation"
	"imtr/backend/pkg/jwt"
	"imtr/backend/pkg/response"
)

// MustGetPrincipal returns the caller set by JWTAuth. On false a 401 has been
// written and the handler should return.
func MustGetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(middleware.PrincipalKey)
	if !exists {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	if !ok || p.UserID == "" {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	return p, true
}

// MustGetUserID caller's user id
func MustGetUserID(c *gin.Context) (string, bool) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return "", false
	}
	return p.UserID, true
}

func mustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	return claims, true
}

// ── binding ──

func bindJSON(c *gin.Context, req interface{}) bool {
	return bindResult(c, c.ShouldBindJSON(req))
}

func bindQuery(c *gin.Context, req interface{}) bool {
	return bindResult(c, c.ShouldBindQuery(req))
}

// bindResult validation failures are 422 with per-field messages, anything
// else the client sent is a 400. An oversized body is left to BodyLimit.
func bindResult(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		_ = c.Error(err)
	case errors.Is(err, io.EOF):
		response.BadRequest(c, "request body is required")
	default:
		if fields, ok := validation.FromBindError(err); ok {
			response.ValidationError(c, fields)
			return false
		}
		response.BadRequest(c, "malformed request: "+err.Error())
	}
	return false
}

// handleCommonError errors shared by every module; false when err is not one
// of them
func handleCommonError(c *gin.Context, err error) bool {
	if fields, ok := validation.AsFieldErrors(err); ok {
		response.ValidationError(c, fields)
		return true
	}
	if errors.Is(err, service.ErrConcurrentUpdate) {
		response.Conflict(c, err.Error())
		return true
	}
	return false
}
