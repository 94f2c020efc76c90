package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// UserHandler staff and account management
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if !bindQuery(c, &req) {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, "users", users, total, req.GetPage(), req.GetLimit())
}

// ListLecturers users with role LECTURER
// GET /api/v1/lecturers
func (h *UserHandler) ListLecturers(c *gin.Context) {
	var req dto.LecturerListRequest
	if !bindQuery(c, &req) {
		return
	}

	lecturers, total, err := h.userSvc.ListLecturers(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, "lecturers", lecturers, total, req.GetPage(), req.GetLimit())
}

// GetUser
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// CreateUser
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// UpdateUser
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUserStatus activate, deactivate or suspend an account
// PUT /api/v1/users/:id/status
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	var req dto.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKMessage(c, "user deleted")
}

// ImportUsers bulk staff import from an .xlsx upload, field "file"
// POST /api/v1/users/import
func (h *UserHandler) ImportUsers(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(err)
			return
		}
		response.ValidationError(c, map[string]string{"file": "an .xlsx upload is required"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		response.ValidationError(c, map[string]string{"file": "must be an .xlsx spreadsheet"})
		return
	}

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		response.ValidationError(c, map[string]string{"email": err.Error()})
	case errors.Is(err, service.ErrNationalIDExists):
		response.ValidationError(c, map[string]string{"national_id": err.Error()})
	case errors.Is(err, service.ErrUserSelfRoleChange),
		errors.Is(err, service.ErrUserSelfDelete),
		errors.Is(err, service.ErrUserSelfDeactivate):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUserPendingReview):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportTooManyRows),
		errors.Is(err, service.ErrImportBadHeader),
		errors.Is(err, service.ErrImportUnreadable):
		response.ValidationError(c, map[string]string{"file": err.Error()})
	default:
		response.InternalError(c)
	}
}
