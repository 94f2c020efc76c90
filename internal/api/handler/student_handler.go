package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// StudentHandler enrolled student roster
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler creates a StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents enrolled students only; pending registrations live under
// /student-approvals/pending
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if !bindQuery(c, &req) {
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OKPage(c, "students", students, total, req.GetPage(), req.GetLimit())
}

// GetStudent
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	student, err := h.studentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// UpdateStudentStatus suspend, graduate or withdraw a student
// PUT /api/v1/students/:id/status
func (h *StudentHandler) UpdateStudentStatus(c *gin.Context) {
	var req dto.UpdateStudentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, callerID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

func handleStudentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrStudentNotPending):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c)
	}
}
