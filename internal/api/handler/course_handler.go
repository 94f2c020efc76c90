package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// CourseHandler courses within programs
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler creates a CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if !bindQuery(c, &req) {
		return
	}

	courses, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OKPage(c, "courses", courses, total, req.GetPage(), req.GetLimit())
}

// GetCourse
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleCourseError(c, err)
		return
	}

	response.OKMessage(c, "course deleted")
}

func handleCourseError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrCourseCodeExists):
		response.ValidationError(c, map[string]string{"code": err.Error()})
	default:
		response.InternalError(c)
	}
}
