package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// ProgramHandler academic programs
type ProgramHandler struct {
	programSvc service.ProgramService
}

// NewProgramHandler creates a ProgramHandler
func NewProgramHandler(programSvc service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programSvc: programSvc}
}

// ListPrograms
// GET /api/v1/programs
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	var req dto.ProgramListRequest
	if !bindQuery(c, &req) {
		return
	}

	programs, total, err := h.programSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleProgramError(c, err)
		return
	}

	response.OKPage(c, "programs", programs, total, req.GetPage(), req.GetLimit())
}

// GetProgram
// GET /api/v1/programs/:id
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	program, err := h.programSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleProgramError(c, err)
		return
	}

	response.OK(c, program)
}

// CreateProgram
// POST /api/v1/programs
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req dto.CreateProgramRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	program, err := h.programSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleProgramError(c, err)
		return
	}

	response.Created(c, program)
}

// UpdateProgram
// PUT /api/v1/programs/:id
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	var req dto.UpdateProgramRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	program, err := h.programSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleProgramError(c, err)
		return
	}

	response.OK(c, program)
}

// DeleteProgram refused while students are enrolled
// DELETE /api/v1/programs/:id
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.programSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleProgramError(c, err)
		return
	}

	response.OKMessage(c, "program deleted")
}

func handleProgramError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrProgramCodeExists):
		response.ValidationError(c, map[string]string{"code": err.Error()})
	case errors.Is(err, service.ErrProgramHasStudents):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c)
	}
}
