package handler

import (
	"github.com/gin-gonic/gin"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/service"
	"imtr/backend/pkg/response"
)

// ApprovalHandler review of student self-registrations. Decisions are final:
// a second approve or reject of the same user is a 409.
type ApprovalHandler struct {
	studentSvc service.StudentService
}

// NewApprovalHandler creates an ApprovalHandler
func NewApprovalHandler(studentSvc service.StudentService) *ApprovalHandler {
	return &ApprovalHandler{studentSvc: studentSvc}
}

// ListPending registrations awaiting review
// GET /api/v1/student-approvals/pending
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	var req dto.PendingListRequest
	if !bindQuery(c, &req) {
		return
	}

	pending, total, err := h.studentSvc.ListPending(c.Request.Context(), &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OKPage(c, "students", pending, total, req.GetPage(), req.GetLimit())
}

// Approve enrols the registration into a program
// POST /api/v1/student-approvals/approve/:userId
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req dto.ApproveStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.studentSvc.Approve(c.Request.Context(), c.Param("userId"), &req, reviewerID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject
// POST /api/v1/student-approvals/reject/:userId
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req dto.RejectStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.studentSvc.Reject(c.Request.Context(), c.Param("userId"), &req, reviewerID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// History past decisions
// GET /api/v1/student-approvals/history
func (h *ApprovalHandler) History(c *gin.Context) {
	var req dto.ApprovalHistoryRequest
	if !bindQuery(c, &req) {
		return
	}

	approvals, total, err := h.studentSvc.History(c.Request.Context(), &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OKPage(c, "approvals", approvals, total, req.GetPage(), req.GetLimit())
}
