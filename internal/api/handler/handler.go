package handler

import "imtr/backend/internal/service"

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Student  *StudentHandler
	Approval *ApprovalHandler
	Program  *ProgramHandler
	Course   *CourseHandler
	Finance  *FinanceHandler
	Export   *ExportHandler
}

// NewHandler wires handlers to their services
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Student:  NewStudentHandler(svc.Student),
		Approval: NewApprovalHandler(svc.Student),
		Program:  NewProgramHandler(svc.Program),
		Course:   NewCourseHandler(svc.Course),
		Finance:  NewFinanceHandler(svc.Finance),
		Export:   NewExportHandler(svc.Export),
	}
}
