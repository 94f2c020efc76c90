package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	pkgerrors "imtr/backend/pkg/errors"
	"imtr/backend/pkg/events"
)

// ── student module errors ──

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrStudentNotPending = errors.New("registration is not pending review")
)

// StudentService enrolled students and the registration approval workflow
type StudentService interface {
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	UpdateStatus(ctx context.Context, id, status, callerID string) (*dto.StudentResponse, error)

	ListPending(ctx context.Context, req *dto.PendingListRequest) ([]dto.PendingRegistrationResponse, int64, error)
	Approve(ctx context.Context, userID string, req *dto.ApproveStudentRequest, reviewerID string) (*dto.ApprovalResponse, error)
	Reject(ctx context.Context, userID string, req *dto.RejectStudentRequest, reviewerID string) (*dto.ApprovalResponse, error)
	History(ctx context.Context, req *dto.ApprovalHistoryRequest) ([]dto.ApprovalResponse, int64, error)
}

type studentService struct {
	repo   *repository.Repository
	bus    events.Publisher
	logger *zap.Logger
}

// NewStudentService creates a StudentService; bus may be nil
func NewStudentService(repo *repository.Repository, bus events.Publisher, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, bus: bus, logger: logger}
}

// ────────────────────── roster ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	filters := &repository.StudentListFilters{
		ProgramID:       req.ProgramID,
		Status:          req.Status,
		EnrollmentYear:  req.EnrollmentYear,
		ScholarshipType: req.ScholarshipType,
		Search:          req.GetSearch(),
	}

	students, total, err := s.repo.Student.List(ctx, filters, listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list students", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) UpdateStatus(ctx context.Context, id, status, callerID string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Student.SetStatus(ctx, id, status, callerID); err != nil {
		s.logger.Error("failed to update student status", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	student.Status = status
	return toStudentResponse(student), nil
}

// ────────────────────── pending registrations ──────────────────────

// ListPending STUDENT accounts in pending state that have not been reviewed
func (s *studentService) ListPending(ctx context.Context, req *dto.PendingListRequest) ([]dto.PendingRegistrationResponse, int64, error) {
	users, total, err := s.repo.User.ListPending(ctx, req.GetSearch(), listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list pending registrations", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PendingRegistrationResponse, 0, len(users))
	for i := range users {
		result = append(result, toPendingResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Approve ──────────────────────

// Approve admits a pending registration into a program. The user transition,
// the student record and the review record are written in one transaction;
// the conditional transition makes a concurrent second decision fail with
// ErrStudentNotPending.
func (s *studentService) Approve(ctx context.Context, userID string, req *dto.ApproveStudentRequest, reviewerID string) (*dto.ApprovalResponse, error) {
	if fields := validation.Approval(req); len(fields) > 0 {
		return nil, fields
	}
	admission, err := validation.ParseDate(req.AdmissionDate)
	if err != nil {
		return nil, validation.FieldErrors{"admission_date": "must be a date in YYYY-MM-DD format"}
	}

	user, err := s.loadRegistration(ctx, userID)
	if err != nil {
		return nil, err
	}

	scholarship := req.ScholarshipType
	if scholarship == "" {
		scholarship = model.ScholarshipNone
	}
	amount := 0.0
	if scholarship != model.ScholarshipNone && req.ScholarshipAmount != nil {
		amount = model.RoundKES(*req.ScholarshipAmount)
	}

	now := time.Now()
	var (
		student  *model.Student
		approval *model.StudentApproval
	)

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		program, err := txRepo.Program.GetByIDForUpdate(ctx, req.ProgramID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validation.FieldErrors{"program_id": "program does not exist"}
			}
			return err
		}
		if program.Status != model.ProgramStatusActive {
			return validation.FieldErrors{"program_id": "program is not accepting students"}
		}

		if err := txRepo.User.TransitionStatus(ctx, userID, model.RoleStudent,
			model.UserStatusPending, model.UserStatusActive, reviewerID); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrStudentNotPending
			}
			return err
		}

		prefix := studentNumberPrefix(program.Code, req.EnrollmentYear)
		seq, err := txRepo.Student.MaxSequence(ctx, prefix)
		if err != nil {
			return err
		}

		student = &model.Student{
			UserID:            userID,
			ProgramID:         program.ID,
			StudentNumber:     fmt.Sprintf("%s%04d", prefix, seq+1),
			EnrollmentYear:    req.EnrollmentYear,
			AdmissionDate:     admission,
			ScholarshipType:   scholarship,
			ScholarshipAmount: amount,
			Status:            model.StudentStatusActive,
		}
		student.CreatedBy = &reviewerID
		if err := txRepo.Student.Create(ctx, student); err != nil {
			return err
		}
		student.Program = program

		programID := program.ID
		approval = &model.StudentApproval{
			UserID:     userID,
			Decision:   model.DecisionApproved,
			ProgramID:  &programID,
			ReviewedBy: reviewerID,
			ReviewedAt: now,
		}
		return txRepo.Approval.Create(ctx, approval)
	})
	if err != nil {
		if isDecisionError(err) {
			return nil, err
		}
		s.logger.Error("failed to approve registration", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("registration approved",
		zap.String("user_id", userID),
		zap.String("student_number", student.StudentNumber),
		zap.String("reviewed_by", reviewerID),
	)

	publish(ctx, s.bus, s.logger, events.TopicStudentApproved, events.StudentApproved{
		UserID:        userID,
		StudentID:     student.ID,
		StudentNumber: student.StudentNumber,
		ProgramID:     student.ProgramID,
		ReviewedBy:    reviewerID,
		ReviewedAt:    now,
	})

	user.Status = model.UserStatusActive
	student.User = user
	approval.User = user
	resp := toApprovalResponse(approval)
	resp.Student = toStudentResponse(student)
	return resp, nil
}

// ────────────────────── Reject ──────────────────────

func (s *studentService) Reject(ctx context.Context, userID string, req *dto.RejectStudentRequest, reviewerID string) (*dto.ApprovalResponse, error) {
	if fields := validation.Rejection(req.RejectionReason); len(fields) > 0 {
		return nil, fields
	}
	reason := strings.TrimSpace(req.RejectionReason)

	user, err := s.loadRegistration(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	approval := &model.StudentApproval{
		UserID:          userID,
		Decision:        model.DecisionRejected,
		RejectionReason: &reason,
		ReviewedBy:      reviewerID,
		ReviewedAt:      now,
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.User.TransitionStatus(ctx, userID, model.RoleStudent,
			model.UserStatusPending, model.UserStatusInactive, reviewerID); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrStudentNotPending
			}
			return err
		}
		return txRepo.Approval.Create(ctx, approval)
	})
	if err != nil {
		if isDecisionError(err) {
			return nil, err
		}
		s.logger.Error("failed to reject registration", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("registration rejected", zap.String("user_id", userID), zap.String("reviewed_by", reviewerID))

	publish(ctx, s.bus, s.logger, events.TopicStudentRejected, events.StudentRejected{
		UserID:     userID,
		Reason:     reason,
		ReviewedBy: reviewerID,
		ReviewedAt: now,
	})

	user.Status = model.UserStatusInactive
	approval.User = user
	return toApprovalResponse(approval), nil
}

// ────────────────────── History ──────────────────────

func (s *studentService) History(ctx context.Context, req *dto.ApprovalHistoryRequest) ([]dto.ApprovalResponse, int64, error) {
	approvals, total, err := s.repo.Approval.List(ctx, req.Decision, req.GetSearch(), listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list approval history", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		result = append(result, *toApprovalResponse(&approvals[i]))
	}
	return result, total, nil
}

// ── helpers ──

// loadRegistration the user must exist; anything but a pending STUDENT is
// already decided
func (s *studentService) loadRegistration(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load registration", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user.Role != model.RoleStudent || user.Status != model.UserStatusPending {
		return nil, ErrStudentNotPending
	}
	return user, nil
}

// studentNumberPrefix "DIT/2025/"
func studentNumberPrefix(programCode string, year int) string {
	return fmt.Sprintf("%s/%d/", strings.ToUpper(strings.TrimSpace(programCode)), year)
}

func isDecisionError(err error) bool {
	if _, ok := validation.AsFieldErrors(err); ok {
		return true
	}
	return errors.Is(err, ErrStudentNotPending)
}
