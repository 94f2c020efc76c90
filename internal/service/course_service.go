package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	pkgerrors "imtr/backend/pkg/errors"
)

// ── course module errors ──

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrCourseCodeExists = errors.New("course code already exists in this program")
)

// CourseService courses within programs
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService creates a CourseService
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	if fields := validation.GradingSystem(req.GradingSystem); len(fields) > 0 {
		return nil, fields
	}

	program, err := s.repo.Program.GetByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation.FieldErrors{"program_id": "program does not exist"}
		}
		s.logger.Error("failed to load program", zap.String("program_id", req.ProgramID), zap.Error(err))
		return nil, err
	}

	code := normalizeCode(req.Code)
	if err := s.ensureCodeFree(ctx, program.ID, code, ""); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.CourseStatusActive
	}
	offered := true
	if req.IsOffered != nil {
		offered = *req.IsOffered
	}

	course := &model.Course{
		ProgramID:     program.ID,
		Code:          code,
		Title:         strings.TrimSpace(req.Title),
		Credits:       req.Credits,
		Year:          req.Year,
		Semester:      req.Semester,
		CourseType:    req.CourseType,
		Status:        status,
		IsOffered:     offered,
		Hours:         datatypes.NewJSONType(fromHoursDTO(req.Hours)),
		GradingSystem: datatypes.NewJSONType(fromGradingDTO(req.GradingSystem)),
	}
	course.CreatedBy = &callerID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("failed to create course", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	course.Program = program
	return toCourseResponse(course), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	filters := &repository.CourseListFilters{
		ProgramID:  req.ProgramID,
		Year:       req.Year,
		Semester:   req.Semester,
		CourseType: req.CourseType,
		Status:     req.Status,
		IsOffered:  req.IsOffered,
		Search:     req.GetSearch(),
	}

	courses, total, err := s.repo.Course.List(ctx, filters, listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	if req.GradingSystem != nil {
		if fields := validation.GradingSystem(*req.GradingSystem); len(fields) > 0 {
			return nil, fields
		}
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := normalizeCode(*req.Code)
		if code != course.Code {
			if err := s.ensureCodeFree(ctx, course.ProgramID, code, id); err != nil {
				return nil, err
			}
			course.Code = code
		}
	}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Year != nil {
		course.Year = *req.Year
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}
	if req.CourseType != nil {
		course.CourseType = *req.CourseType
	}
	if req.Status != nil {
		course.Status = *req.Status
	}
	if req.IsOffered != nil {
		course.IsOffered = *req.IsOffered
	}
	if req.Hours != nil {
		course.Hours = datatypes.NewJSONType(fromHoursDTO(*req.Hours))
	}
	if req.GradingSystem != nil {
		course.GradingSystem = datatypes.NewJSONType(fromGradingDTO(*req.GradingSystem))
	}
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrConcurrentUpdate
		}
		s.logger.Error("failed to update course", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.getCourse(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Course.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("failed to delete course", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *courseService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("failed to load course", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (s *courseService) ensureCodeFree(ctx context.Context, programID, code, excludeID string) error {
	existing, err := s.repo.Course.GetByProgramAndCode(ctx, programID, code)
	if err == nil && existing.ID != excludeID {
		return ErrCourseCodeExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func fromHoursDTO(h dto.CourseHours) model.CourseHours {
	return model.CourseHours{
		Lecture:   h.Lecture,
		Tutorial:  h.Tutorial,
		Practical: h.Practical,
		FieldWork: h.FieldWork,
	}
}

func fromGradingDTO(g dto.GradingSystem) model.GradingSystem {
	return model.GradingSystem{
		Assignments: g.Assignments,
		Midterm:     g.Midterm,
		FinalExam:   g.FinalExam,
	}
}
