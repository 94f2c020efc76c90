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
	pkgerrors "imtr/backend/pkg/errors"
)

// ── program module errors ──

var (
	ErrProgramNotFound    = errors.New("program not found")
	ErrProgramCodeExists  = errors.New("program code already exists")
	ErrProgramHasStudents = errors.New("program still has enrolled students")
)

// ProgramService academic programs
type ProgramService interface {
	Create(ctx context.Context, req *dto.CreateProgramRequest, callerID string) (*dto.ProgramResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ProgramResponse, error)
	List(ctx context.Context, req *dto.ProgramListRequest) ([]dto.ProgramResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateProgramRequest, callerID string) (*dto.ProgramResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type programService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProgramService creates a ProgramService
func NewProgramService(repo *repository.Repository, logger *zap.Logger) ProgramService {
	return &programService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *programService) Create(ctx context.Context, req *dto.CreateProgramRequest, callerID string) (*dto.ProgramResponse, error) {
	code := normalizeCode(req.Code)
	if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.ProgramStatusActive
	}

	program := &model.Program{
		Name:           strings.TrimSpace(req.Name),
		Code:           code,
		Level:          req.Level,
		DurationMonths: req.DurationMonths,
		TotalCredits:   req.TotalCredits,
		Fees:           datatypes.NewJSONType(fromFeeDTO(req.Fees)),
		Status:         status,
		Department:     trimmedOrNil(req.Department),
		Faculty:        trimmedOrNil(req.Faculty),
		CoordinatorID:  req.CoordinatorID,
	}
	program.CreatedBy = &callerID

	if err := s.repo.Program.Create(ctx, program); err != nil {
		s.logger.Error("failed to create program", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return toProgramResponse(program), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *programService) GetByID(ctx context.Context, id string) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProgramResponse(program), nil
}

func (s *programService) List(ctx context.Context, req *dto.ProgramListRequest) ([]dto.ProgramResponse, int64, error) {
	filters := &repository.ProgramListFilters{
		Level:      req.Level,
		Status:     req.Status,
		Department: req.Department,
		Faculty:    req.Faculty,
		Search:     req.GetSearch(),
	}

	programs, total, err := s.repo.Program.List(ctx, filters, listParams(&req.ListQuery))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list programs", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ProgramResponse, 0, len(programs))
	for i := range programs {
		result = append(result, *toProgramResponse(&programs[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *programService) Update(ctx context.Context, id string, req *dto.UpdateProgramRequest, callerID string) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := normalizeCode(*req.Code)
		if code != program.Code {
			if err := s.ensureCodeFree(ctx, code, id); err != nil {
				return nil, err
			}
			program.Code = code
		}
	}
	if req.Name != nil {
		program.Name = strings.TrimSpace(*req.Name)
	}
	if req.Level != nil {
		program.Level = *req.Level
	}
	if req.DurationMonths != nil {
		program.DurationMonths = *req.DurationMonths
	}
	if req.TotalCredits != nil {
		program.TotalCredits = *req.TotalCredits
	}
	if req.Fees != nil {
		program.Fees = datatypes.NewJSONType(fromFeeDTO(*req.Fees))
	}
	if req.Status != nil {
		program.Status = *req.Status
	}
	if req.Department != nil {
		program.Department = trimmedOrNil(req.Department)
	}
	if req.Faculty != nil {
		program.Faculty = trimmedOrNil(req.Faculty)
	}
	if req.CoordinatorID != nil {
		program.CoordinatorID = trimmedOrNil(req.CoordinatorID)
	}
	program.UpdatedBy = &callerID

	if err := s.repo.Program.Update(ctx, program); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrConcurrentUpdate
		}
		s.logger.Error("failed to update program", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toProgramResponse(program), nil
}

// ────────────────────── Delete ──────────────────────

// Delete soft-deletes a program that has no students
func (s *programService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.getProgram(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Student.CountByProgram(ctx, id)
	if err != nil {
		s.logger.Error("failed to count program students", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrProgramHasStudents
	}

	if err := s.repo.Program.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("failed to delete program", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *programService) getProgram(ctx context.Context, id string) (*model.Program, error) {
	program, err := s.repo.Program.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("failed to load program", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return program, nil
}

func (s *programService) ensureCodeFree(ctx context.Context, code, excludeID string) error {
	existing, err := s.repo.Program.GetByCode(ctx, code)
	if err == nil && existing.ID != excludeID {
		return ErrProgramCodeExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
