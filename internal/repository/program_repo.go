package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"imtr/backend/internal/model"
	pkgerrors "imtr/backend/pkg/errors"
)

// ProgramListFilters filters of GET /programs
type ProgramListFilters struct {
	Level      string
	Status     string
	Department string
	Faculty    string
	Search     string
}

// ProgramRepository program data access
type ProgramRepository interface {
	Create(ctx context.Context, program *model.Program) error
	GetByID(ctx context.Context, id string) (*model.Program, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Program, error)
	GetByCode(ctx context.Context, code string) (*model.Program, error)
	Update(ctx context.Context, program *model.Program) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filters *ProgramListFilters, p ListParams) ([]model.Program, int64, error)
}

type programRepo struct {
	db *gorm.DB
}

// NewProgramRepo creates a ProgramRepository
func NewProgramRepo(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

var programSorts = sortColumns{
	"created_at":      "programs.created_at",
	"name":            "programs.name",
	"code":            "programs.code",
	"level":           "programs.level",
	"duration_months": "programs.duration_months",
	"status":          "programs.status",
}

func (r *programRepo) Create(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

func (r *programRepo) GetByID(ctx context.Context, id string) (*model.Program, error) {
	var p model.Program
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDForUpdate row-locks the program for the rest of the transaction;
// approvals use it to serialise student number allocation per program.
func (r *programRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Program, error) {
	var p model.Program
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) GetByCode(ctx context.Context, code string) (*model.Program, error) {
	var p model.Program
	if err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) Update(ctx context.Context, program *model.Program) error {
	oldVersion := program.Version
	result := r.db.WithContext(ctx).
		Model(program).
		Where("version = ?", oldVersion).
		Updates(map[string]interface{}{
			"name":            program.Name,
			"code":            program.Code,
			"level":           program.Level,
			"duration_months": program.DurationMonths,
			"total_credits":   program.TotalCredits,
			"fees":            program.Fees,
			"status":          program.Status,
			"department":      program.Department,
			"faculty":         program.Faculty,
			"coordinator_id":  program.CoordinatorID,
			"updated_by":      program.UpdatedBy,
			"updated_at":      time.Now(),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	program.Version = oldVersion + 1
	return nil
}

func (r *programRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Program{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *programRepo) List(ctx context.Context, filters *ProgramListFilters, p ListParams) ([]model.Program, int64, error) {
	return listPage[model.Program](ctx, r.db, p, programSorts, func(q *gorm.DB) *gorm.DB {
		if filters.Level != "" {
			q = q.Where("programs.level = ?", filters.Level)
		}
		if filters.Status != "" {
			q = q.Where("programs.status = ?", filters.Status)
		}
		if filters.Department != "" {
			q = q.Where("programs.department = ?", filters.Department)
		}
		if filters.Faculty != "" {
			q = q.Where("programs.faculty = ?", filters.Faculty)
		}
		if filters.Search != "" {
			like := likePattern(filters.Search)
			q = q.Where("programs.name ILIKE ? OR programs.code ILIKE ?", like, like)
		}
		return q
	})
}
