package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"imtr/backend/internal/model"
	pkgerrors "imtr/backend/pkg/errors"
)

// CourseListFilters filters of GET /courses
type CourseListFilters struct {
	ProgramID  string
	Year       int
	Semester   int
	CourseType string
	Status     string
	IsOffered  *bool
	Search     string
}

// CourseRepository course data access
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByProgramAndCode(ctx context.Context, programID, code string) (*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filters *CourseListFilters, p ListParams) ([]model.Course, int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates a CourseRepository
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

var courseSorts = sortColumns{
	"created_at": "courses.created_at",
	"code":       "courses.code",
	"title":      "courses.title",
	"credits":    "courses.credits",
	"year":       "courses.year",
	"semester":   "courses.semester",
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit("Program").Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).
		Preload("Program").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) GetByProgramAndCode(ctx context.Context, programID, code string) (*model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND UPPER(code) = UPPER(?)", programID, code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(course).
		Omit("Program").
		Where("version = ?", oldVersion).
		Updates(map[string]interface{}{
			"code":           course.Code,
			"title":          course.Title,
			"credits":        course.Credits,
			"year":           course.Year,
			"semester":       course.Semester,
			"course_type":    course.CourseType,
			"status":         course.Status,
			"is_offered":     course.IsOffered,
			"hours":          course.Hours,
			"grading_system": course.GradingSystem,
			"updated_by":     course.UpdatedBy,
			"updated_at":     time.Now(),
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version = oldVersion + 1
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *courseRepo) List(ctx context.Context, filters *CourseListFilters, p ListParams) ([]model.Course, int64, error) {
	return listPage[model.Course](ctx, r.db, p, courseSorts, func(q *gorm.DB) *gorm.DB {
		if filters.ProgramID != "" {
			q = q.Where("courses.program_id = ?", filters.ProgramID)
		}
		if filters.Year != 0 {
			q = q.Where("courses.year = ?", filters.Year)
		}
		if filters.Semester != 0 {
			q = q.Where("courses.semester = ?", filters.Semester)
		}
		if filters.CourseType != "" {
			q = q.Where("courses.course_type = ?", filters.CourseType)
		}
		if filters.Status != "" {
			q = q.Where("courses.status = ?", filters.Status)
		}
		if filters.IsOffered != nil {
			q = q.Where("courses.is_offered = ?", *filters.IsOffered)
		}
		if filters.Search != "" {
			like := likePattern(filters.Search)
			q = q.Where("courses.code ILIKE ? OR courses.title ILIKE ?", like, like)
		}
		return q
	}, "Program")
}
