package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"imtr/backend/internal/model"
)

// StudentListFilters filters of GET /students
type StudentListFilters struct {
	ProgramID       string
	Status          string
	EnrollmentYear  int
	ScholarshipType string
	Search          string
}

// StudentRepository enrolled student data access
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	SetStatus(ctx context.Context, id, status, updatedBy string) error
	List(ctx context.Context, filters *StudentListFilters, p ListParams) ([]model.Student, int64, error)
	ListActiveByProgram(ctx context.Context, programID string) ([]model.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Student, error)
	CountByProgram(ctx context.Context, programID string) (int64, error)
	MaxSequence(ctx context.Context, prefix string) (int, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo creates a StudentRepository
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

var studentSorts = sortColumns{
	"created_at":      "students.created_at",
	"student_number":  "students.student_number",
	"enrollment_year": "students.enrollment_year",
	"admission_date":  "students.admission_date",
	"status":          "students.status",
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("User", "Program").Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Preload("Program").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Preload("Program").
		Where("user_id = ?", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) SetStatus(ctx context.Context, id, status, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

func (r *studentRepo) List(ctx context.Context, filters *StudentListFilters, p ListParams) ([]model.Student, int64, error) {
	return listPage[model.Student](ctx, r.db, p, studentSorts, func(q *gorm.DB) *gorm.DB {
		if filters.ProgramID != "" {
			q = q.Where("students.program_id = ?", filters.ProgramID)
		}
		if filters.Status != "" {
			q = q.Where("students.status = ?", filters.Status)
		}
		if filters.EnrollmentYear != 0 {
			q = q.Where("students.enrollment_year = ?", filters.EnrollmentYear)
		}
		if filters.ScholarshipType != "" {
			q = q.Where("students.scholarship_type = ?", filters.ScholarshipType)
		}
		if filters.Search != "" {
			like := likePattern(filters.Search)
			q = q.Where(
				"students.student_number ILIKE ? OR students.user_id IN ("+
					"SELECT u.id FROM users u LEFT JOIN user_profiles up ON up.user_id = u.id "+
					"WHERE u.email ILIKE ? OR up.first_name ILIKE ? OR up.last_name ILIKE ?)",
				like, like, like, like,
			)
		}
		return q
	}, "User.Profile", "Program")
}

func (r *studentRepo) ListActiveByProgram(ctx context.Context, programID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Where("program_id = ? AND status = ?", programID, model.StudentStatusActive).
		Order("student_number ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Student, error) {
	var students []model.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Where("id IN ?", ids).
		Find(&students).Error
	return students, err
}

func (r *studentRepo) CountByProgram(ctx context.Context, programID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("program_id = ?", programID).
		Count(&count).Error
	return count, err
}

// MaxSequence highest numeric suffix among student numbers starting with
// prefix ("DIT/2025/"), 0 when none exist. Soft-deleted rows count too since
// the number stays unique.
func (r *studentRepo) MaxSequence(ctx context.Context, prefix string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Student{}).
		Select(fmt.Sprintf("COALESCE(MAX(CAST(SUBSTRING(student_number FROM %d) AS INT)), 0)", len(prefix)+1)).
		Where("student_number LIKE ?", prefixPattern(prefix)).
		Scan(&max).Error
	return max, err
}
