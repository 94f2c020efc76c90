package repository

import (
	"context"

	"gorm.io/gorm"

	"imtr/backend/internal/model"
)

// ApprovalRepository review decision data access
type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.StudentApproval) error
	GetByUserID(ctx context.Context, userID string) (*model.StudentApproval, error)
	List(ctx context.Context, decision, search string, p ListParams) ([]model.StudentApproval, int64, error)
}

type approvalRepo struct {
	db *gorm.DB
}

// NewApprovalRepo creates an ApprovalRepository
func NewApprovalRepo(db *gorm.DB) ApprovalRepository {
	return &approvalRepo{db: db}
}

var approvalSorts = sortColumns{
	"created_at":  "student_approvals.created_at",
	"reviewed_at": "student_approvals.reviewed_at",
	"decision":    "student_approvals.decision",
}

func (r *approvalRepo) Create(ctx context.Context, approval *model.StudentApproval) error {
	return r.db.WithContext(ctx).Omit("User").Create(approval).Error
}

func (r *approvalRepo) GetByUserID(ctx context.Context, userID string) (*model.StudentApproval, error) {
	var a model.StudentApproval
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Where("user_id = ?", userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *approvalRepo) List(ctx context.Context, decision, search string, p ListParams) ([]model.StudentApproval, int64, error) {
	return listPage[model.StudentApproval](ctx, r.db, p, approvalSorts, func(q *gorm.DB) *gorm.DB {
		if decision != "" {
			q = q.Where("student_approvals.decision = ?", decision)
		}
		if search != "" {
			like := likePattern(search)
			q = q.Where(
				"student_approvals.user_id IN ("+
					"SELECT u.id FROM users u LEFT JOIN user_profiles up ON up.user_id = u.id "+
					"WHERE u.email ILIKE ? OR up.first_name ILIKE ? OR up.last_name ILIKE ?)",
				like, like, like,
			)
		}
		return q
	}, "User.Profile")
}
