package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"imtr/backend/internal/model"
	pkgerrors "imtr/backend/pkg/errors"
)

// UserListFilters filters of GET /users and GET /lecturers
type UserListFilters struct {
	Role          string
	Status        string
	EmailVerified *bool
	Search        string
}

// UserRepository user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	NationalIDTaken(ctx context.Context, nationalID, excludeUserID string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	SaveProfile(ctx context.Context, profile *model.UserProfile) error
	SetStatus(ctx context.Context, id, status, updatedBy string) error
	TransitionStatus(ctx context.Context, id, role, from, to, updatedBy string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filters *UserListFilters, p ListParams) ([]model.User, int64, error)
	ListPending(ctx context.Context, search string, p ListParams) ([]model.User, int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

var userSorts = sortColumns{
	"created_at":    "users.created_at",
	"updated_at":    "users.updated_at",
	"email":         "users.email",
	"role":          "users.role",
	"status":        "users.status",
	"last_login_at": "users.last_login_at",
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) NationalIDTaken(ctx context.Context, nationalID, excludeUserID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.UserProfile{}).Where("national_id = ?", nationalID)
	if excludeUserID != "" {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(user).
		Where("version = ?", oldVersion).
		Updates(map[string]interface{}{
			"email":      user.Email,
			"role":       user.Role,
			"status":     user.Status,
			"updated_by": user.UpdatedBy,
			"updated_at": time.Now(),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepo) SetStatus(ctx context.Context, id, status, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

// TransitionStatus moves a user from one status to another only if the row is
// still in the expected state; a lost race yields ErrOptimisticLock.
func (r *userRepo) TransitionStatus(ctx context.Context, id, role, from, to, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND role = ? AND status = ?", id, role, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now(),
		}).Error
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *userRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *userRepo) List(ctx context.Context, filters *UserListFilters, p ListParams) ([]model.User, int64, error) {
	return listPage[model.User](ctx, r.db, p, userSorts, func(q *gorm.DB) *gorm.DB {
		if filters.Role != "" {
			q = q.Where("users.role = ?", filters.Role)
		}
		if filters.Status != "" {
			q = q.Where("users.status = ?", filters.Status)
		}
		if filters.EmailVerified != nil {
			q = q.Where("users.email_verified = ?", *filters.EmailVerified)
		}
		if filters.Search != "" {
			q = searchUsers(q, filters.Search)
		}
		return q
	}, "Profile")
}

// ListPending STUDENT accounts awaiting review. The NOT EXISTS guard keeps a
// user out of the queue once a decision was recorded, whatever its status.
func (r *userRepo) ListPending(ctx context.Context, search string, p ListParams) ([]model.User, int64, error) {
	return listPage[model.User](ctx, r.db, p, userSorts, func(q *gorm.DB) *gorm.DB {
		q = q.Where("users.role = ? AND users.status = ?", model.RoleStudent, model.UserStatusPending).
			Where("NOT EXISTS (SELECT 1 FROM student_approvals sa WHERE sa.user_id = users.id)")
		if search != "" {
			q = searchUsers(q, search)
		}
		return q
	}, "Profile")
}

func searchUsers(q *gorm.DB, search string) *gorm.DB {
	like := likePattern(search)
	return q.Where(
		"users.email ILIKE ? OR users.id IN (SELECT user_id FROM user_profiles WHERE first_name ILIKE ? OR last_name ILIKE ? OR national_id ILIKE ?)",
		like, like, like, like,
	)
}
