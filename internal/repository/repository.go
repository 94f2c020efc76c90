package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every repository
type Repository struct {
	db *gorm.DB

	User     UserRepository
	Student  StudentRepository
	Approval ApprovalRepository
	Program  ProgramRepository
	Course   CourseRepository
	Invoice  InvoiceRepository
	Payment  PaymentRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		User:     NewUserRepo(db),
		Student:  NewStudentRepo(db),
		Approval: NewApprovalRepo(db),
		Program:  NewProgramRepo(db),
		Course:   NewCourseRepo(db),
		Invoice:  NewInvoiceRepo(db),
		Payment:  NewPaymentRepo(db),
	}
}

// BeginTx starts a transaction. Returns nil, nil when the aggregate has no
// database (unit tests with in-memory repositories); callers guard with
// `if tx != nil`.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns an aggregate whose repositories run on tx. A nil tx returns
// the receiver unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
