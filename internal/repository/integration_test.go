//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/pkg/database"
	pkgerrors "imtr/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=imtr password=imtr_password dbname=imtr_test sslmode=disable TimeZone=Africa/Nairobi"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot get sql.DB: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func uniq(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

func createProgram(t *testing.T, repo *repository.Repository) *model.Program {
	t.Helper()
	p := &model.Program{
		Name:           "Diploma in Information Technology",
		Code:           uniq("D"),
		Level:          model.LevelDiploma,
		DurationMonths: 24,
		Fees:           datatypes.NewJSONType(model.FeeStructure{Tuition: 45000, Registration: 2000}),
		Status:         model.ProgramStatusActive,
	}
	if err := repo.Program.Create(context.Background(), p); err != nil {
		t.Fatalf("create program: %v", err)
	}
	t.Cleanup(func() { testDB.Unscoped().Where("id = ?", p.ID).Delete(&model.Program{}) })
	return p
}

func createPendingUser(t *testing.T, repo *repository.Repository) *model.User {
	t.Helper()
	u := &model.User{
		Email:        uniq("applicant") + "@example.com",
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleStudent,
		Status:       model.UserStatusPending,
		Profile:      &model.UserProfile{FirstName: "Achieng", LastName: "Otieno"},
	}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM student_approvals WHERE user_id = ?", u.ID)
		testDB.Exec("DELETE FROM students WHERE user_id = ?", u.ID)
		testDB.Unscoped().Where("id = ?", u.ID).Delete(&model.User{})
	})
	return u
}

// ═══════════════════════════════════════════════════════════
// Transactions
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	txRepo := repo.WithTx(tx)

	p := &model.Program{
		Name: "Rolled back", Code: uniq("RB"), Level: model.LevelCertificate, DurationMonths: 6,
		Fees: datatypes.NewJSONType(model.FeeStructure{}), Status: model.ProgramStatusActive,
	}
	if err := txRepo.Program.Create(ctx, p); err != nil {
		tx.Rollback()
		t.Fatalf("create in tx failed: %v", err)
	}
	tx.Rollback()

	if _, err := repo.Program.GetByID(ctx, p.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		testDB.Unscoped().Where("id = ?", p.ID).Delete(&model.Program{})
		t.Fatalf("expected ErrRecordNotFound after rollback, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Approval state transitions
// ═══════════════════════════════════════════════════════════

func TestUser_TransitionStatusIsOneShot(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	u := createPendingUser(t, repo)

	err := repo.User.TransitionStatus(ctx, u.ID, model.RoleStudent, model.UserStatusPending, model.UserStatusActive, u.ID)
	if err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	err = repo.User.TransitionStatus(ctx, u.ID, model.RoleStudent, model.UserStatusPending, model.UserStatusInactive, u.ID)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock on second transition, got %v", err)
	}

	got, _ := repo.User.GetByID(ctx, u.ID)
	if got.Status != model.UserStatusActive {
		t.Errorf("expected active, got %s", got.Status)
	}
}

func TestUser_ListPendingExcludesReviewed(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	u := createPendingUser(t, repo)
	reviewer := createPendingUser(t, repo)

	params := repository.ListParams{Limit: 100}
	found := func() bool {
		users, _, err := repo.User.ListPending(ctx, u.Email, params)
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		return len(users) == 1 && users[0].ID == u.ID
	}

	if !found() {
		t.Fatal("pending user should be listed")
	}

	reason := "incomplete documents"
	if err := repo.Approval.Create(ctx, &model.StudentApproval{
		UserID: u.ID, Decision: model.DecisionRejected, RejectionReason: &reason, ReviewedBy: reviewer.ID,
	}); err != nil {
		t.Fatalf("create approval: %v", err)
	}

	if found() {
		t.Error("reviewed user must leave the pending queue")
	}
}

// ═══════════════════════════════════════════════════════════
// Optimistic locking & list helper
// ═══════════════════════════════════════════════════════════

func TestProgram_UpdateOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	p := createProgram(t, repo)

	stale := *p
	p.Name = "Diploma in IT (revised)"
	if err := repo.Program.Update(ctx, p); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	stale.Name = "Lost update"
	if err := repo.Program.Update(ctx, &stale); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock, got %v", err)
	}
}

func TestList_RejectsUnknownSort(t *testing.T) {
	repo := repository.NewRepository(testDB)
	_, _, err := repo.Program.List(context.Background(), &repository.ProgramListFilters{},
		repository.ListParams{Limit: 10, SortBy: "password_hash"})
	if !errors.Is(err, repository.ErrInvalidSortField) {
		t.Fatalf("expected ErrInvalidSortField, got %v", err)
	}
}

func TestStudent_MaxSequence(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	p := createProgram(t, repo)
	prefix := p.Code + "/2025/"

	seq, err := repo.Student.MaxSequence(ctx, prefix)
	if err != nil || seq != 0 {
		t.Fatalf("expected 0 for a fresh prefix, got %d (%v)", seq, err)
	}

	for i, n := range []string{"0001", "0007"} {
		u := createPendingUser(t, repo)
		s := &model.Student{
			UserID: u.ID, ProgramID: p.ID, StudentNumber: prefix + n,
			EnrollmentYear: 2025, AdmissionDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			ScholarshipType: model.ScholarshipNone, Status: model.StudentStatusActive,
		}
		if err := repo.Student.Create(ctx, s); err != nil {
			t.Fatalf("create student %d: %v", i, err)
		}
	}

	seq, err = repo.Student.MaxSequence(ctx, prefix)
	if err != nil || seq != 7 {
		t.Fatalf("expected 7, got %d (%v)", seq, err)
	}
}

func TestStudent_MaxSequenceTreatsPrefixLiterally(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	p := createProgram(t, repo)

	tag := uniq("")
	other := "AB" + tag + "/2025/"
	u := createPendingUser(t, repo)
	s := &model.Student{
		UserID: u.ID, ProgramID: p.ID, StudentNumber: other + "0005",
		EnrollmentYear: 2025, AdmissionDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		ScholarshipType: model.ScholarshipNone, Status: model.StudentStatusActive,
	}
	if err := repo.Student.Create(ctx, s); err != nil {
		t.Fatalf("create student: %v", err)
	}

	for _, prefix := range []string{"A_" + tag + "/2025/", "A%" + tag + "/2025/", "%/2025/"} {
		seq, err := repo.Student.MaxSequence(ctx, prefix)
		if err != nil || seq != 0 {
			t.Errorf("prefix %q: expected 0, got %d (%v)", prefix, seq, err)
		}
	}
}
