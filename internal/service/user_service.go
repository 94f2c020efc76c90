package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"imtr/backend/internal/dto"
	"imtr/backend/internal/model"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	pkgerrors "imtr/backend/pkg/errors"
)

// ── user module errors ──

var (
	ErrUserSelfRoleChange = errors.New("you cannot change your own role")
	ErrUserSelfDelete     = errors.New("you cannot delete your own account")
	ErrUserSelfDeactivate = errors.New("you cannot deactivate your own account")
	ErrUserPendingReview  = errors.New("pending registrations are activated through student approval")
)

// UserService user administration
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	ListLecturers(ctx context.Context, req *dto.LecturerListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, id, status, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow one parsed spreadsheet row
type ImportUserRow struct {
	Row        int
	FirstName  string
	LastName   string
	Email      string
	Role       string
	Phone      string
	NationalID string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	if fields := validation.PasswordConfirmation("password_confirmation", req.Password, req.PasswordConfirmation); len(fields) > 0 {
		return nil, fields
	}

	profile, err := buildProfile(&req.ProfileRequest)
	if err != nil {
		return nil, err
	}
	if err := ensureUniqueIdentity(ctx, s.repo, req.Email, profile.NationalID, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.UserStatusActive
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       status,
		Profile:      profile,
	}
	user.CreatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.UserListFilters{
		Role:          req.Role,
		Status:        req.Status,
		EmailVerified: req.EmailVerified,
		Search:        req.GetSearch(),
	}
	return s.list(ctx, filters, &req.ListQuery)
}

// ListLecturers users list with the role fixed to LECTURER
func (s *userService) ListLecturers(ctx context.Context, req *dto.LecturerListRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.UserListFilters{
		Role:   model.RoleLecturer,
		Status: req.Status,
		Search: req.GetSearch(),
	}
	return s.list(ctx, filters, &req.ListQuery)
}

func (s *userService) list(ctx context.Context, filters *repository.UserListFilters, q *dto.ListQuery) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, filters, listParams(q))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSortField) {
			return nil, 0, listError(err)
		}
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		if id == callerID {
			return nil, ErrUserSelfRoleChange
		}
		user.Role = *req.Role
	}

	nationalID := trimmedOrNil(req.NationalID)
	email := ""
	if req.Email != nil {
		email = *req.Email
	}
	if err := ensureUniqueIdentity(ctx, s.repo, email, nationalID, id); err != nil {
		return nil, err
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	profile := user.Profile
	if profile == nil {
		profile = &model.UserProfile{UserID: user.ID}
	}
	profileChanged, err := applyProfileUpdate(profile, req)
	if err != nil {
		return nil, err
	}

	user.UpdatedBy = &callerID

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Update(ctx, user); err != nil {
			return err
		}
		if profileChanged {
			return txRepo.User.SaveProfile(ctx, profile)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrConcurrentUpdate
		}
		s.logger.Error("failed to update user", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	user.Profile = profile
	return toUserResponse(user), nil
}

// applyProfileUpdate copies the non-nil profile fields; reports whether anything changed
func applyProfileUpdate(p *model.UserProfile, req *dto.UpdateUserRequest) (bool, error) {
	changed := false
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
		changed = true
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
		changed = true
	}
	if req.Phone != nil {
		p.Phone = trimmedOrNil(req.Phone)
		changed = true
	}
	if req.Gender != nil {
		p.Gender = trimmedOrNil(req.Gender)
		changed = true
	}
	if req.Address != nil {
		p.Address = trimmedOrNil(req.Address)
		changed = true
	}
	if req.NationalID != nil {
		p.NationalID = trimmedOrNil(req.NationalID)
		changed = true
	}
	if req.DateOfBirth != nil {
		dob, err := parseOptionalDate(req.DateOfBirth)
		if err != nil {
			return false, validation.FieldErrors{"date_of_birth": "must be a date in YYYY-MM-DD format"}
		}
		p.DateOfBirth = dob
		changed = true
	}
	return changed, nil
}

// ────────────────────── UpdateStatus ──────────────────────

// UpdateStatus changes an account status. Pending student registrations are
// only decided through the approval workflow.
func (s *userService) UpdateStatus(ctx context.Context, id, status, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == callerID && status != model.UserStatusActive {
		return nil, ErrUserSelfDeactivate
	}
	if user.Status == model.UserStatusPending && user.Role == model.RoleStudent {
		return nil, ErrUserPendingReview
	}

	if err := s.repo.User.SetStatus(ctx, id, status, callerID); err != nil {
		s.logger.Error("failed to update user status", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	user.Status = status
	return toUserResponse(user), nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("failed to delete user", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("spreadsheet has no data rows (the first row is the header)")
	ErrImportTooManyRows = fmt.Errorf("spreadsheet exceeds %d data rows", maxImportRows)
	ErrImportBadHeader   = errors.New("spreadsheet header must contain first_name, last_name, email and role")
	ErrImportUnreadable  = errors.New("file is not a readable .xlsx workbook")
)

// ParseImportFile reads the first sheet of an xlsx workbook. Column order is
// free; the header row names the columns.
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("cannot read worksheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseHeaderIndex(excelRows[0])
	for _, required := range []string{"first_name", "last_name", "email", "role"} {
		if col[required] < 0 {
			return nil, ErrImportBadHeader
		}
	}

	cell := func(row []string, key string) string {
		idx := col[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := ImportUserRow{
			Row:        i + 1,
			FirstName:  cell(r, "first_name"),
			LastName:   cell(r, "last_name"),
			Email:      cell(r, "email"),
			Role:       strings.ToUpper(cell(r, "role")),
			Phone:      cell(r, "phone"),
			NationalID: cell(r, "national_id"),
		}
		if item.FirstName == "" && item.LastName == "" && item.Email == "" && item.Role == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex maps normalised column names to their index, -1 when absent
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"first_name":  -1,
		"last_name":   -1,
		"email":       -1,
		"role":        -1,
		"phone":       -1,
		"national_id": -1,
	}
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, ok := idx[key]; ok {
			idx[key] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

// ImportUsers validates every row first and then creates the valid ones in a
// single transaction. Students cannot be imported: they enter through
// registration and approval.
func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	type validatedRow struct {
		row      ImportUserRow
		hash     []byte
		password string
	}
	var valid []validatedRow
	seen := make(map[string]bool, len(rows))

	reject := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if reason := checkImportRow(&row); reason != "" {
			reject(row.Row, reason)
			continue
		}

		email := strings.ToLower(row.Email)
		if seen[email] {
			reject(row.Row, "duplicate email in file: "+row.Email)
			continue
		}

		var nid *string
		if row.NationalID != "" {
			nid = &row.NationalID
		}
		if err := ensureUniqueIdentity(ctx, s.repo, row.Email, nid, ""); err != nil {
			switch {
			case errors.Is(err, ErrEmailExists):
				reject(row.Row, "email already registered: "+row.Email)
			case errors.Is(err, ErrNationalIDExists):
				reject(row.Row, "national id already registered: "+row.NationalID)
			default:
				return nil, err
			}
			continue
		}
		seen[email] = true

		password, err := generateTempPassword(10)
		if err != nil {
			s.logger.Error("failed to generate temporary password", zap.Error(err))
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			reject(row.Row, "failed to hash password")
			continue
		}
		valid = append(valid, validatedRow{row: row, hash: hash, password: password})
	}

	if len(valid) == 0 {
		return resp, nil
	}

	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		for _, vr := range valid {
			user := &model.User{
				Email:        strings.ToLower(vr.row.Email),
				PasswordHash: string(vr.hash),
				Role:         vr.row.Role,
				Status:       model.UserStatusActive,
				Profile: &model.UserProfile{
					FirstName:  vr.row.FirstName,
					LastName:   vr.row.LastName,
					Phone:      nonEmpty(vr.row.Phone),
					NationalID: nonEmpty(vr.row.NationalID),
				},
			}
			user.CreatedBy = &callerID

			if err := txRepo.User.Create(ctx, user); err != nil {
				s.logger.Error("import row failed, rolling back", zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("row %d could not be saved, import rolled back: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, vr := range valid {
		resp.Success++
		resp.Created = append(resp.Created, dto.ImportedUser{
			Row:          vr.row.Row,
			Email:        strings.ToLower(vr.row.Email),
			TempPassword: vr.password,
		})
	}

	s.logger.Info("users imported", zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// checkImportRow returns a rejection reason, empty when the row is acceptable
func checkImportRow(row *ImportUserRow) string {
	if row.FirstName == "" || row.LastName == "" || row.Email == "" || row.Role == "" {
		return "first_name, last_name, email and role are required"
	}
	if !validation.IsEmail(row.Email) {
		return "invalid email: " + row.Email
	}
	if !isValidRole(row.Role) {
		return "unknown role: " + row.Role
	}
	if row.Role == model.RoleStudent {
		return "students register themselves and are admitted through approval"
	}
	if row.Phone != "" && !validation.IsKenyanPhone(row.Phone) {
		return "invalid phone: " + row.Phone
	}
	if row.NationalID != "" && !validation.IsNationalID(row.NationalID) {
		return "national id must be 8 digits"
	}
	return ""
}

// ── helpers ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func isValidRole(role string) bool {
	for _, r := range model.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// generateTempPassword random password with at least one letter and one digit
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
