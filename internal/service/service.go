package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"imtr/backend/config"
	"imtr/backend/internal/dto"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/validation"
	"imtr/backend/pkg/events"
	"imtr/backend/pkg/jwt"
	"imtr/backend/pkg/redis"
)

// ErrConcurrentUpdate the record changed since it was read
var ErrConcurrentUpdate = errors.New("record was modified by another request, reload and retry")

// TokenStore revoked token storage
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Cache JSON cache for dashboard aggregates
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Service aggregate of every service
type Service struct {
	Auth    AuthService
	User    UserService
	Student StudentService
	Program ProgramService
	Course  CourseService
	Finance FinanceService
	Export  ExportService
}

// NewService wires the services. rdb may be nil when Redis is not configured:
// logout then only discards tokens client-side and statistics are not cached.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	bus events.Publisher,
	logger *zap.Logger,
) *Service {
	var (
		tokens TokenStore
		cache  Cache
	)
	if rdb != nil {
		tokens = rdb
		cache = rdb
	}

	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, tokens, logger),
		User:    NewUserService(repo, logger),
		Student: NewStudentService(repo, bus, logger),
		Program: NewProgramService(repo, logger),
		Course:  NewCourseService(repo, logger),
		Finance: NewFinanceService(&cfg.Finance, repo, cache, bus, logger),
		Export:  NewExportService(cfg, repo, logger),
	}
}

// ── shared helpers ──

// runInTx runs fn on a transactional repository. With an in-memory repository
// (no database) fn runs directly on repo.
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("failed to commit transaction", zap.Error(err))
			return err
		}
	}
	return nil
}

// publish emits a domain event; failures are logged and never fail the caller
func publish(ctx context.Context, bus events.Publisher, logger *zap.Logger, topic string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, topic, payload); err != nil {
		logger.Warn("failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}

func listParams(q *dto.ListQuery) repository.ListParams {
	return repository.ListParams{
		Offset:    q.GetOffset(),
		Limit:     q.GetLimit(),
		SortBy:    q.SortBy,
		SortOrder: q.GetSortOrder(),
	}
}

// listError turns an unsupported sortBy into a field error
func listError(err error) error {
	if errors.Is(err, repository.ErrInvalidSortField) {
		return validation.FieldErrors{"sortBy": "unsupported sort field"}
	}
	return err
}
