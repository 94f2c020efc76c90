package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imtr/backend/config"
	"imtr/backend/internal/api/handler"
	"imtr/backend/internal/api/router"
	"imtr/backend/internal/repository"
	"imtr/backend/internal/service"
	"imtr/backend/internal/validation"
	"imtr/backend/pkg/database"
	"imtr/backend/pkg/events"
	"imtr/backend/pkg/jwt"
	applogger "imtr/backend/pkg/logger"
	"imtr/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to ./config/config.yaml)")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting imtr backend",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("events_driver", cfg.Events.Driver),
	)

	if err := validation.RegisterGinRules(); err != nil {
		logger.Fatal("failed to register validation rules", zap.Error(err))
	}

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	// 4. redis is optional: without it logout cannot revoke tokens, login is not
	// throttled and statistics are computed on every request
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without blacklist, rate limit and cache", zap.Error(err))
		rdb = nil
	}

	// 5. domain events
	bus, err := events.NewBus(&cfg.Events, logger)
	if err != nil {
		logger.Fatal("failed to start event bus", zap.Error(err))
	}

	rootCtx, stop := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := events.RunAuditLog(rootCtx, bus, logger.Named("audit"), events.AllTopics...); err != nil {
			logger.Error("audit consumer stopped", zap.Error(err))
		}
	}()

	// 6. repository → service → handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, bus, logger)
	h := handler.NewHandler(svc)

	workers.Add(1)
	go func() {
		defer workers.Done()
		runOverdueSweeper(rootCtx, svc.Finance, cfg.Finance.OverdueSweepInterval, logger)
	}()

	// 7. HTTP
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, jwtMgr, svc.Auth, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 8. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	stop()
	workers.Wait()

	if err := bus.Close(); err != nil {
		logger.Error("failed to close event bus", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}

// runOverdueSweeper marks past-due pending invoices overdue once at startup and
// then every interval until ctx is cancelled.
func runOverdueSweeper(ctx context.Context, finance service.FinanceService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("overdue sweeper disabled")
		return
	}

	sweep := func() {
		n, err := finance.MarkOverdueInvoices(ctx, time.Now())
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("overdue sweep failed", zap.Error(err))
			}
			return
		}
		if n > 0 {
			logger.Info("invoices marked overdue", zap.Int64("count", n))
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
