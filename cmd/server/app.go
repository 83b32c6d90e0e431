package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/toeicprep/engine/internal/config"
	"github.com/toeicprep/engine/internal/domain/srs"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/platform/postgres"
	"github.com/toeicprep/engine/internal/service/exam"
	"github.com/toeicprep/engine/internal/service/quota"
	"github.com/toeicprep/engine/internal/service/review"
	"github.com/toeicprep/engine/internal/task"
	"github.com/toeicprep/engine/migrations"
)

// Database connection pool sizing.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// services bundles the wired engine surface. Nothing here serves requests
// yet; a transport layer would take this struct and expose the operations.
type services struct {
	Quota  quota.Service
	Review review.Service
	Exam   exam.Service
}

// run wires the application and blocks until a shutdown signal arrives.
func run(cfg *config.Config, appLogger *slog.Logger) error {
	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close database", "error", err)
		}
	}()

	appLogger.Info("applying database migrations")
	if err := migrations.Up(ctx, db); err != nil {
		return err
	}

	svcs, examStore := buildServices(db, appLogger)

	var watchdog *task.ExpiryWatchdog
	if cfg.Watchdog.Enabled {
		watchdog = task.NewExpiryWatchdog(
			examStore,
			svcs.Exam,
			clock.System(),
			time.Duration(cfg.Watchdog.IntervalSeconds)*time.Second,
			appLogger,
		)
		// Catch sessions that expired while the process was down.
		watchdog.Sweep(ctx)
		if err := watchdog.Start(); err != nil {
			return fmt.Errorf("failed to start expiry watchdog: %w", err)
		}
		defer watchdog.Stop()
	}

	appLogger.Info("engine ready",
		"watchdog_enabled", cfg.Watchdog.Enabled,
		"log_level", cfg.Server.LogLevel)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	appLogger.Info("shutdown signal received", "signal", sig.String())

	return nil
}

// openDatabase opens and verifies the connection pool.
func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// buildServices constructs the store and service graph. The exam store is
// returned separately because the watchdog lists expired sessions directly.
func buildServices(db *sql.DB, appLogger *slog.Logger) (*services, *postgres.PostgresExamStore) {
	subscriptionStore := postgres.NewPostgresSubscriptionStore(db, appLogger)
	usageStore := postgres.NewPostgresUsageStore(db, appLogger)
	progressStore := postgres.NewPostgresProgressStore(db, appLogger)
	reviewStore := postgres.NewPostgresReviewStore(db, appLogger)
	examStore := postgres.NewPostgresExamStore(db, appLogger)
	questionPool := postgres.NewPostgresQuestionPool(db, appLogger)

	systemClock := clock.System()

	quotaService := quota.NewService(subscriptionStore, usageStore, systemClock, appLogger)
	reviewService := review.NewService(
		progressStore,
		reviewStore,
		subscriptionStore,
		srs.NewDefaultService(),
		systemClock,
		appLogger,
	)
	examService := exam.NewService(examStore, questionPool, quotaService, systemClock, nil, appLogger)

	return &services{
		Quota:  quotaService,
		Review: reviewService,
		Exam:   examService,
	}, examStore
}
