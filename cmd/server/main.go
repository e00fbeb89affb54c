package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/handler"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/mailer"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/notify"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/router"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
	"github.com/stemsi/schoolhub-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("result_store", cfg.ResultStore).
		Msg("Starting SchoolHub Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load RBAC Policy ──────────────────────────────────────────────
	policy, err := rbac.LoadPolicy(cfg.RBACPolicyFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.RBACPolicyFile).Msg("Failed to load RBAC policy")
	}
	gate := rbac.NewGate(policy)

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	classroomRepo := repository.NewClassroomRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	refs := repository.NewReferenceRepository(examRepo, studentRepo, classroomRepo, subjectRepo)

	resultRepo, closeStore := openResultStore(ctx, cfg, pool, log)
	defer closeStore()

	// ─── Initialize Services ──────────────────────────────────────────
	m := metrics.New("schoolhub")
	notifier := notify.NewRedisNotifier(rdb, log)

	authService := service.NewAuthService(cfg, rdb, userRepo)
	userService := service.NewUserService(userRepo, authService, log)
	settingService := service.NewSettingService(settingRepo, log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	classroomService := service.NewClassroomService(classroomRepo, userRepo)
	studentService := service.NewStudentService(studentRepo)
	examService := service.NewExamService(examRepo, rdb, log)
	resultService := service.NewResultService(cfg, gate, resultRepo, refs, notifier, m, log)
	reportService := service.NewReportService(resultService, refs, settingService)
	dashboardService := service.NewDashboardService(dashboardRepo, resultRepo, gate)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userService, gate),
		User:      handler.NewUserHandler(userService),
		Result:    handler.NewResultHandler(resultService),
		Report:    handler.NewReportHandler(reportService),
		Feed:      handler.NewFeedHandler(notifier, log, cfg.AllowedOrigins),
		Classroom: handler.NewClassroomHandler(classroomService),
		Subject:   handler.NewSubjectHandler(subjectService),
		Student:   handler.NewStudentHandler(studentService),
		Exam:      handler.NewExamHandler(examService),
		Setting:   handler.NewSettingHandler(settingService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	notificationWorker := worker.NewNotificationWorker(
		rdb,
		userRepo,
		service.NewNotificationSource(resultRepo, refs, settingService),
		mailer.New(cfg, log),
		m,
		cfg.NotifyMaxAttempts,
		log,
	)
	go func() {
		defer close(workerDone)
		notificationWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Deps{
		Auth:    authService,
		Gate:    gate,
		Metrics: m,
		Log:     log,
		Done:    ctx.Done(),
	}, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the notification worker; a job in flight finishes first.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Notification worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// openResultStore picks the result repository named by RESULT_STORE.
// The returned func releases whatever the store opened.
func openResultStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log zerolog.Logger) (repository.ResultRepository, func()) {
	switch cfg.ResultStore {
	case config.StoreMongo:
		client, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		repo := repository.NewMongoResultRepository(db)
		names, err := repo.EnsureIndexes(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create result indexes")
		}
		log.Info().Strs("indexes", names).Msg("Result indexes ready")
		return repo, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
	case config.StoreMemory:
		log.Warn().Msg("Results are kept in memory and will be lost on restart")
		return repository.NewMemoryResultRepository(), func() {}
	case config.StorePostgres:
		return repository.NewPostgresResultRepository(pool), func() {}
	default:
		log.Fatal().Str("result_store", cfg.ResultStore).Msg("Unknown result store")
		return nil, func() {}
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
