package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/internship-tracker-api/api/swagger"
	"github.com/noah-isme/internship-tracker-api/internal/handler"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	"github.com/noah-isme/internship-tracker-api/internal/service"
	"github.com/noah-isme/internship-tracker-api/pkg/cache"
	"github.com/noah-isme/internship-tracker-api/pkg/config"
	"github.com/noah-isme/internship-tracker-api/pkg/database"
	"github.com/noah-isme/internship-tracker-api/pkg/jobs"
	"github.com/noah-isme/internship-tracker-api/pkg/logger"
	"github.com/noah-isme/internship-tracker-api/pkg/storage"
)

// @title Internship Tracker API
// @version 1.0.0
// @description Attendance, leave and daily journal tracking for internship programs
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build application", "error", err)
	}
	defer app.shutdown()

	r := gin.New()
	registerRoutes(r, cfg, app, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
}

// application holds every handler plus the background pieces that must be
// stopped on exit.
type application struct {
	metrics    *service.MetricsService
	auth       *service.AuthService
	visibility *service.VisibilityService
	userRepo   *repository.UserRepository

	authHandler       *handler.AuthHandler
	attendanceHandler *handler.AttendanceHandler
	journalHandler    *handler.JournalHandler
	reportHandler     *handler.ReportHandler
	dashboardHandler  *handler.DashboardHandler
	profileHandler    *handler.ProfileHandler
	userHandler       *handler.UserHandler
	supervisorHandler *handler.SupervisorHandler
	metricsHandler    *handler.MetricsHandler

	queue *jobs.Queue
}

func (a *application) shutdown() {
	if a.queue != nil {
		a.queue.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	projectionRepo := repository.NewProjectionRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(
			repository.NewCacheRepository(redisClient, logr),
			metrics,
			cfg.Dashboard.CacheTTL,
			logr,
			cfg.Dashboard.CacheEnabled,
		)
	}

	scopeCfg := service.VisibilityConfig{LegacyNameMatch: cfg.Scope.LegacyNameMatch}
	visibility := service.NewVisibilityService(supervisorRepo, logr, scopeCfg)

	authSvc := service.NewAuthService(userRepo, profileRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Auth.SingleSession,
		AllowRegistration:  cfg.Auth.AllowRegistration,
	})
	authSvc.StartSessionSweep(ctx, cfg.Auth.SessionSweepInterval)

	attendanceSvc := service.NewAttendanceService(attendanceRepo, leaveRepo, visibility, userRepo, cacheSvc, validate, logr, service.AttendanceConfig{
		LateCutoff:      cfg.Attendance.LateCutoff,
		Location:        cfg.Attendance.Location,
		HistoryLimit:    cfg.Attendance.HistoryLimit,
		MaxHistoryLimit: cfg.Attendance.MaxHistoryLimit,
	}).WithMetrics(metrics)

	journalSvc := service.NewJournalService(journalRepo, visibility, userRepo, cacheSvc, validate, logr)
	projectionSvc := service.NewProjectionService(projectionRepo, metrics, logr, cfg.Attendance.Location)

	photoStore, err := storage.NewLocalStorage(cfg.Profile.PhotoDir)
	if err != nil {
		return nil, fmt.Errorf("init photo storage: %w", err)
	}
	profileSvc := service.NewProfileService(profileRepo, photoStore, visibility, validate, logr, service.ProfileConfig{
		MaxPhotoBytes: cfg.Profile.PhotoMaxBytes,
	})

	userSvc := service.NewUserService(userRepo, profileRepo, supervisorRepo, cacheSvc, validate, logr, scopeCfg)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:   dashboardRepo,
		Days:   attendanceSvc,
		Cache:  cacheSvc,
		Logger: logr,
		Config: service.DashboardServiceConfig{
			CacheTTL: cfg.Dashboard.CacheTTL,
			Location: cfg.Attendance.Location,
		},
	})

	app := &application{
		metrics:           metrics,
		auth:              authSvc,
		visibility:        visibility,
		userRepo:          userRepo,
		authHandler:       handler.NewAuthHandler(authSvc),
		attendanceHandler: handler.NewAttendanceHandler(attendanceSvc),
		journalHandler:    handler.NewJournalHandler(journalSvc),
		dashboardHandler:  handler.NewDashboardHandler(dashboardSvc),
		profileHandler:    handler.NewProfileHandler(profileSvc),
		userHandler:       handler.NewUserHandler(userSvc),
		supervisorHandler: handler.NewSupervisorHandler(visibility),
		metricsHandler: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
			"redis":    func(ctx context.Context) error { return cache.Healthy(ctx, redisClient) },
		}),
	}

	exportCfg := service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}
	if !cfg.Reports.Enabled {
		exportSvc := service.NewExportService(projectionSvc, nil, nil, exportCfg, logr, nil, nil)
		app.reportHandler = handler.NewReportHandler(projectionSvc, exportSvc, nil)
		return app, nil
	}

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(projectionSvc, exportStore, signer, exportCfg, logr, nil, nil)

	reportRepo := repository.NewReportRepository(db)
	worker := service.NewReportWorker(reportRepo, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	app.queue = queue

	reportSvc := service.NewReportService(reportRepo, validate, queue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	app.reportHandler = handler.NewReportHandler(projectionSvc, exportSvc, reportSvc)
	return app, nil
}
