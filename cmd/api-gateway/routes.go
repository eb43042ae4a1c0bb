package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/middleware"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/pkg/config"
	"github.com/noah-isme/internship-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/internship-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/internship-tracker-api/pkg/middleware/requestid"
)

func registerRoutes(r *gin.Engine, cfg *config.Config, app *application, logr *zap.Logger) {
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsHandler.Health)
	r.GET("/ready", app.metricsHandler.Ready)
	r.GET("/metrics", app.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	loginLimiter := middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute)
	auth := api.Group("/auth")
	auth.POST("/register", loginLimiter.Middleware(), app.authHandler.Register)
	auth.POST("/login", loginLimiter.Middleware(), app.authHandler.Login)
	auth.POST("/refresh", app.authHandler.Refresh)

	// Signed download links carry their own authorization.
	api.GET("/export/:token",
		middleware.Audit(app.userRepo, logr, models.AuditActionDownload, models.AuditResourceReportExport),
		app.reportHandler.Download,
	)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth, app.visibility))

	secured.POST("/auth/logout", app.authHandler.Logout)
	secured.POST("/auth/change-password", app.authHandler.ChangePassword)
	secured.GET("/auth/me", app.authHandler.Me)

	secured.GET("/dashboard", app.dashboardHandler.Get)

	secured.GET("/profile/me", app.profileHandler.Me)
	secured.PUT("/profile/me", app.profileHandler.Update)
	secured.POST("/profile/me/photo", app.profileHandler.UploadPhoto)
	secured.GET("/profiles/:userId/photo", app.profileHandler.Photo)

	student := middleware.RequireRoles(models.RoleStudent)
	reviewer := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	// Attendance and leave always act on the caller's own rows.
	attendance := secured.Group("/attendance")
	attendance.GET("/today", app.attendanceHandler.Today)
	attendance.POST("/check-in", app.attendanceHandler.CheckIn)
	attendance.POST("/check-out", app.attendanceHandler.CheckOut)
	attendance.GET("/history", app.attendanceHandler.History)

	leaves := secured.Group("/leaves")
	leaves.POST("", app.attendanceHandler.RequestLeave)
	leaves.GET("/history", app.attendanceHandler.LeaveHistory)
	leaves.PATCH("/:id/review", reviewer,
		middleware.Audit(app.userRepo, logr, models.AuditActionReview, models.AuditResourceLeave),
		app.attendanceHandler.ReviewLeave,
	)

	journals := secured.Group("/journals")
	journals.POST("", student, app.journalHandler.Submit)
	journals.GET("/me", student, app.journalHandler.ListOwn)
	journals.GET("/:id", app.journalHandler.Get)
	journals.PATCH("/:id/review", reviewer,
		middleware.Audit(app.userRepo, logr, models.AuditActionReview, models.AuditResourceJournal),
		app.journalHandler.Review,
	)

	reports := secured.Group("/reports")
	reports.POST("/jobs", reviewer, app.reportHandler.CreateJob)
	reports.GET("/jobs", app.reportHandler.ListJobs)
	reports.GET("/jobs/:id", app.reportHandler.JobStatus)
	reports.GET("/:entity", app.reportHandler.List)
	reports.GET("/:entity/export", reviewer,
		middleware.Audit(app.userRepo, logr, models.AuditActionExport, models.AuditResourceReport),
		app.reportHandler.Export,
	)

	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), app.metricsHandler.Summary)
	secured.GET("/supervisor/students", middleware.RequireRoles(models.RoleSupervisor), app.supervisorHandler.Students)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", app.userHandler.List)
	admin.POST("/users", app.userHandler.Create)
	admin.PATCH("/users/:id/status", app.userHandler.SetStatus)
	admin.DELETE("/users/:id", app.userHandler.Delete)
	admin.GET("/students/by-identifier/:identifier", app.userHandler.Student)
	admin.PUT("/students/:id/supervisor", app.userHandler.AssignSupervisor)
	admin.GET("/supervisors", app.userHandler.Supervisors)
	admin.GET("/supervisors/:id/summary", app.userHandler.SupervisorSummary)
}
