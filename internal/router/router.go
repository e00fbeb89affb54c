package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/handler"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Result    *handler.ResultHandler
	Report    *handler.ReportHandler
	Feed      *handler.FeedHandler
	Classroom *handler.ClassroomHandler
	Subject   *handler.SubjectHandler
	Student   *handler.StudentHandler
	Exam      *handler.ExamHandler
	Setting   *handler.SettingHandler
	Dashboard *handler.DashboardHandler
}

// Deps are the collaborators the middleware chain needs.
type Deps struct {
	Auth    middleware.TokenValidator
	Gate    *rbac.Gate
	Metrics *metrics.Metrics
	Log     zerolog.Logger
	// Done stops background sweeps such as the login rate limiter's.
	Done <-chan struct{}
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(deps.Log))
	router.Use(deps.Metrics.Middleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	gate := deps.Gate
	perm := func(p model.Permission) gin.HandlerFunc { return middleware.RequirePermission(gate, p) }

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/settings", middleware.CacheControl(300), handlers.Setting.GetPublicSettings)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(10, time.Minute, deps.Done)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		authed := auth.Group("", middleware.RequireJWT(deps.Auth))
		authed.POST("/logout", handlers.Auth.Logout)
		authed.GET("/me", handlers.Auth.Me)
		authed.GET("/routes/check", handlers.Auth.CheckRoute)
	}

	// ─── 2. WebSocket Group (query token) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(deps.Auth))
	{
		ws.GET("/results/feed", perm(model.PermissionResultsReview), handlers.Feed.ResultFeed)
	}

	// ─── 3. API Group (JWT + RBAC) ─────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(deps.Auth))

	// Results
	results := api.Group("/results")
	{
		results.POST("", perm(model.PermissionResultsCreate), handlers.Result.Create)
		results.GET("/pending", perm(model.PermissionResultsReview), handlers.Result.ListPending)
		results.GET("/:id",
			middleware.RequireAnyPermission(gate, model.PermissionResultsRead, model.PermissionResultsReadSelf),
			handlers.Result.Get,
		)
		results.PUT("/:id",
			middleware.RequireAnyPermission(gate, model.PermissionResultsUpdate, model.PermissionResultsUpdateSelf),
			handlers.Result.Update,
		)
		results.POST("/:id/submit",
			middleware.RequireAnyPermission(gate, model.PermissionResultsSubmit, model.PermissionResultsSubmitSelf),
			handlers.Result.Submit,
		)
		results.POST("/:id/approve", perm(model.PermissionResultsApprove), handlers.Result.Approve)
		results.POST("/:id/reject", perm(model.PermissionResultsReject), handlers.Result.Reject)
		results.POST("/:id/publish", perm(model.PermissionResultsPublish), handlers.Result.Publish)
		// Creator-only; checked against the stored result.
		results.POST("/:id/resubmit", handlers.Result.Resubmit)
	}

	// Students
	students := api.Group("/students")
	{
		students.GET("", perm(model.PermissionStudentsRead), handlers.Student.ListStudents)
		students.POST("", perm(model.PermissionStudentsWrite), handlers.Student.CreateStudent)
		students.GET("/:id", perm(model.PermissionStudentsRead), handlers.Student.GetStudent)
		students.PUT("/:id", perm(model.PermissionStudentsWrite), handlers.Student.UpdateStudent)
		students.DELETE("/:id", perm(model.PermissionStudentsWrite), handlers.Student.DeleteStudent)

		readResults := middleware.RequireAnyPermission(gate, model.PermissionResultsRead, model.PermissionResultsReadSelf)
		students.GET("/:id/results", readResults, handlers.Result.ListForStudent)
		students.GET("/:id/report-card", readResults, middleware.NoStore(), handlers.Report.GetReportCard)
		students.GET("/:id/report-card.pdf", readResults, middleware.NoStore(), handlers.Report.DownloadReportCard)
	}

	// Classrooms
	classrooms := api.Group("/classrooms")
	{
		classrooms.GET("", perm(model.PermissionClassroomsRead), handlers.Classroom.ListClassrooms)
		classrooms.POST("", perm(model.PermissionClassroomsWrite), handlers.Classroom.CreateClassroom)
		classrooms.GET("/:id", perm(model.PermissionClassroomsRead), handlers.Classroom.GetClassroom)
		classrooms.PUT("/:id", perm(model.PermissionClassroomsWrite), handlers.Classroom.UpdateClassroom)
		classrooms.DELETE("/:id", perm(model.PermissionClassroomsWrite), handlers.Classroom.DeleteClassroom)
		classrooms.GET("/:id/teachers", perm(model.PermissionClassroomsRead), handlers.Classroom.ListAssignments)
		classrooms.POST("/:id/teachers", perm(model.PermissionClassroomsWrite), handlers.Classroom.AssignTeacher)
		classrooms.DELETE("/:id/teachers/:teacher_id/subjects/:subject_id",
			perm(model.PermissionClassroomsWrite),
			handlers.Classroom.UnassignTeacher,
		)
	}

	// Subjects
	subjects := api.Group("/subjects")
	{
		subjects.GET("", perm(model.PermissionSubjectsRead), handlers.Subject.GetAll)
		subjects.POST("", perm(model.PermissionSubjectsWrite), handlers.Subject.Create)
		subjects.PUT("/:id", perm(model.PermissionSubjectsWrite), handlers.Subject.Update)
		subjects.DELETE("/:id", perm(model.PermissionSubjectsWrite), handlers.Subject.Delete)
	}

	// Exams
	exams := api.Group("/exams")
	{
		exams.GET("", perm(model.PermissionExamsRead), handlers.Exam.ListExams)
		exams.POST("", perm(model.PermissionExamsWrite), handlers.Exam.CreateExam)
		exams.GET("/:id", perm(model.PermissionExamsRead), handlers.Exam.GetExam)
	}

	// Settings
	settings := api.Group("/settings")
	{
		settings.GET("", perm(model.PermissionSettingsRead), handlers.Setting.GetAllSettings)
		settings.PUT("", perm(model.PermissionSettingsWrite), handlers.Setting.UpdateSettings)
	}

	api.GET("/dashboard", perm(model.PermissionDashboardRead), handlers.Dashboard.GetDashboardData)

	// ─── 4. Admin Group ────────────────────────────────────────────────
	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/users", handlers.User.ListUsers)
		admin.POST("/users", handlers.User.CreateUser)
		admin.GET("/users/:id", handlers.User.GetUser)
	}

	return router
}
