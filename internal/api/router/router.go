package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imtr/backend/config"
	"imtr/backend/internal/api/handler"
	"imtr/backend/internal/api/middleware"
	"imtr/backend/internal/auth"
	"imtr/backend/pkg/jwt"
	"imtr/backend/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil: login is then not throttled.
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	revoked middleware.RevocationChecker,
	rdb *redis.Client,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}

	can := middleware.RequireCapability

	v1 := r.Group("/api/v1")
	{
		// public
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", middleware.RateLimit(limiter, cfg.RateLimit.LoginPerMinute, time.Minute), h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			users := authorized.Group("/users")
			{
				users.GET("", can(auth.UsersRead), h.User.ListUsers)
				users.GET("/:id", can(auth.UsersRead), h.User.GetUser)
				users.POST("", can(auth.UsersWrite), h.User.CreateUser)
				users.POST("/import", can(auth.UsersWrite), h.User.ImportUsers)
				users.PUT("/:id", can(auth.UsersWrite), h.User.UpdateUser)
				users.PUT("/:id/status", can(auth.UsersWrite), h.User.UpdateUserStatus)
				users.DELETE("/:id", can(auth.UsersWrite), h.User.DeleteUser)
			}

			authorized.GET("/lecturers", can(auth.LecturersRead), h.User.ListLecturers)

			students := authorized.Group("/students")
			{
				students.GET("", can(auth.StudentsRead), h.Student.ListStudents)
				students.GET("/:id", can(auth.StudentsRead), h.Student.GetStudent)
				students.PUT("/:id/status", can(auth.StudentsWrite), h.Student.UpdateStudentStatus)
			}

			approvals := authorized.Group("/student-approvals", can(auth.StudentsReview))
			{
				approvals.GET("/pending", h.Approval.ListPending)
				approvals.GET("/history", h.Approval.History)
				approvals.POST("/approve/:userId", h.Approval.Approve)
				approvals.POST("/reject/:userId", h.Approval.Reject)
			}

			programs := authorized.Group("/programs")
			{
				programs.GET("", can(auth.ProgramsRead), h.Program.ListPrograms)
				programs.GET("/:id", can(auth.ProgramsRead), h.Program.GetProgram)
				programs.POST("", can(auth.ProgramsWrite), h.Program.CreateProgram)
				programs.PUT("/:id", can(auth.ProgramsWrite), h.Program.UpdateProgram)
				programs.DELETE("/:id", can(auth.ProgramsWrite), h.Program.DeleteProgram)
			}

			courses := authorized.Group("/courses")
			{
				courses.GET("", can(auth.CoursesRead), h.Course.ListCourses)
				courses.GET("/:id", can(auth.CoursesRead), h.Course.GetCourse)
				courses.POST("", can(auth.CoursesWrite), h.Course.CreateCourse)
				courses.PUT("/:id", can(auth.CoursesWrite), h.Course.UpdateCourse)
				courses.DELETE("/:id", can(auth.CoursesWrite), h.Course.DeleteCourse)
			}

			finance := authorized.Group("/finance")
			{
				finance.GET("/invoices", can(auth.FinanceRead), h.Finance.ListInvoices)
				finance.GET("/invoices/export", can(auth.FinanceRead), h.Export.ExportInvoices)
				finance.GET("/invoices/calendar.ics", can(auth.FinanceRead), h.Export.InvoiceCalendar)
				finance.GET("/invoices/:id", can(auth.FinanceRead), h.Finance.GetInvoice)
				finance.POST("/invoices", can(auth.FinanceWrite), h.Finance.CreateInvoice)
				finance.PUT("/invoices/:id", can(auth.FinanceWrite), h.Finance.UpdateInvoice)
				finance.DELETE("/invoices/:id", can(auth.FinanceWrite), h.Finance.DeleteInvoice)
				finance.POST("/programs/:programId/generate-invoices", can(auth.FinanceWrite), h.Finance.GenerateInvoices)

				finance.GET("/payments", can(auth.FinanceRead), h.Finance.ListPayments)
				finance.GET("/payments/:id", can(auth.FinanceRead), h.Finance.GetPayment)
				finance.POST("/payments", can(auth.FinanceWrite), h.Finance.RecordPayment)

				finance.GET("/statistics", can(auth.FinanceRead), h.Finance.Statistics)
			}

			me := authorized.Group("/me", can(auth.SelfService))
			{
				me.GET("/invoices", h.Finance.ListMyInvoices)
				me.GET("/invoices/calendar.ics", h.Export.MyInvoiceCalendar)
			}
		}
	}

	return r
}
