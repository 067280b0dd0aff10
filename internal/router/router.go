package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/handler"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Paper        *handler.PaperHandler
	Question     *handler.QuestionHandler
	Subject      *handler.SubjectHandler
	Distribution *handler.DistributionHandler
	Student      *handler.StudentHandler
	Tracker      *handler.TrackerWSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards the expensive write routes (upload and distribute).
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore(), middleware.RequireJWT(authService))

	api.GET("/auth/me", handlers.Auth.Me)

	// ─── Teacher Group ─────────────────────────────────────────────────
	teacher := api.Group("/teacher")
	teacher.Use(middleware.RequireRole(service.RoleTeacher))
	{
		teacher.GET("/subjects", handlers.Subject.List)
		teacher.POST("/subjects", handlers.Subject.Create)
		teacher.GET("/subjects/:id/students", handlers.Subject.ListStudents)
		teacher.POST("/subjects/:id/students", handlers.Subject.Enroll)
		teacher.GET("/subjects/:id/classroom", handlers.Subject.Classroom)

		teacher.POST("/subjects/:id/distributions", limiter.Middleware(), handlers.Distribution.Distribute)
		teacher.GET("/subjects/:id/distributions", handlers.Distribution.Summary)
		teacher.DELETE("/subjects/:id/distributions", handlers.Distribution.DeleteBatch)
		teacher.GET("/subjects/:id/distributions/students", handlers.Distribution.Tracker)

		teacher.GET("/papers", handlers.Paper.List)
		teacher.POST("/papers", limiter.Middleware(), handlers.Paper.Upload)
		teacher.GET("/papers/:exam_id", handlers.Paper.Detail)
		teacher.DELETE("/papers/:exam_id", handlers.Paper.Delete)
		teacher.POST("/papers/:exam_id/repair", handlers.Paper.Repair)

		teacher.GET("/papers/:exam_id/questions", handlers.Question.ListQuestions)
		teacher.POST("/papers/:exam_id/questions", handlers.Question.AddQuestion)
		teacher.PUT("/papers/:exam_id/questions/:index", handlers.Question.EditQuestion)
		teacher.DELETE("/papers/:exam_id/questions/:index", handlers.Question.DeleteQuestion)
	}

	// ─── Student Group ─────────────────────────────────────────────────
	student := api.Group("/student")
	student.Use(middleware.RequireRole(service.RoleStudent))
	{
		student.GET("/dashboard", handlers.Student.Dashboard)
		student.GET("/submissions", handlers.Student.ListSubmissions)
		student.GET("/submissions/:id", handlers.Student.ExamView)
		student.POST("/submissions/:id/answers", handlers.Student.SubmitAnswers)
	}

	// ─── WebSocket Group ───────────────────────────────────────────────
	// Browsers pass the token as ?token= on the handshake.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireJWT(authService), middleware.RequireRole(service.RoleTeacher))
	{
		ws.GET("/teacher/subjects/:id/tracker", handlers.Tracker.Stream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
