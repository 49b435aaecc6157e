package router

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/api/admin"
	"qwiktest/internal/config"
	"qwiktest/internal/middleware"
	"qwiktest/internal/model"
	"qwiktest/internal/pkg/metrics"
)

// SetupRoutes registers every route on r. config.GlobalConfig must be loaded.
func SetupRoutes(r *gin.Engine, userFS, adminFS http.FileSystem) {
	cfg := config.GlobalConfig

	r.Use(metrics.Middleware())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Cors())

	// Probes and scraping stay outside the API groups.
	r.GET("/api/v1/health", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.StaticFS("/static/user", userFS)
	r.StaticFS("/static/admin", adminFS)

	// Local uploads are served from disk; S3 objects use their own URL.
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.PublicURL, cfg.Storage.LocalDir)
	}

	setupSPARoutes(r, userFS, adminFS)

	authLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst)
	webhookLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.WebhookPerSecond, cfg.RateLimit.WebhookBurst)
	setupAPIRoutes(r, authLimiter, webhookLimiter)
	setupAdminAPIRoutes(r)
}

func setupAPIRoutes(r *gin.Engine, authLimiter, webhookLimiter *middleware.IPRateLimiter) {
	apiGroup := r.Group("/api/v1")

	auth := apiGroup.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	{
		auth.POST("/login", api.Login)
		auth.POST("/register", api.Register)
	}

	// Gateways call these without a token; the payload signature is checked
	// by the service.
	webhooks := apiGroup.Group("/webhooks")
	webhooks.Use(middleware.RateLimit(webhookLimiter))
	{
		webhooks.POST("/stripe", api.StripeWebhook)
		webhooks.POST("/razorpay", api.RazorpayWebhook)
	}

	// Catalog
	apiGroup.GET("/settings/site", api.GetSiteSettings)
	apiGroup.GET("/categories", api.GetCategories)
	apiGroup.GET("/sub-categories/:slug", api.GetSubCategory)
	apiGroup.GET("/plans", api.GetPlans)

	authorized := apiGroup.Group("/")
	authorized.Use(middleware.JWT())
	{
		user := authorized.Group("/user")
		{
			user.GET("/profile", api.GetProfile)
			user.PUT("/profile", api.UpdateProfile)
			user.PUT("/password", api.ChangePassword)
			user.GET("/dashboard", api.GetDashboard)
		}

		authorized.GET("/sub-categories/:slug/exams", api.GetExams)
		authorized.GET("/sub-categories/:slug/quizzes", api.GetQuizzes)

		exams := authorized.Group("/exams")
		{
			exams.GET("/:slug", api.GetExamDetail)
			exams.POST("/:slug/start", api.StartExam)
			exams.GET("/:slug/leaderboard", api.GetExamLeaderboard)
		}

		examSessions := authorized.Group("/exam-sessions")
		{
			examSessions.GET("", api.GetExamSessions)
			examSessions.GET("/:code", api.GetExamSessionQuestions)
			examSessions.PUT("/:code/questions/:id", api.AnswerExamQuestion)
			examSessions.POST("/:code/finish", api.FinishExamSession)
			examSessions.GET("/:code/results", api.GetExamResults)
			examSessions.GET("/:code/solutions", api.GetExamSolutions)
		}

		quizzes := authorized.Group("/quizzes")
		{
			quizzes.GET("/:slug", api.GetQuizDetail)
			quizzes.POST("/:slug/start", api.StartQuiz)
			quizzes.GET("/:slug/leaderboard", api.GetQuizLeaderboard)
		}

		quizSessions := authorized.Group("/quiz-sessions")
		{
			quizSessions.GET("", api.GetQuizSessions)
			quizSessions.GET("/:code", api.GetQuizSessionQuestions)
			quizSessions.PUT("/:code/questions/:id", api.AnswerQuizQuestion)
			quizSessions.POST("/:code/finish", api.FinishQuizSession)
			quizSessions.GET("/:code/results", api.GetQuizResults)
			quizSessions.GET("/:code/solutions", api.GetQuizSolutions)
		}

		payments := authorized.Group("/payments")
		{
			payments.POST("/checkout", api.Checkout)
			payments.GET("", api.GetPayments)
			payments.GET("/:code", api.GetPayment)
		}

		authorized.GET("/subscriptions", api.GetSubscriptions)
	}
}

func setupAdminAPIRoutes(r *gin.Engine) {
	adminGroup := r.Group("/api/v1/admin")
	adminGroup.Use(middleware.JWT())
	adminGroup.Use(middleware.RoleAuth(model.RoleAdmin, model.RoleInstructor))

	// Content management is open to instructors.
	{
		adminGroup.GET("/dashboard", admin.GetDashboard)
		adminGroup.POST("/media", admin.UploadMedia)

		categories := adminGroup.Group("/categories")
		{
			categories.GET("", admin.GetCategories)
			categories.GET("/:id", admin.GetCategory)
			categories.POST("", admin.CreateCategory)
			categories.PUT("/:id", admin.UpdateCategory)
			categories.DELETE("/:id", admin.DeleteCategory)
		}

		subCategories := adminGroup.Group("/sub-categories")
		{
			subCategories.GET("", admin.GetSubCategories)
			subCategories.GET("/:id", admin.GetSubCategory)
			subCategories.POST("", admin.CreateSubCategory)
			subCategories.PUT("/:id", admin.UpdateSubCategory)
			subCategories.DELETE("/:id", admin.DeleteSubCategory)
		}

		sections := adminGroup.Group("/sections")
		{
			sections.GET("", admin.GetSections)
			sections.GET("/:id", admin.GetSection)
			sections.POST("", admin.CreateSection)
			sections.PUT("/:id", admin.UpdateSection)
			sections.DELETE("/:id", admin.DeleteSection)
		}

		skills := adminGroup.Group("/skills")
		{
			skills.GET("", admin.GetSkills)
			skills.POST("", admin.CreateSkill)
			skills.PUT("/:id", admin.UpdateSkill)
			skills.DELETE("/:id", admin.DeleteSkill)
		}

		topics := adminGroup.Group("/topics")
		{
			topics.GET("", admin.GetTopics)
			topics.POST("", admin.CreateTopic)
			topics.PUT("/:id", admin.UpdateTopic)
			topics.DELETE("/:id", admin.DeleteTopic)
		}

		questions := adminGroup.Group("/questions")
		{
			questions.GET("", admin.GetQuestions)
			questions.GET("/export", admin.ExportQuestions)
			questions.POST("/import", admin.ImportQuestions)
			questions.POST("/batch-delete", admin.BatchDeleteQuestions)
			questions.GET("/:id", admin.GetQuestion)
			questions.POST("", admin.CreateQuestion)
			questions.PUT("/:id", admin.UpdateQuestion)
			questions.DELETE("/:id", admin.DeleteQuestion)
		}

		exams := adminGroup.Group("/exams")
		{
			exams.GET("", admin.GetExams)
			exams.GET("/:id", admin.GetExam)
			exams.POST("", admin.CreateExam)
			exams.PUT("/:id", admin.UpdateExam)
			exams.PUT("/:id/settings", admin.UpdateExamSettings)
			exams.DELETE("/:id", admin.DeleteExam)
			exams.POST("/:id/publish", admin.PublishExam)
			exams.POST("/:id/unpublish", admin.UnpublishExam)

			exams.GET("/:id/sections", admin.GetExamSections)
			exams.POST("/:id/sections", admin.CreateExamSection)
			exams.PUT("/:id/sections/:sectionId", admin.UpdateExamSection)
			exams.DELETE("/:id/sections/:sectionId", admin.DeleteExamSection)
			exams.GET("/:id/sections/:sectionId/questions", admin.GetExamQuestions)
			exams.POST("/:id/sections/:sectionId/questions", admin.AttachExamQuestions)
			exams.DELETE("/:id/sections/:sectionId/questions/:questionId", admin.DetachExamQuestion)

			exams.GET("/:id/schedules", admin.GetExamSchedules)
			exams.POST("/:id/schedules", admin.CreateExamSchedule)
			exams.PUT("/:id/schedules/:scheduleId", admin.UpdateExamSchedule)
			exams.POST("/:id/schedules/:scheduleId/cancel", admin.CancelExamSchedule)
			exams.DELETE("/:id/schedules/:scheduleId", admin.DeleteExamSchedule)
		}

		quizzes := adminGroup.Group("/quizzes")
		{
			quizzes.GET("", admin.GetQuizzes)
			quizzes.GET("/:id", admin.GetQuiz)
			quizzes.POST("", admin.CreateQuiz)
			quizzes.PUT("/:id", admin.UpdateQuiz)
			quizzes.PUT("/:id/settings", admin.UpdateQuizSettings)
			quizzes.DELETE("/:id", admin.DeleteQuiz)
			quizzes.POST("/:id/publish", admin.PublishQuiz)
			quizzes.POST("/:id/unpublish", admin.UnpublishQuiz)
			quizzes.GET("/:id/questions", admin.GetQuizQuestions)
			quizzes.POST("/:id/questions", admin.AttachQuizQuestions)
			quizzes.DELETE("/:id/questions/:questionId", admin.DetachQuizQuestion)
		}
	}

	// Users, money and site configuration are admin only.
	adminOnly := adminGroup.Group("/")
	adminOnly.Use(middleware.RoleAuth(model.RoleAdmin))
	{
		adminOnly.GET("/sales-statistics", admin.GetSalesStatistics)

		users := adminOnly.Group("/users")
		{
			users.GET("", admin.GetUsers)
			users.GET("/:id", admin.GetUser)
			users.POST("", admin.CreateUser)
			users.PUT("/:id", admin.UpdateUser)
			users.DELETE("/:id", admin.DeleteUser)
		}

		plans := adminOnly.Group("/plans")
		{
			plans.GET("", admin.GetPlans)
			plans.GET("/:id", admin.GetPlan)
			plans.POST("", admin.CreatePlan)
			plans.PUT("/:id", admin.UpdatePlan)
			plans.DELETE("/:id", admin.DeletePlan)
		}

		payments := adminOnly.Group("/payments")
		{
			payments.GET("", admin.GetPayments)
			payments.GET("/:id", admin.GetPayment)
			payments.POST("/:id/approve", admin.ApprovePayment)
			payments.POST("/:id/reject", admin.RejectPayment)
		}

		subscriptions := adminOnly.Group("/subscriptions")
		{
			subscriptions.GET("", admin.GetSubscriptions)
			subscriptions.GET("/:id", admin.GetSubscription)
			subscriptions.POST("", admin.CreateSubscription)
			subscriptions.POST("/:id/cancel", admin.CancelSubscription)
		}

		settings := adminOnly.Group("/settings")
		{
			settings.GET("", admin.GetSettingGroups)
			settings.GET("/:group", admin.GetSettings)
			settings.PUT("/:group", admin.SaveSettings)
		}
	}
}

func setupSPARoutes(r *gin.Engine, userFS, adminFS http.FileSystem) {
	r.GET("/admin", serveAdminIndex(adminFS))
	r.GET("/admin/*path", serveAdminPath(adminFS))

	// The user frontend catches everything else, so it goes last.
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") ||
			strings.HasPrefix(path, "/static/") {
			c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
			return
		}

		serveUserFile(c, path, userFS)
	})
}

func serveAdminIndex(adminFS http.FileSystem) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		file, err := adminFS.Open("/index.html")
		if err != nil {
			c.String(http.StatusNotFound, "admin page not found")
			return
		}
		defer file.Close()

		http.ServeContent(c.Writer, c.Request, "index.html", time.Now(), file.(io.ReadSeeker))
	}
}

// serveAdminPath serves admin assets and falls back to index.html for
// client-side routes.
func serveAdminPath(adminFS http.FileSystem) gin.HandlerFunc {
	fileServer := http.FileServer(adminFS)
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Param("path"), "/")

		f, err := adminFS.Open(path)
		if err == nil {
			f.Close()
			c.Request.URL.Path = "/" + path
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}

		c.Request.URL.Path = "/"
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

func serveUserFile(c *gin.Context, path string, userFS http.FileSystem) {
	fileServer := http.FileServer(userFS)

	f, err := userFS.Open(path)
	if err == nil {
		f.Close()
		fileServer.ServeHTTP(c.Writer, c.Request)
		return
	}

	c.Request.URL.Path = "/"
	fileServer.ServeHTTP(c.Writer, c.Request)
}
