package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/docuchat/docuchat-backend/internal/handlers"
	"github.com/docuchat/docuchat-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	ProjectHandler  *handlers.ProjectHandler
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
	HealthHandler   *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("docuchat-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthHandler.Live)
	router.GET("/readycheck", cfg.HealthHandler.Ready)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)
	router.POST("/login/email", cfg.AuthHandler.SendEmailLink)
	router.POST("/login/email/complete", cfg.AuthHandler.CompleteEmailLink)
	router.GET("/login/oauth", cfg.AuthHandler.OAuthStart)
	router.GET("/login/oauth/callback", cfg.AuthHandler.OAuthCallback)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/session", cfg.AuthHandler.Session)
	// Projects
	protected.POST("/projects", cfg.ProjectHandler.Create)
	protected.GET("/projects", cfg.ProjectHandler.List)
	protected.GET("/projects/:id", cfg.ProjectHandler.Get)
	protected.PATCH("/projects/:id", cfg.ProjectHandler.Rename)
	protected.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
	// Documents
	protected.GET("/projects/:id/documents", cfg.DocumentHandler.List)
	protected.POST("/projects/:id/documents", cfg.DocumentHandler.Upload)
	protected.DELETE("/projects/:id/documents/:docID", cfg.DocumentHandler.Delete)
	// Conversation
	protected.POST("/projects/:id/query", cfg.QueryHandler.Ask)
	protected.GET("/projects/:id/transcript", cfg.QueryHandler.Transcript)

	return router
}
