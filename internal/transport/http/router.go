package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig wires handlers and cross-cutting middleware into the engine.
type RouterConfig struct {
	Auth        *AuthHandler
	Quizzes     *QuizHandler
	Tokens      SessionVerifier
	CORSOrigins []string
	Mode        string
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "prod" || cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := RequireAuth(cfg.Tokens)

	auth := r.Group("/api/auth")
	{
		auth.POST("/send-otp", cfg.Auth.SendOTP)
		auth.POST("/resend-otp", cfg.Auth.ResendOTP)
		auth.POST("/register-with-otp", cfg.Auth.RegisterWithOTP)
		auth.POST("/forgot-password", cfg.Auth.ForgotPassword)
		auth.POST("/verify-reset-otp", cfg.Auth.VerifyResetOTP)
		auth.POST("/reset-password", cfg.Auth.ResetPassword)
	}

	users := r.Group("/api/users")
	{
		users.POST("/register", cfg.Auth.Register)
		users.POST("/login", cfg.Auth.Login)
		users.POST("/logout", cfg.Auth.Logout)
		users.GET("/me", requireAuth, cfg.Auth.Me)
		users.POST("/quiz-score", requireAuth, cfg.Auth.UpdateScore)
	}

	quizzes := r.Group("/api/quizzes")
	{
		quizzes.GET("", cfg.Quizzes.GetAll)
		quizzes.GET("/titles", cfg.Quizzes.Titles)
		quizzes.GET("/:id", cfg.Quizzes.Get)
		quizzes.POST("/generate", requireAuth, cfg.Quizzes.Generate)
		quizzes.POST("/create", requireAuth, cfg.Quizzes.Create)
		quizzes.GET("/user", requireAuth, cfg.Quizzes.GetMine)
		quizzes.DELETE("/:id", requireAuth, cfg.Quizzes.Delete)
		quizzes.POST("/ask-ai", requireAuth, cfg.Quizzes.AskAI)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
