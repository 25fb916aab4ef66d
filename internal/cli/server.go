package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizforge-service/internal/ai"
	"quizforge-service/internal/app"
	"quizforge-service/internal/config"
	"quizforge-service/internal/infra/memory"
	"quizforge-service/internal/infra/postgres"
	redisinfra "quizforge-service/internal/infra/redis"
	"quizforge-service/internal/mail"
	"quizforge-service/internal/media"
	"quizforge-service/internal/platform/logger"
	"quizforge-service/internal/token"
	transport "quizforge-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	otpTTL := config.TTLDuration(cfg.OTP.TTL, 5*time.Minute)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Auth.SessionTTL, 7*24*time.Hour)
	resetTTL := config.TTLDuration(cfg.Auth.ResetTTL, 15*time.Minute)

	var userRepo app.UserRepository = memory.NewUserRepo()
	var quizRepo app.QuizRepository = memory.NewQuizRepo()
	if pool != nil {
		userRepo = postgres.NewUserRepo(pool)
		quizRepo = postgres.NewQuizRepo(pool)
	}

	var otpStore app.OTPRepository = memory.NewOTPStore(otpTTL)
	var quizCache app.QuizReader
	if redisClient != nil {
		otpStore = redisinfra.NewOTPStore(redisClient, otpTTL)
		quizCache = redisinfra.NewQuizCache(redisClient, quizRepo, cacheTTL)
	}

	var mailer app.Mailer = mail.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	var uploader app.Uploader = media.Disabled{}
	if cfg.GCS.Bucket != "" {
		gcs, err := media.NewGCSUploader(ctx, cfg.GCS.Bucket)
		if err != nil {
			return err
		}
		uploader = gcs
	}

	tokens := token.NewService(cfg.Auth.JWTSecret, sessionTTL, resetTTL)
	generator := ai.NewClient(ai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
	}, log)

	authSvc := app.NewAuthService(userRepo, tokens, log)
	otpSvc := app.NewOTPService(userRepo, otpStore, mailer, tokens, otpTTL, log)
	quizSvc := app.NewQuizService(quizRepo, quizCache, generator, uploader, log)

	router := transport.NewRouter(transport.RouterConfig{
		Auth:        transport.NewAuthHandler(authSvc, otpSvc, log),
		Quizzes:     transport.NewQuizHandler(quizSvc, log),
		Tokens:      tokens,
		CORSOrigins: cfg.CORS.Origins,
		Mode:        cfg.Server.Mode,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("starting quiz backend", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
