package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizforge-service/internal/ai"
	"quizforge-service/internal/app"
	"quizforge-service/internal/domain"
	"quizforge-service/internal/infra/postgres"
	pgmigrations "quizforge-service/internal/infra/postgres/migrations"
	infraredis "quizforge-service/internal/infra/redis"
	"quizforge-service/internal/platform/logger"
	"quizforge-service/internal/token"
)

type dropMailer struct{}

func (dropMailer) Send(context.Context, string, string, string) error { return nil }

func TestAccountAndQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	log := logger.NewNop()
	tokens := token.NewService("integration-secret", time.Hour, 15*time.Minute)
	users := postgres.NewUserRepo(pool)
	quizzes := postgres.NewQuizRepo(pool)
	otpStore := infraredis.NewOTPStore(redisClient, 5*time.Minute)
	cache := infraredis.NewQuizCache(redisClient, quizzes, 5*time.Minute)

	gen := &ai.MockGenerator{
		QuizReplies: []ai.MockReply{{Content: `{"questions":[
			{"questionText":"What is 2+2?","options":["3","4","5","6"],"correctOption":2,"explanation":"Basic arithmetic."},
			{"questionText":"What is 3*3?","options":["6","9","12","15"],"correctOption":2,"explanation":"Basic arithmetic."}
		]}`}},
	}

	authSvc := app.NewAuthService(users, tokens, log)
	otpSvc := app.NewOTPService(users, otpStore, dropMailer{}, tokens, 5*time.Minute, log)
	quizSvc := app.NewQuizService(quizzes, cache, gen, nil, log)

	// OTP registration against real Redis.
	if _, err := otpSvc.Issue(ctx, "alice@example.com", "Alice", domain.PurposeRegister, false); err != nil {
		t.Fatalf("issue otp: %v", err)
	}
	rec, err := otpStore.Get(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("live code: %v", err)
	}
	sessionTok, user, err := otpSvc.RegisterWithOTP(ctx, app.RegisterInput{
		Name: "Alice", Email: "alice@example.com", Phone: "555-0100",
		Password: "hunter22", Code: rec.Code,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sessionTok == "" {
		t.Fatal("expected session token")
	}
	if _, err := otpStore.Get(ctx, "alice@example.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("otp should be consumed, got %v", err)
	}

	// Login against the Postgres row.
	if _, _, err := authSvc.Login(ctx, "Alice@Example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// AI generation persisted to Postgres, then read through the cache.
	res, err := quizSvc.Generate(ctx, app.GenerateInput{UserID: user.ID, Topic: "Math", Level: "easy"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got, err := quizSvc.Get(ctx, res.Quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(got.Questions) != 2 || got.Questions[0].CorrectOption != 2 {
		t.Fatalf("unexpected quiz from cache: %+v", got)
	}

	// Score upsert lands in the JSONB column; a second score replaces it.
	if _, err := authSvc.UpdateScore(ctx, user.ID, res.Quiz.ID, 1); err != nil {
		t.Fatalf("first score: %v", err)
	}
	if _, err := authSvc.UpdateScore(ctx, user.ID, res.Quiz.ID, 2); err != nil {
		t.Fatalf("second score: %v", err)
	}
	profile, err := authSvc.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile.QuizAttempts) != 1 || profile.QuizAttempts[0].Score != 2 {
		t.Fatalf("expected single attempt with score 2, got %+v", profile.QuizAttempts)
	}

	// Owner delete removes the row and invalidates the cache.
	if err := quizSvc.Delete(ctx, user.ID, res.Quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := quizSvc.Get(ctx, res.Quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound after delete, got %v", err)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
