package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizforge-service/internal/domain"
)

// UserRepo persists users in Postgres. Quiz attempts live in a JSONB column
// so the upsert-by-quiz operation is a single atomic statement.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.QuizAttempts == nil {
		user.QuizAttempts = []domain.QuizAttempt{}
	}
	attempts, err := json.Marshal(user.QuizAttempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_digest, quiz_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordDigest, attempts, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return domain.ErrEmailRegistered
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, "email = $1", strings.ToLower(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		user     domain.User
		attempts []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, password_digest, quiz_attempts, created_at, updated_at
		FROM users WHERE `+where,
		arg).Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordDigest,
		&attempts, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := json.Unmarshal(attempts, &user.QuizAttempts); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, email, digest string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_digest = $2, updated_at = now() WHERE email = $1`,
		strings.ToLower(email), digest)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpsertQuizAttempt updates the attempt for the quiz in place when one
// exists, otherwise appends a new one. Each branch is a single statement
// over the JSONB column, so concurrent updates to the same user cannot
// duplicate an attempt.
func (r *UserRepo) UpsertQuizAttempt(ctx context.Context, userID, quizID string, score int) (domain.QuizAttempt, error) {
	attempt := domain.QuizAttempt{QuizID: quizID, Score: score, UpdatedAt: time.Now().UTC()}
	patch, err := json.Marshal(attempt)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("marshal attempt: %w", err)
	}
	marker, err := json.Marshal([]map[string]string{{"quizId": quizID}})
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("marshal marker: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET quiz_attempts = (
			SELECT jsonb_agg(CASE WHEN elem->>'quizId' = $2 THEN $3::jsonb ELSE elem END)
			FROM jsonb_array_elements(quiz_attempts) AS elem
		), updated_at = now()
		WHERE id = $1 AND quiz_attempts @> $4::jsonb`,
		userID, quizID, patch, marker)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return attempt, nil
	}

	tag, err = r.pool.Exec(ctx, `
		UPDATE users SET quiz_attempts = quiz_attempts || $2::jsonb, updated_at = now()
		WHERE id = $1`,
		userID, patch)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("append attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.QuizAttempt{}, domain.ErrUserNotFound
	}
	return attempt, nil
}
