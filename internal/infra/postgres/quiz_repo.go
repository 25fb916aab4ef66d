package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizforge-service/internal/domain"
)

// QuizRepo persists quizzes in Postgres with questions stored as JSONB.
type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	quiz.CreatedAt = time.Now().UTC()
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quizzes (id, user_id, topic, level, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		quiz.ID, quiz.UserID, quiz.Topic, string(quiz.Level), questions, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepo) GetByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz      domain.Quiz
		questions []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, topic, level, questions, created_at
		FROM quizzes WHERE id = $1`,
		quizID).Scan(&quiz.ID, &quiz.UserID, &quiz.Topic, &quiz.Level, &questions, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode questions: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepo) GetAll(ctx context.Context) ([]domain.Quiz, error) {
	return r.list(ctx, `
		SELECT id, user_id, topic, level, questions, created_at
		FROM quizzes ORDER BY created_at DESC`)
}

func (r *QuizRepo) GetByUser(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return r.list(ctx, `
		SELECT id, user_id, topic, level, questions, created_at
		FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *QuizRepo) list(ctx context.Context, query string, args ...any) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var (
			quiz      domain.Quiz
			questions []byte
		)
		if err := rows.Scan(&quiz.ID, &quiz.UserID, &quiz.Topic, &quiz.Level, &questions, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepo) Titles(ctx context.Context) ([]domain.QuizTitle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, topic FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	titles := make([]domain.QuizTitle, 0)
	for rows.Next() {
		var t domain.QuizTitle
		if err := rows.Scan(&t.ID, &t.Topic); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

func (r *QuizRepo) Delete(ctx context.Context, quizID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
