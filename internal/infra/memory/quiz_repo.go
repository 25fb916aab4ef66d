package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizforge-service/internal/domain"
)

// QuizRepo is an in-memory quiz store for tests and development runs.
type QuizRepo struct {
	mu      sync.RWMutex
	quizzes map[string]*domain.Quiz
	clock   func() time.Time
	seq     int
}

func NewQuizRepo() *QuizRepo {
	return &QuizRepo{
		quizzes: make(map[string]*domain.Quiz),
		clock:   time.Now,
	}
}

func (r *QuizRepo) Create(_ context.Context, quiz *domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	// Nudge equal clock readings apart so list ordering stays stable.
	r.seq++
	quiz.CreatedAt = r.clock().Add(time.Duration(r.seq) * time.Nanosecond)
	stored := *quiz
	r.quizzes[quiz.ID] = &stored
	return nil
}

func (r *QuizRepo) GetByID(_ context.Context, quizID string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return *quiz, nil
}

func (r *QuizRepo) GetAll(_ context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*domain.Quiz) bool { return true }), nil
}

func (r *QuizRepo) GetByUser(_ context.Context, userID string) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(q *domain.Quiz) bool { return q.UserID == userID }), nil
}

func (r *QuizRepo) Titles(_ context.Context) ([]domain.QuizTitle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quizzes := r.collect(func(*domain.Quiz) bool { return true })
	titles := make([]domain.QuizTitle, 0, len(quizzes))
	for _, q := range quizzes {
		titles = append(titles, domain.QuizTitle{ID: q.ID, Topic: q.Topic})
	}
	return titles, nil
}

func (r *QuizRepo) Delete(_ context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(r.quizzes, quizID)
	return nil
}

// collect returns matching quizzes ordered by creation time descending,
// mirroring the persistent store's listing order.
func (r *QuizRepo) collect(match func(*domain.Quiz) bool) []domain.Quiz {
	out := make([]domain.Quiz, 0, len(r.quizzes))
	for _, q := range r.quizzes {
		if match(q) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
