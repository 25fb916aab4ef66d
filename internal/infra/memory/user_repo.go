package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizforge-service/internal/domain"
)

// UserRepo is an in-memory user store for tests and redis/postgres-less
// development runs.
type UserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
	clock   func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[string]*domain.User),
		clock:   time.Now,
	}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrEmailRegistered
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.clock()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.QuizAttempts == nil {
		user.QuizAttempts = []domain.QuizAttempt{}
	}
	stored := cloneUser(user)
	r.byEmail[email] = stored
	r.byID[user.ID] = stored
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, email, digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordDigest = digest
	user.UpdatedAt = r.clock()
	return nil
}

// UpsertQuizAttempt replaces the attempt for the quiz in place, or appends a
// new one; at most one attempt per (user, quiz) pair survives.
func (r *UserRepo) UpsertQuizAttempt(_ context.Context, userID, quizID string, score int) (domain.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrUserNotFound
	}
	attempt := domain.QuizAttempt{QuizID: quizID, Score: score, UpdatedAt: r.clock()}
	for i := range user.QuizAttempts {
		if user.QuizAttempts[i].QuizID == quizID {
			user.QuizAttempts[i] = attempt
			return attempt, nil
		}
	}
	user.QuizAttempts = append(user.QuizAttempts, attempt)
	return attempt, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.QuizAttempts = append([]domain.QuizAttempt(nil), u.QuizAttempts...)
	return &c
}
