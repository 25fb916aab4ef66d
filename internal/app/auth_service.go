package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

// AuthService handles login, profile lookup, score recording and the legacy
// registration path that skips email verification.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	log    *logger.Logger
}

func NewAuthService(users UserRepository, tokens TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates an account without OTP verification. Kept for clients
// that predate the verified-email flow.
func (s *AuthService) Register(ctx context.Context, name, email, phone, password string) (string, *domain.User, error) {
	if name == "" || email == "" || phone == "" || password == "" {
		return "", nil, domain.ValidationError("all fields are required")
	}
	if len(password) < minPasswordLength {
		return "", nil, domain.ValidationError("password must be at least 6 characters")
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", nil, err
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Name:           name,
		Email:          normalized,
		Phone:          phone,
		PasswordDigest: string(digest),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, err
	}

	tok, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return tok, user, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ValidationError("email and password are required")
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	tok, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	s.log.Info("user logged in", "userId", user.ID)
	return tok, user, nil
}

// Profile returns the account for an authenticated user id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateScore records the latest score for a quiz, replacing any previous
// attempt for the same quiz.
func (s *AuthService) UpdateScore(ctx context.Context, userID, quizID string, score int) (domain.QuizAttempt, error) {
	if quizID == "" {
		return domain.QuizAttempt{}, domain.ValidationError("quizId is required")
	}
	if score < 0 {
		return domain.QuizAttempt{}, domain.ValidationError("score must be a non-negative integer")
	}
	return s.users.UpsertQuizAttempt(ctx, userID, quizID, score)
}
