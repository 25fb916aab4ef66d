package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizforge-service/internal/domain"
)

// Service signs and verifies the two token kinds the platform uses: session
// tokens carrying a user ID (7 days by default) and password-reset tokens
// carrying an email (15 minutes by default).
type Service struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewService(secret string, sessionTTL, resetTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

type resetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignSession mints a session token with the user ID as subject.
func (s *Service) SignSession(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifySession validates a session token and returns the user ID.
func (s *Service) VerifySession(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("session token missing subject")
	}
	return claims.Subject, nil
}

// SignReset mints a short-lived token proving a completed reset-OTP
// verification for the email.
func (s *Service) SignReset(email string) (string, error) {
	now := time.Now()
	claims := resetClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyReset validates a reset token and returns the email it was minted for.
func (s *Service) VerifyReset(tokenString string) (string, error) {
	claims := &resetClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return "", domain.ErrResetTokenInvalid
	}
	if claims.Email == "" {
		return "", domain.ErrResetTokenInvalid
	}
	return claims.Email, nil
}

func (s *Service) parse(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
