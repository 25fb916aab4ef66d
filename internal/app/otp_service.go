package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

// UserRepository abstracts account storage (Postgres or in-memory).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, digest string) error
	UpsertQuizAttempt(ctx context.Context, userID, quizID string, score int) (domain.QuizAttempt, error)
}

// OTPRepository holds at most one live code per email; the store owns the
// TTL, so records it returns are never stale.
type OTPRepository interface {
	Put(ctx context.Context, rec domain.OneTimeCode) error
	Get(ctx context.Context, email string) (domain.OneTimeCode, error)
	Update(ctx context.Context, rec domain.OneTimeCode) error
	Delete(ctx context.Context, email string) error
}

// Mailer delivers OTP notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenIssuer signs session and password-reset tokens.
type TokenIssuer interface {
	SignSession(userID string) (string, error)
	SignReset(email string) (string, error)
	VerifyReset(tokenString string) (string, error)
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// bcryptCost matches what the account endpoints have always used; changing
// it would not invalidate existing digests but keeps hashing time predictable.
const bcryptCost = 10

// OTPService drives the email verification lifecycle: issue, verify,
// consume on registration, and the password-reset variant.
type OTPService struct {
	users  UserRepository
	codes  OTPRepository
	mailer Mailer
	tokens TokenIssuer
	ttl    time.Duration
	log    *logger.Logger
}

func NewOTPService(users UserRepository, codes OTPRepository, mailer Mailer, tokens TokenIssuer, ttl time.Duration, log *logger.Logger) *OTPService {
	return &OTPService{users: users, codes: codes, mailer: mailer, tokens: tokens, ttl: ttl, log: log}
}

// Issue generates a fresh 4-digit code for the email and mails it,
// returning the normalized address on success. Any previously live code for
// the email is replaced atomically, so exactly one code is valid at a time.
// name personalizes the registration mail; the reset mail greets the account
// holder by their stored name. resend only changes the wording.
func (s *OTPService) Issue(ctx context.Context, email, name string, purpose domain.OTPPurpose, resend bool) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	switch purpose {
	case domain.PurposeRegister:
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return "", domain.ErrEmailRegistered
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return "", err
		}
	case domain.PurposeReset:
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		name = user.Name
	default:
		return "", domain.ValidationError("unknown OTP purpose")
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	rec := domain.OneTimeCode{
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.codes.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	subject, body := otpMail(purpose, resend, name, code, s.ttl)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		// A code the user never received is useless; drop it so the next
		// request starts clean.
		_ = s.codes.Delete(ctx, email)
		return "", fmt.Errorf("send otp mail: %w", err)
	}

	s.log.Info("otp issued", "email", email, "purpose", string(purpose), "resend", resend)
	return email, nil
}

// Verify checks a submitted code. The exhausted-attempts check runs before
// the comparison, so the first three wrong codes each burn an attempt and
// report how many remain (2, 1, 0); only a further call hits the dead record
// and destroys it, whatever code it carries. A correct code marks the record
// verified so a follow-up consume can rely on it.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return domain.ValidationError("otp code is required")
	}

	rec, err := s.codes.Get(ctx, email)
	if err != nil {
		return err
	}
	if rec.Verified {
		// Already consumed by a verify; the record only awaits its consumer.
		return domain.ErrCodeNotFound
	}
	if rec.Attempts >= domain.MaxOTPAttempts {
		_ = s.codes.Delete(ctx, email)
		return domain.ErrAttemptsExceeded
	}

	if rec.Code != code {
		rec.Attempts++
		if err := s.codes.Update(ctx, rec); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		return &domain.InvalidCodeError{Remaining: domain.MaxOTPAttempts - rec.Attempts}
	}

	rec.Verified = true
	if err := s.codes.Update(ctx, rec); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// Consume discards the live code for an email. Callers invoke it once the
// flow the code guarded has completed.
func (s *OTPService) Consume(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	return s.codes.Delete(ctx, normalized)
}

// VerifyForReset validates a reset code and exchanges it for a short-lived
// reset token. The code is consumed on success.
func (s *OTPService) VerifyForReset(ctx context.Context, email, code string) (string, error) {
	if err := s.Verify(ctx, email, code); err != nil {
		return "", err
	}
	normalized, _ := NormalizeEmail(email)
	if err := s.Consume(ctx, normalized); err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}
	return s.tokens.SignReset(normalized)
}

// RegisterInput carries the registration form plus the OTP code.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Code     string
}

// RegisterWithOTP verifies the code, creates the account, consumes the code
// and returns a signed session token. The code survives a failed account
// creation so the user can retry without requesting a new one.
func (s *OTPService) RegisterWithOTP(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" || in.Code == "" {
		return "", nil, domain.ValidationError("all fields are required")
	}
	if len(in.Password) < minPasswordLength {
		return "", nil, domain.ValidationError("password must be at least 6 characters")
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return "", nil, err
	}

	if err := s.Verify(ctx, email, in.Code); err != nil {
		return "", nil, err
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:           in.Name,
		Email:          email,
		Phone:          in.Phone,
		PasswordDigest: string(digest),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, err
	}

	if err := s.Consume(ctx, email); err != nil {
		s.log.Warn("otp cleanup after registration failed", "email", email, "error", err)
	}

	tok, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	s.log.Info("user registered", "userId", user.ID, "email", email)
	return tok, user, nil
}

// ResetPassword exchanges a valid reset token for a new password digest.
func (s *OTPService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return domain.ValidationError("reset token is required")
	}
	if len(newPassword) < minPasswordLength {
		return domain.ValidationError("password must be at least 6 characters")
	}

	email, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return err
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, email, string(digest)); err != nil {
		return err
	}
	// Any code issued for the email after the token was minted is dead now.
	if err := s.Consume(ctx, email); err != nil {
		s.log.Warn("otp cleanup after password reset failed", "email", email, "error", err)
	}
	s.log.Info("password reset", "email", email)
	return nil
}

// NormalizeEmail lowercases an address and rejects malformed shapes. Every
// entry point that touches an email goes through here so the stores only
// ever see the canonical form.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return "", domain.ValidationError("invalid email address")
	}
	return email, nil
}

// generateCode draws a uniform 4-digit code in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}

func otpMail(purpose domain.OTPPurpose, resend bool, name, code string, ttl time.Duration) (subject, body string) {
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 5
	}
	if name == "" {
		name = "User"
	}
	switch {
	case purpose == domain.PurposeReset:
		subject = "Your OTP for Password Reset"
		body = fmt.Sprintf("Dear %s,\r\n\r\nYour OTP for password reset is: %s\r\n\r\nThis OTP is valid for %d minutes only. Please do not share this OTP with anyone.\r\n\r\nIf you didn't request this password reset, please ignore this email and secure your account.", name, code, minutes)
	case resend:
		subject = "Your OTP for Account Registration (Resent)"
		body = fmt.Sprintf("Your new OTP for account registration is: %s\r\n\r\nThis OTP is valid for %d minutes only. Please do not share this OTP with anyone.\r\n\r\nIf you didn't request this OTP, please ignore this email.", code, minutes)
	default:
		subject = "Your OTP for Account Registration"
		body = fmt.Sprintf("Dear %s,\r\n\r\nYour OTP for account registration is: %s\r\n\r\nThis OTP is valid for %d minutes only. Please do not share this OTP with anyone.\r\n\r\nIf you didn't request this OTP, please ignore this email.", name, code, minutes)
	}
	return subject, body
}
