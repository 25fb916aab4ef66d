package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quizforge-service/internal/domain"
	"quizforge-service/internal/infra/memory"
	"quizforge-service/internal/platform/logger"
	"quizforge-service/internal/token"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	sent []sentMail
	err  error
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func newOTPFixture(t *testing.T) (*OTPService, *AuthService, OTPRepository, *captureMailer) {
	t.Helper()
	users := memory.NewUserRepo()
	codes := memory.NewOTPStore(5 * time.Minute)
	mailer := &captureMailer{}
	tokens := token.NewService("test-secret", time.Hour, 15*time.Minute)
	log := logger.NewNop()
	otp := NewOTPService(users, codes, mailer, tokens, 5*time.Minute, log)
	auth := NewAuthService(users, tokens, log)
	return otp, auth, codes, mailer
}

func liveCode(t *testing.T, codes OTPRepository, email string) string {
	t.Helper()
	rec, err := codes.Get(context.Background(), email)
	if err != nil {
		t.Fatalf("expected live code for %s: %v", email, err)
	}
	return rec.Code
}

func TestRegisterWithOTPFlow(t *testing.T) {
	otp, auth, codes, mailer := newOTPFixture(t)
	ctx := context.Background()

	issued, err := otp.Issue(ctx, "Jane@Example.com", "Jane", domain.PurposeRegister, false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued != "jane@example.com" {
		t.Fatalf("expected normalized email back, got %q", issued)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "jane@example.com" {
		t.Fatalf("expected one mail to lowercase address, got %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].Body, "Dear Jane") {
		t.Fatalf("registration mail should greet by name, got %q", mailer.sent[0].Body)
	}
	code := liveCode(t, codes, "jane@example.com")
	if len(code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", code)
	}

	tok, user, err := otp.RegisterWithOTP(ctx, RegisterInput{
		Name: "Jane", Email: "Jane@Example.com", Phone: "555-0100",
		Password: "hunter22", Code: code,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if tok == "" {
		t.Fatal("expected session token")
	}
	if user.Email != "jane@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}

	// Code is consumed; it cannot be verified again.
	if err := otp.Verify(ctx, "jane@example.com", code); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after consume, got %v", err)
	}

	// The new account can log in.
	if _, _, err := auth.Login(ctx, "jane@example.com", "hunter22"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestVerifyWrongCodeBurnsAttempts(t *testing.T) {
	otp, _, codes, _ := newOTPFixture(t)
	ctx := context.Background()

	if _, err := otp.Issue(ctx, "a@b.com", "", domain.PurposeRegister, false); err != nil {
		t.Fatalf("issue: %v", err)
	}
	right := liveCode(t, codes, "a@b.com")

	// The first three wrong codes each report how many attempts remain,
	// including zero on the third.
	for want := 2; want >= 0; want-- {
		err := otp.Verify(ctx, "a@b.com", "0000")
		var ice *domain.InvalidCodeError
		if !errors.As(err, &ice) {
			t.Fatalf("wrong-code call expecting remaining %d: got %v", want, err)
		}
		if ice.Remaining != want {
			t.Fatalf("expected %d attempts remaining, got %d", want, ice.Remaining)
		}
	}

	// The fourth call hits the dead record and destroys it, even when it
	// finally carries the right code.
	if err := otp.Verify(ctx, "a@b.com", right); !errors.Is(err, domain.ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}
	if _, err := codes.Get(ctx, "a@b.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestIssueReplacesLiveCode(t *testing.T) {
	otp, _, codes, mailer := newOTPFixture(t)
	ctx := context.Background()

	if _, err := otp.Issue(ctx, "a@b.com", "", domain.PurposeRegister, false); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	first := liveCode(t, codes, "a@b.com")
	if _, err := otp.Issue(ctx, "a@b.com", "", domain.PurposeRegister, true); err != nil {
		t.Fatalf("resend: %v", err)
	}
	second := liveCode(t, codes, "a@b.com")

	if first == second {
		t.Skip("codes collided; nothing to assert")
	}
	var ice *domain.InvalidCodeError
	if err := otp.Verify(ctx, "a@b.com", first); !errors.As(err, &ice) {
		t.Fatalf("expected the replaced code to be invalid, got %v", err)
	}
	if err := otp.Verify(ctx, "a@b.com", second); err != nil {
		t.Fatalf("current code should verify: %v", err)
	}
	if !strings.Contains(mailer.sent[1].Subject, "Resent") {
		t.Fatalf("resend mail should carry the resent subject, got %q", mailer.sent[1].Subject)
	}
}

func TestIssuePreconditions(t *testing.T) {
	otp, auth, _, _ := newOTPFixture(t)
	ctx := context.Background()

	if _, _, err := auth.Register(ctx, "Jane", "jane@example.com", "555-0100", "hunter22"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := otp.Issue(ctx, "jane@example.com", "Jane", domain.PurposeRegister, false); !errors.Is(err, domain.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
	if _, err := otp.Issue(ctx, "ghost@example.com", "", domain.PurposeReset, false); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var ve domain.ValidationError
	if _, err := otp.Issue(ctx, "not-an-email", "", domain.PurposeRegister, false); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for malformed email, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	otp, auth, codes, mailer := newOTPFixture(t)
	ctx := context.Background()

	if _, _, err := auth.Register(ctx, "Jane", "jane@example.com", "555-0100", "oldpassword"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := otp.Issue(ctx, "jane@example.com", "", domain.PurposeReset, false); err != nil {
		t.Fatalf("issue reset: %v", err)
	}
	// The reset mail greets the account holder by their stored name.
	if !strings.Contains(mailer.sent[0].Body, "Dear Jane") {
		t.Fatalf("reset mail should greet the user by name, got %q", mailer.sent[0].Body)
	}
	if !strings.Contains(mailer.sent[0].Subject, "Password Reset") {
		t.Fatalf("unexpected reset subject %q", mailer.sent[0].Subject)
	}
	code := liveCode(t, codes, "jane@example.com")

	resetTok, err := otp.VerifyForReset(ctx, "jane@example.com", code)
	if err != nil {
		t.Fatalf("verify for reset: %v", err)
	}
	if resetTok == "" {
		t.Fatal("expected reset token")
	}
	// Code is consumed by a successful reset verification.
	if _, err := codes.Get(ctx, "jane@example.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected consumed code, got %v", err)
	}

	// A code issued after the token was minted dies with the reset.
	if _, err := otp.Issue(ctx, "jane@example.com", "", domain.PurposeReset, false); err != nil {
		t.Fatalf("issue second reset: %v", err)
	}
	if err := otp.ResetPassword(ctx, resetTok, "newpassword"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := codes.Get(ctx, "jane@example.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("reset should purge outstanding codes, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "jane@example.com", "oldpassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be dead, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "jane@example.com", "newpassword"); err != nil {
		t.Fatalf("new password should log in: %v", err)
	}
}

func TestResetPasswordRejectsBadToken(t *testing.T) {
	otp, _, _, _ := newOTPFixture(t)

	if err := otp.ResetPassword(context.Background(), "garbage", "newpassword"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
	var ve domain.ValidationError
	if err := otp.ResetPassword(context.Background(), "tok", "short"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestIssueDropsCodeWhenMailFails(t *testing.T) {
	otp, _, codes, mailer := newOTPFixture(t)
	mailer.err = errors.New("smtp down")

	if _, err := otp.Issue(context.Background(), "a@b.com", "", domain.PurposeRegister, false); err == nil {
		t.Fatal("expected error when mail delivery fails")
	}
	if _, err := codes.Get(context.Background(), "a@b.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("undeliverable code should be dropped, got %v", err)
	}
}
