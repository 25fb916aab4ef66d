package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailRegistered is returned when a registration flow targets an email
	// that already has an account.
	ErrEmailRegistered = errors.New("email already registered")
	// ErrUserNotFound is returned when no account exists for the identity.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for both unknown-email and wrong-password
	// logins; the shape is identical to avoid user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCodeNotFound means no live OTP exists for the email (expired, consumed,
	// or never issued).
	ErrCodeNotFound = errors.New("otp not found or expired")
	// ErrAttemptsExceeded means the OTP was destroyed after too many wrong codes.
	ErrAttemptsExceeded = errors.New("maximum verification attempts exceeded")
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotQuizOwner is returned when deletion is attempted by a non-owner.
	ErrNotQuizOwner = errors.New("not the quiz owner")
	// ErrUploadFailed indicates the image-hosting collaborator rejected the upload.
	ErrUploadFailed = errors.New("failed to upload image")
	// ErrMalformedResponse means no parseable JSON object was found in the AI reply.
	ErrMalformedResponse = errors.New("no valid JSON found in AI response")
	// ErrResetTokenInvalid means the password-reset token failed verification.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

// ValidationError reports a bad input shape; transports map it to 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// InvalidCodeError is returned on an OTP mismatch and carries how many
// attempts remain before the record is destroyed.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid OTP, %d attempts remaining", e.Remaining)
}

// SchemaError reports a structurally broken question in an AI reply,
// naming the offending index (0-based position in the reply).
type SchemaError struct {
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("question %d: %s", e.Index+1, e.Reason)
}
