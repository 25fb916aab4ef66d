package domain

import "time"

// Level is the quiz difficulty tag.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// ParseLevel validates a difficulty tag supplied by a client.
func ParseLevel(raw string) (Level, bool) {
	switch Level(raw) {
	case LevelEasy, LevelMedium, LevelHard:
		return Level(raw), true
	default:
		return "", false
	}
}

// User is an account identified by its lowercase email.
// PasswordDigest is never serialized to clients.
type User struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	PasswordDigest string        `json:"-"`
	QuizAttempts   []QuizAttempt `json:"quizAttempts"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// QuizAttempt records a user's latest score for one quiz.
// At most one attempt exists per (user, quiz) pair; score updates
// replace the existing entry in place.
type QuizAttempt struct {
	QuizID    string    `json:"quizId"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Question is a multiple-choice question. CorrectOption is a 1-based
// index into Options.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// Quiz is an ordered set of questions owned by a user. Immutable once
// created except for deletion.
type Quiz struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Topic     string     `json:"topic"`
	Level     Level      `json:"level"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuizTitle is the id+topic projection used by listing endpoints.
type QuizTitle struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
}

// OTPPurpose selects the precondition and mail template for code issuance.
type OTPPurpose string

const (
	PurposeRegister OTPPurpose = "register"
	PurposeReset    OTPPurpose = "reset"
)

// MaxOTPAttempts bounds wrong-code submissions per issued code.
const MaxOTPAttempts = 3

// OneTimeCode is the live OTP record for an email. The store keeps at
// most one record per email and expires it via TTL; re-issuing a code
// overwrites any prior record.
type OneTimeCode struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}
