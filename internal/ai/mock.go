package ai

import (
	"context"
	"sync"

	"quizforge-service/internal/domain"
)

// MockGenerator is a deterministic stand-in for the provider client, used by
// service tests. Replies are returned FIFO per method and every call is
// recorded.
type MockGenerator struct {
	mu sync.Mutex

	TopicReplies []MockReply
	QuizReplies  []MockReply
	TextReplies  []MockReply

	TopicCalls []TopicCall
	QuizCalls  []QuizCall
}

// MockReply is one canned reply or error.
type MockReply struct {
	Content string
	Err     error
}

type TopicCall struct {
	Hint     string
	ImageURL string
}

type QuizCall struct {
	Topic    string
	Level    domain.Level
	ImageURL string
}

func (m *MockGenerator) GenerateTopic(_ context.Context, hint, imageURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TopicCalls = append(m.TopicCalls, TopicCall{Hint: hint, ImageURL: imageURL})
	reply, err := pop(&m.TopicReplies)
	return reply, err
}

func (m *MockGenerator) GenerateQuiz(_ context.Context, topic string, level domain.Level, imageURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuizCalls = append(m.QuizCalls, QuizCall{Topic: topic, Level: level, ImageURL: imageURL})
	reply, err := pop(&m.QuizReplies)
	return reply, err
}

func (m *MockGenerator) Explain(_ context.Context, _ string, _ []string, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reply, err := pop(&m.TextReplies)
	if err != nil {
		return "", err
	}
	return SanitizeText(reply), nil
}

func pop(replies *[]MockReply) (string, error) {
	if len(*replies) == 0 {
		return "", context.DeadlineExceeded
	}
	r := (*replies)[0]
	*replies = (*replies)[1:]
	return r.Content, r.Err
}
