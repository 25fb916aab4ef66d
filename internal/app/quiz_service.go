package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"quizforge-service/internal/ai"
	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

// QuizRepository abstracts quiz storage.
type QuizRepository interface {
	Create(ctx context.Context, quiz *domain.Quiz) error
	GetByID(ctx context.Context, quizID string) (domain.Quiz, error)
	GetAll(ctx context.Context) ([]domain.Quiz, error)
	GetByUser(ctx context.Context, userID string) ([]domain.Quiz, error)
	Titles(ctx context.Context) ([]domain.QuizTitle, error)
	Delete(ctx context.Context, quizID string) error
}

// QuizReader is the read-through cache in front of the repository.
type QuizReader interface {
	GetByID(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// Generator produces quiz content through the LLM backend.
type Generator interface {
	GenerateTopic(ctx context.Context, hint, imageURL string) (string, error)
	GenerateQuiz(ctx context.Context, topic string, level domain.Level, imageURL string) (string, error)
	Explain(ctx context.Context, questionText string, options []string, explanation string) (string, error)
}

// Uploader stores quiz context images and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, contentType string) (string, error)
}

// QuizService owns quiz CRUD and the AI generation pipeline.
type QuizService struct {
	quizzes  QuizRepository
	cache    QuizReader // optional; nil falls back to the repository
	gen      Generator
	uploader Uploader
	log      *logger.Logger
}

func NewQuizService(quizzes QuizRepository, cache QuizReader, gen Generator, uploader Uploader, log *logger.Logger) *QuizService {
	return &QuizService{quizzes: quizzes, cache: cache, gen: gen, uploader: uploader, log: log}
}

// Create stores a user-authored quiz after validating its shape.
func (s *QuizService) Create(ctx context.Context, userID, topic, level string, questions []domain.Question) (domain.Quiz, error) {
	lvl, ok := domain.ParseLevel(level)
	if !ok {
		return domain.Quiz{}, domain.ValidationError("level must be easy, medium or hard")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.Quiz{}, domain.ValidationError("topic is required")
	}
	if len(questions) == 0 {
		return domain.Quiz{}, domain.ValidationError("at least one question is required")
	}
	for i, q := range questions {
		if err := validateQuestion(i, q); err != nil {
			return domain.Quiz{}, err
		}
	}

	quiz := domain.Quiz{
		UserID:    userID,
		Topic:     topic,
		Level:     lvl,
		Questions: questions,
	}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func validateQuestion(i int, q domain.Question) error {
	switch {
	case strings.TrimSpace(q.QuestionText) == "":
		return domain.ValidationError(fmt.Sprintf("question %d: questionText is required", i+1))
	case len(q.Options) < 2:
		return domain.ValidationError(fmt.Sprintf("question %d: at least two options are required", i+1))
	case q.CorrectOption < 1 || q.CorrectOption > len(q.Options):
		return domain.ValidationError(fmt.Sprintf("question %d: correctOption out of range", i+1))
	}
	return nil
}

// GenerateInput carries the generation request. Image is optional; when
// present it is uploaded and forwarded to the model as visual context.
type GenerateInput struct {
	UserID           string
	Topic            string
	Level            string
	Image            io.Reader
	ImageContentType string
}

// GenerateResult is the persisted quiz plus whether the topic came from the
// model instead of the user.
type GenerateResult struct {
	Quiz               domain.Quiz
	AutoGeneratedTopic bool
}

// Generate runs the full AI pipeline: optional image upload, topic
// inference when the user gave none, quiz generation, schema validation and
// a single persist. An upload failure aborts before any model call.
func (s *QuizService) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	lvl, ok := domain.ParseLevel(in.Level)
	if !ok {
		return GenerateResult{}, domain.ValidationError("level must be easy, medium or hard")
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" && in.Image == nil {
		return GenerateResult{}, domain.ValidationError("either topic or image is required")
	}

	var imageURL string
	if in.Image != nil {
		url, err := s.uploader.Upload(ctx, in.Image, in.ImageContentType)
		if err != nil {
			return GenerateResult{}, err
		}
		imageURL = url
		s.log.Debug("quiz image uploaded", "url", imageURL)
	}

	// The model names the topic whenever an image is in play, even if the
	// user supplied one; the supplied topic then serves as the hint.
	autoTopic := false
	if imageURL != "" || topic == "" {
		autoTopic = true
		topic = s.inferTopic(ctx, topic, imageURL)
	}

	reply, err := s.gen.GenerateQuiz(ctx, topic, lvl, imageURL)
	if err != nil {
		return GenerateResult{}, err
	}
	parsed, err := ai.ParseQuizResponse(reply)
	if err != nil {
		return GenerateResult{}, err
	}

	quiz := ai.FormatForStorage(parsed, topic, lvl)
	quiz.UserID = in.UserID
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return GenerateResult{}, err
	}

	s.log.Info("quiz generated", "quizId", quiz.ID, "topic", topic, "level", string(lvl),
		"questions", len(quiz.Questions), "autoTopic", autoTopic)
	return GenerateResult{Quiz: quiz, AutoGeneratedTopic: autoTopic}, nil
}

// inferTopic asks the model for a topic and falls back silently to the hint,
// then to the default, when the model fails. Generation proceeds either way.
func (s *QuizService) inferTopic(ctx context.Context, hint, imageURL string) string {
	topic, err := s.gen.GenerateTopic(ctx, hint, imageURL)
	if err != nil || strings.TrimSpace(topic) == "" {
		s.log.Warn("topic inference failed, falling back", "error", err, "hint", hint)
		if hint != "" {
			return hint
		}
		return ai.DefaultTopic
	}
	return ai.CleanTopic(topic)
}

// Get reads a quiz through the cache when one is wired.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	if s.cache != nil {
		return s.cache.GetByID(ctx, quizID)
	}
	return s.quizzes.GetByID(ctx, quizID)
}

func (s *QuizService) GetAll(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.GetAll(ctx)
}

func (s *QuizService) GetByUser(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return s.quizzes.GetByUser(ctx, userID)
}

func (s *QuizService) Titles(ctx context.Context) ([]domain.QuizTitle, error) {
	return s.quizzes.Titles(ctx)
}

// Delete removes a quiz. Only the owner may delete; the cached copy is
// invalidated after the row is gone.
func (s *QuizService) Delete(ctx context.Context, userID, quizID string) error {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.UserID != userID {
		return domain.ErrNotQuizOwner
	}
	if err := s.quizzes.Delete(ctx, quizID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, quizID); err != nil {
			s.log.Warn("cache invalidation failed", "quizId", quizID, "error", err)
		}
	}
	return nil
}

// AskAI produces a plain-text elaboration of a question's answer.
func (s *QuizService) AskAI(ctx context.Context, questionText string, options []string, explanation string) (string, error) {
	if strings.TrimSpace(questionText) == "" || len(options) == 0 || strings.TrimSpace(explanation) == "" {
		return "", domain.ValidationError("question text, options, and explanation are required")
	}
	reply, err := s.gen.Explain(ctx, questionText, options, explanation)
	if err != nil {
		return "", err
	}
	return ai.SanitizeText(reply), nil
}
