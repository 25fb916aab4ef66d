package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"quizforge-service/internal/domain"
	"quizforge-service/internal/platform/logger"
)

const (
	// DefaultBaseURL targets OpenRouter, which speaks the OpenAI chat API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "mistralai/mistral-small-3.2-24b-instruct-2506:free"
)

// Config carries the provider settings from the top-level configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client calls the external completion provider for topic naming, question
// generation, and question clarification. GenerateQuiz returns the raw reply
// text; parsing and validation live in parse.go so they can run against any
// provider output.
type Client struct {
	api   *openai.Client
	model string
	log   *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	if apiCfg.BaseURL == "" {
		apiCfg.BaseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: model,
		log:   log.With("component", "ai"),
	}
}

// GenerateTopic asks the model to name a quiz topic from a hint and/or image.
func (c *Client) GenerateTopic(ctx context.Context, hint, imageURL string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are an intelligent topic generator. Generate a concise, specific, and descriptive topic name.",
		},
		userMessage(TopicPrompt(hint), imageURL),
	}
	reply, err := c.complete(ctx, messages, 100)
	if err != nil {
		return "", err
	}
	topic := CleanTopic(reply)
	if topic == "" {
		return "", fmt.Errorf("empty topic in provider response")
	}
	return topic, nil
}

// GenerateQuiz asks the model for quiz questions and returns the raw reply.
func (c *Client) GenerateQuiz(ctx context.Context, topic string, level domain.Level, imageURL string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are a quiz question generator assistant. Generate well-formatted, valid JSON quiz questions on the requested topic. Each question must include an explanation for the correct answer.",
		},
		userMessage(QuizPrompt(topic, level), imageURL),
	}
	return c.complete(ctx, messages, 4000)
}

// Explain answers a clarification request about one question, returning
// sanitized plain text.
func (c *Client) Explain(ctx context.Context, questionText string, options []string, explanation string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are an expert assistant providing clear and concise explanations for quiz questions in plain text without markdown or special formatting.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: ExplainPrompt(questionText, options, explanation),
		},
	}
	reply, err := c.complete(ctx, messages, 500)
	if err != nil {
		return "", err
	}
	return SanitizeText(reply), nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", c.translateError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("invalid or empty response from provider")
	}
	return resp.Choices[0].Message.Content, nil
}

// userMessage builds the user turn, attaching the image as a multi-part
// message when a URL is present.
func userMessage(prompt, imageURL string) openai.ChatCompletionMessage {
	if imageURL == "" {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
			},
		},
	}
}

// translateError maps provider failures onto friendlier messages for the
// auth-failure, rate-limit, and connectivity cases; everything else passes
// through wrapped.
func (c *Client) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("API authentication failed, check the provider API key: %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("API rate limit exceeded, try again later: %w", err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("failed to connect to the AI provider: %w", err)
	}
	c.log.Warn("provider call failed", "error", err)
	return fmt.Errorf("ai provider: %w", err)
}
