package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"quizforge-service/internal/domain"
)

// PlaceholderExplanation substitutes a missing explanation instead of
// rejecting the question.
const PlaceholderExplanation = "No explanation provided."

// ParsedQuiz is a validated AI reply, ready for storage-format conversion.
type ParsedQuiz struct {
	Questions []ParsedQuestion
}

// ParsedQuestion mirrors domain.Question but is kept separate so the
// validator's output type cannot be confused with stored data.
type ParsedQuestion struct {
	QuestionText  string
	Options       []string
	CorrectOption int // 1-based, validated within [1, len(Options)]
	Explanation   string
}

type rawQuiz struct {
	Questions json.RawMessage `json:"questions"`
}

type rawQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectOption any      `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// ParseQuizResponse turns an untrusted free-form model reply into a validated
// quiz. Replies wrapped in prose or code fences are handled by extracting the
// outermost brace-delimited object. Structural failures return
// domain.ErrMalformedResponse (no JSON at all) or *domain.SchemaError (a JSON
// object that violates the contract). A missing explanation is repaired with
// PlaceholderExplanation rather than rejected.
func ParseQuizResponse(reply string) (*ParsedQuiz, error) {
	payload, ok := extractJSONObject(reply)
	if !ok {
		return nil, domain.ErrMalformedResponse
	}

	var outer rawQuiz
	if err := json.Unmarshal([]byte(payload), &outer); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(outer.Questions) == 0 {
		return nil, &domain.SchemaError{Index: -1, Reason: "missing questions array"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(outer.Questions, &items); err != nil {
		return nil, &domain.SchemaError{Index: -1, Reason: "questions is not an array"}
	}
	if len(items) == 0 {
		return nil, &domain.SchemaError{Index: -1, Reason: "questions array is empty"}
	}

	parsed := &ParsedQuiz{Questions: make([]ParsedQuestion, 0, len(items))}
	for i, item := range items {
		q, err := parseQuestion(i, item)
		if err != nil {
			return nil, err
		}
		parsed.Questions = append(parsed.Questions, q)
	}
	return parsed, nil
}

func parseQuestion(index int, item json.RawMessage) (ParsedQuestion, error) {
	var raw rawQuestion
	if err := json.Unmarshal(item, &raw); err != nil {
		return ParsedQuestion{}, &domain.SchemaError{Index: index, Reason: "not a question object"}
	}
	if strings.TrimSpace(raw.QuestionText) == "" {
		return ParsedQuestion{}, &domain.SchemaError{Index: index, Reason: "missing questionText"}
	}
	if len(raw.Options) < 2 {
		return ParsedQuestion{}, &domain.SchemaError{Index: index, Reason: "invalid options"}
	}

	correct, ok := intFromAny(raw.CorrectOption)
	if !ok || correct < 1 || correct > len(raw.Options) {
		return ParsedQuestion{}, &domain.SchemaError{Index: index, Reason: "invalid correctOption"}
	}

	explanation := raw.Explanation
	if strings.TrimSpace(explanation) == "" {
		explanation = PlaceholderExplanation
	}

	return ParsedQuestion{
		QuestionText:  raw.QuestionText,
		Options:       raw.Options,
		CorrectOption: correct,
		Explanation:   explanation,
	}, nil
}

// intFromAny accepts the number shapes a loosely-typed model reply can carry.
func intFromAny(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// extractJSONObject returns the outermost brace-delimited substring, which
// tolerates explanatory prose or markdown fences around the object.
func extractJSONObject(reply string) (string, bool) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

// FormatForStorage converts a validated quiz into the storage shape, attaching
// the caller-supplied topic and level (never trusted from the model reply).
// The external contract is already 1-based so correctOption carries through
// unchanged.
func FormatForStorage(parsed *ParsedQuiz, topic string, level domain.Level) domain.Quiz {
	questions := make([]domain.Question, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		explanation := q.Explanation
		if explanation == "" {
			explanation = PlaceholderExplanation
		}
		questions = append(questions, domain.Question{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   explanation,
		})
	}
	return domain.Quiz{
		Topic:     topic,
		Level:     level,
		Questions: questions,
	}
}

// CleanTopic normalizes a model-generated topic name: surrounding quotes, a
// "Topic:" prefix, and stray whitespace are stripped.
func CleanTopic(reply string) string {
	topic := strings.TrimSpace(reply)
	topic = strings.Trim(topic, `"'`)
	for _, prefix := range []string{"Topic:", "topic:"} {
		topic = strings.TrimSpace(strings.TrimPrefix(topic, prefix))
	}
	return strings.TrimSpace(topic)
}
