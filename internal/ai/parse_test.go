package ai

import (
	"errors"
	"testing"

	"quizforge-service/internal/domain"
)

func TestParseValidReply(t *testing.T) {
	reply := `{"questions":[{"questionText":"Q","options":["a","b","c","d"],"correctOption":2,"explanation":"x"}]}`

	parsed, err := ParseQuizResponse(reply)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(parsed.Questions))
	}
	q := parsed.Questions[0]
	if q.CorrectOption != 2 {
		t.Fatalf("expected correctOption 2, got %d", q.CorrectOption)
	}
	if q.Explanation != "x" {
		t.Fatalf("expected explanation x, got %q", q.Explanation)
	}
}

func TestParseExtractsJSONFromProse(t *testing.T) {
	reply := "Here is your quiz:\n```json\n" +
		`{"questions":[{"questionText":"Q","options":["a","b"],"correctOption":1,"explanation":"y"}]}` +
		"\n```\nEnjoy!"

	parsed, err := ParseQuizResponse(reply)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Questions[0].QuestionText != "Q" {
		t.Fatalf("unexpected question: %+v", parsed.Questions[0])
	}
}

func TestParseNoJSONIsMalformed(t *testing.T) {
	_, err := ParseQuizResponse("sorry, I cannot help with that")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseQuestionsNotArray(t *testing.T) {
	_, err := ParseQuizResponse(`{"questions": "not-an-array"}`)
	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestParseMissingQuestions(t *testing.T) {
	_, err := ParseQuizResponse(`{"topic": "x"}`)
	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestParseSchemaViolationsNameIndex(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"missing text", `{"questions":[{"options":["a","b"],"correctOption":1}]}`},
		{"one option", `{"questions":[{"questionText":"Q","options":["a"],"correctOption":1}]}`},
		{"correctOption zero", `{"questions":[{"questionText":"Q","options":["a","b"],"correctOption":0}]}`},
		{"correctOption out of range", `{"questions":[{"questionText":"Q","options":["a","b"],"correctOption":3}]}`},
		{"correctOption not a number", `{"questions":[{"questionText":"Q","options":["a","b"],"correctOption":"2"}]}`},
		{"correctOption fractional", `{"questions":[{"questionText":"Q","options":["a","b"],"correctOption":1.5}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuizResponse(tc.reply)
			var schemaErr *domain.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Index != 0 {
				t.Fatalf("expected index 0, got %d", schemaErr.Index)
			}
		})
	}
}

func TestParseRepairsMissingExplanation(t *testing.T) {
	reply := `{"questions":[{"questionText":"Q","options":["a","b","c","d"],"correctOption":4}]}`

	parsed, err := ParseQuizResponse(reply)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Questions[0].Explanation != PlaceholderExplanation {
		t.Fatalf("expected placeholder explanation, got %q", parsed.Questions[0].Explanation)
	}
}

func TestParseAcceptsFloatIntegral(t *testing.T) {
	reply := `{"questions":[{"questionText":"Q","options":["a","b","c"],"correctOption":3.0,"explanation":"e"}]}`

	parsed, err := ParseQuizResponse(reply)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Questions[0].CorrectOption != 3 {
		t.Fatalf("expected 3, got %d", parsed.Questions[0].CorrectOption)
	}
}

func TestFormatForStorageCarriesIndexUnchanged(t *testing.T) {
	parsed := &ParsedQuiz{Questions: []ParsedQuestion{{
		QuestionText:  "Q",
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 2,
		Explanation:   "x",
	}}}

	quiz := FormatForStorage(parsed, "Rivers", domain.LevelEasy)
	if quiz.Topic != "Rivers" || quiz.Level != domain.LevelEasy {
		t.Fatalf("topic/level not attached: %+v", quiz)
	}
	// 1-based external contract: storage index is identical.
	if quiz.Questions[0].CorrectOption != 2 {
		t.Fatalf("expected correctOption 2 in storage, got %d", quiz.Questions[0].CorrectOption)
	}
}

func TestCleanTopic(t *testing.T) {
	cases := map[string]string{
		`"Ancient Rome"`:       "Ancient Rome",
		"Topic: Solar System":  "Solar System",
		"  plain topic  ":      "plain topic",
		"'Quoted'":             "Quoted",
	}
	for in, want := range cases {
		if got := CleanTopic(in); got != want {
			t.Fatalf("CleanTopic(%q) = %q, want %q", in, got, want)
		}
	}
}
