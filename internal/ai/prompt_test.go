package ai

import (
	"strings"
	"testing"

	"quizforge-service/internal/domain"
)

func TestQuizPromptContent(t *testing.T) {
	prompt := QuizPrompt("Ancient Rome", domain.LevelHard)

	for _, want := range []string{
		`"Ancient Rome"`,
		`"hard"`,
		"advanced level with difficult questions",
		"correctOption",
		"explanation",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestDifficultyDescriptionDefaultsToMedium(t *testing.T) {
	if DifficultyDescription(domain.Level("bogus")) != DifficultyDescription(domain.LevelMedium) {
		t.Fatalf("unknown level should fall back to medium")
	}
}

func TestTopicPromptVariants(t *testing.T) {
	withHint := TopicPrompt("traffic signs")
	if !strings.Contains(withHint, `"traffic signs"`) {
		t.Fatalf("hint not embedded: %s", withHint)
	}
	noHint := TopicPrompt("  ")
	if strings.Contains(noHint, "hint") {
		t.Fatalf("blank hint should use the image-only prompt: %s", noHint)
	}
}

func TestExplainPromptNumbersOptions(t *testing.T) {
	prompt := ExplainPrompt("Q?", []string{"a", "b"}, "because")
	if !strings.Contains(prompt, "1. a") || !strings.Contains(prompt, "2. b") {
		t.Fatalf("options not numbered:\n%s", prompt)
	}
}

func TestSanitizeTextStripsMarkdown(t *testing.T) {
	in := "## Heading\n**bold** and _italic_ with `code` and [link](http://x)\n- item"
	got := SanitizeText(in)
	for _, banned := range []string{"#", "*", "`", "](", "- "} {
		if strings.Contains(got, banned) {
			t.Fatalf("sanitized text still contains %q: %q", banned, got)
		}
	}
	for _, want := range []string{"bold", "italic", "code", "link", "item"} {
		if !strings.Contains(got, want) {
			t.Fatalf("sanitized text lost %q: %q", want, got)
		}
	}
}
