package ai

import (
	"fmt"
	"strings"

	"quizforge-service/internal/domain"
)

// QuestionsPerQuiz is the number of questions the model is asked to produce.
const QuestionsPerQuiz = 10

// DefaultTopic is the fallback used when topic naming fails and no hint was
// supplied.
const DefaultTopic = "General Knowledge Quiz"

// difficultyDescriptions expands the difficulty tag into the wording the model
// sees.
var difficultyDescriptions = map[domain.Level]string{
	domain.LevelEasy:   "beginner level with straightforward questions",
	domain.LevelMedium: "intermediate level with moderately challenging questions",
	domain.LevelHard:   "advanced level with difficult questions requiring deep knowledge",
}

// DifficultyDescription maps a difficulty tag to its prompt wording,
// defaulting to medium for unknown tags.
func DifficultyDescription(level domain.Level) string {
	if d, ok := difficultyDescriptions[level]; ok {
		return d
	}
	return difficultyDescriptions[domain.LevelMedium]
}

// QuizPrompt builds the generation instruction for a topic and difficulty.
// The external contract is 1-based correctOption indices.
func QuizPrompt(topic string, level domain.Level) string {
	return fmt.Sprintf(`Generate a quiz on the topic %q with a difficulty level of %q (%s).

Create %d multiple-choice questions.

For each question:
1. Include the question text
2. Provide exactly 4 options (labeled 1-4)
3. Indicate the correct option (as a number 1-4)
4. Include a detailed explanation of why the correct answer is right and why others are wrong

Return the result as a valid JSON object with the following structure:
{
  "questions": [
    {
      "questionText": "Your question here",
      "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
      "correctOption": 2,
      "explanation": "Detailed explanation for why option 2 is correct and why others are wrong"
    },
    ...more questions
  ]
}

Ensure all questions relate directly to the topic %q and are appropriate for the %s difficulty level. If using an image as context, make the questions relevant to the content of the image.`,
		topic, level, DifficultyDescription(level), QuestionsPerQuiz, topic, level)
}

// TopicPrompt builds the instruction for naming a quiz topic from a hint
// and/or an attached image.
func TopicPrompt(hint string) string {
	if strings.TrimSpace(hint) != "" {
		return fmt.Sprintf("Based on this hint %q and the image (if provided), generate a concise, specific, and educational topic name for a quiz. The topic should be descriptive but no longer than 5-7 words. Respond only with the topic name, without any additional text.", hint)
	}
	return "Based on the provided image, generate a concise, specific, and educational topic name for a quiz. The topic should be descriptive but no longer than 5-7 words. Respond only with the topic name, without any additional text."
}

// ExplainPrompt builds the clarification request for a single question.
func ExplainPrompt(questionText string, options []string, explanation string) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant. A user has asked for clarification or additional information about the following quiz question:\n\n")
	b.WriteString("Question:\n")
	b.WriteString(questionText)
	b.WriteString("\n\nOptions:\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	b.WriteString("\nExplanation:\n")
	b.WriteString(explanation)
	b.WriteString("\n\nPlease provide a clear, concise, and informative response that enhances the user's understanding of the question, options, or explanation. Respond in plain text without markdown, code blocks, or special formatting.")
	return b.String()
}
