package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"quizforge/internal/critic"
	"quizforge/internal/quiz"
)

// generationPrompt asks the generator model for a complete quiz in one call.
func generationPrompt(spec JobSpec) string {
	s := spec.Settings

	var b strings.Builder
	fmt.Fprintf(&b, "Create a quiz for Thai students in grade %s.\n", s.Grade)
	if spec.Title != "" {
		fmt.Fprintf(&b, "Quiz title: %s\n", spec.Title)
	}

	b.WriteString("\nTopics to cover:\n")
	for _, topic := range sortedTopics(s.Topics) {
		subs := s.Topics[topic]
		if len(subs) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", topic, strings.Join(subs, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
	}

	if s.Difficulty != "" {
		fmt.Fprintf(&b, "\nAll questions must be %s difficulty.\n", s.Difficulty)
	}

	b.WriteString("\nQuestion counts by type:\n")
	for _, qt := range quiz.AllTypes {
		if n := s.TypeCounts[qt]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", qt, n)
		}
	}
	if total := s.TotalQuestions(); total > 0 {
		fmt.Fprintf(&b, "Write exactly %d questions in total.\n", total)
	}

	b.WriteString(`
Requirements:
1. Use names, places, currency (baht), and situations familiar to students in Thailand.
2. Every question must have exactly one correct answer.
3. Multiple choice questions need exactly 4 options, one of which is the answer.
4. True/False answers must be "Correct" or "Wrong".
5. Keep the language simple and age-appropriate.

Respond with ONLY a JSON object, no other text:
{"title": "<quiz title>", "questions": [{"question": "<text>", "type": "<MCQ|True/False|Short Answer|Fill-in-the-Blank|Numerical>", "options": ["..."], "answer": "<text>", "topic": "<topic>", "subtopic": "<subtopic>", "difficulty": "<Easy|Medium|Hard>"}]}

Omit "options" for non-MCQ questions.`)
	return b.String()
}

// refinePrompt asks the generator to rewrite one question using the
// critic's feedback.
func refinePrompt(q quiz.Question, fb critic.Feedback) string {
	raw, _ := json.Marshal(q)

	var b strings.Builder
	b.WriteString("Rewrite this quiz question for Thai students in grades 7-8 so that every listed problem is fixed.\n\n")
	fmt.Fprintf(&b, "Current question:\n%s\n", raw)
	b.WriteString("\nProblems found:\n")
	for _, issue := range fb.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	if len(fb.Suggestions) > 0 {
		b.WriteString("\nSuggested fixes:\n")
		for _, s := range fb.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	b.WriteString(`
Keep the same type, topic, and subtopic. The rewritten question must still
have exactly one correct answer.

Respond with ONLY one JSON object in the same shape as the current
question, no other text.`)
	return b.String()
}

func sortedTopics(topics map[string][]string) []string {
	out := make([]string, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
