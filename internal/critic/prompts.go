package critic

import (
	"fmt"
	"strings"

	"quizforge/internal/quiz"
)

func batchCritiquePrompt(questions []quiz.Question, topicHint string, difficulty quiz.Difficulty) string {
	var b strings.Builder
	b.WriteString("You are reviewing quiz questions for Thai students in grades 7-8.\n")
	if topicHint != "" {
		fmt.Fprintf(&b, "Topic: %s\n", topicHint)
	}
	if difficulty != "" {
		fmt.Fprintf(&b, "Intended difficulty: %s\n", difficulty)
	}
	b.WriteString("\nQuestions:\n")
	writeQuestionList(&b, questions)
	b.WriteString(`
Quickly scan every question. Flag the index of any question that has a
problem: unclear wording, wrong or ambiguous answer, wrong difficulty,
content inappropriate for grade 7-8, or broken answer options.

Respond with ONLY a JSON object, no other text:
{"flagged": [<indices of problematic questions>], "feedback": [{"index": 0, "approved": true, "comments": "<one short sentence>"}]}

Include a feedback entry for every question. Indices are zero-based.`)
	return b.String()
}

func critiquePrompt(questions []quiz.Question, opts Options) string {
	var b strings.Builder
	b.WriteString("You are a strict reviewer of quiz questions for Thai students in grades 7-8.\n")
	if opts.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", opts.Topic)
	}
	if opts.Subtopic != "" {
		fmt.Fprintf(&b, "Subtopic: %s\n", opts.Subtopic)
	}
	if opts.Difficulty != "" {
		fmt.Fprintf(&b, "Intended difficulty: %s\n", opts.Difficulty)
	}
	if opts.Type != "" {
		fmt.Fprintf(&b, "Question type: %s\n", opts.Type)
	}
	b.WriteString("\nQuestions:\n")
	writeQuestionList(&b, questions)
	b.WriteString(`
Review each question against every criterion:
1. The wording is clear and has exactly one defensible answer.
2. The stated answer is actually correct.
3. The content fits grade 7-8 knowledge and the intended difficulty.
4. Numbers and scenarios make sense in a Thai classroom context.
5. For multiple choice, the distractors are plausible and none duplicates the answer.
6. The language is simple enough for the target grade.

Respond with ONLY a JSON array, no other text:
[{"index": 0, "approved": false, "issues": ["<specific problem>"], "suggestions": ["<specific fix>"]}]

Include exactly one entry per question, in order, with zero-based indices.
If a question is fine, set approved to true and leave issues empty.`)
	return b.String()
}

func writeQuestionList(b *strings.Builder, questions []quiz.Question) {
	for i, q := range questions {
		fmt.Fprintf(b, "%d. [%s] %s\n", i, q.Type, q.Question)
		if len(q.Options) > 0 {
			fmt.Fprintf(b, "   Options: %s\n", strings.Join(q.Options, " | "))
		}
		fmt.Fprintf(b, "   Answer: %s\n", q.Answer)
	}
}
