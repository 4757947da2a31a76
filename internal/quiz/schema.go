package quiz

import "quizforge/internal/shape"

// QuizShape is the coarse gate for a generated quiz envelope: an object with
// a questions array of objects. Field repair is the normalizer's job.
var QuizShape = &shape.Schema{
	Name: "generated-quiz",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
	},
}

// QuestionShape is the coarse gate for a single refined question object.
var QuestionShape = &shape.Schema{
	Name: "generated-question",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"question"},
		"properties": map[string]any{
			"question": map[string]any{"type": "string"},
		},
	},
}
