// Package critic evaluates generated questions in two tiers: a cheap batch
// pass that flags suspects, and a detailed per-question pass that produces
// structured issue/suggestion feedback.
package critic

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"quizforge/internal/extract"
	"quizforge/internal/llm"
	"quizforge/internal/quiz"
	"quizforge/internal/shape"
)

// Feedback is one question's detailed critique. Issues is non-empty
// whenever Approved is false.
type Feedback struct {
	Index       int      `json:"index"`
	Approved    bool     `json:"approved"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// BatchFeedback is one question's verdict from the cheap batch pass.
type BatchFeedback struct {
	Index    int    `json:"index"`
	Approved bool   `json:"approved"`
	Comments string `json:"comments"`
}

// BatchResult is the cheap pass outcome: which indices merit deep review,
// plus a per-question verdict.
type BatchResult struct {
	Flagged  []int
	Feedback []BatchFeedback
}

// Options carries the job context a critique prompt needs.
type Options struct {
	Topic      string
	Subtopic   string
	Difficulty quiz.Difficulty
	Type       quiz.QuestionType
}

// Engine runs both critique tiers against the critic model. Both operations
// are stateless, never block the pipeline, and never return an error: a
// critic that cannot be parsed degrades to a tier-specific safe default.
type Engine struct {
	provider llm.Provider
	attempts int
	log      *zap.Logger
}

// New creates an Engine. attempts bounds re-asks per critique call when the
// model's output cannot be parsed into the expected shape.
func New(provider llm.Provider, attempts int, log *zap.Logger) *Engine {
	if attempts < 1 {
		attempts = 1
	}
	return &Engine{provider: provider, attempts: attempts, log: log}
}

var batchShape = &shape.Schema{
	Name: "batch-critique",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"flagged"},
		"properties": map[string]any{
			"flagged": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
			"feedback": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
	},
}

var feedbackShape = &shape.Schema{
	Name: "critique-feedback",
	Definition: map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "object"},
	},
}

// BatchCritique evaluates the whole batch in one cheap model call. When the
// critic cannot produce a usable verdict the fallback approves everything
// and flags nothing: a broken critic must not trigger full-batch rework.
func (e *Engine) BatchCritique(ctx context.Context, questions []quiz.Question, topicHint string, difficulty quiz.Difficulty) BatchResult {
	if len(questions) == 0 {
		return BatchResult{}
	}

	ctx = llm.WithPurpose(ctx, "batch-critique")
	prompt := batchCritiquePrompt(questions, topicHint, difficulty)

	var result BatchResult
	ok := llm.Try(ctx, e.attempts, func(ctx context.Context) bool {
		resp, err := e.provider.Generate(ctx, llm.Request{Prompt: prompt})
		if err != nil {
			e.log.Warn("batch critique call failed", zap.Error(err))
			return false
		}
		raw, ok := extract.Extract(resp.Text)
		if !ok {
			e.log.Warn("batch critique produced no parseable JSON")
			return false
		}
		if err := shape.Validate(batchShape, raw); err != nil {
			e.log.Warn("batch critique shape rejected", zap.Error(err))
			return false
		}
		var decoded struct {
			Flagged  []int           `json:"flagged"`
			Feedback []BatchFeedback `json:"feedback"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return false
		}
		result = BatchResult{
			Flagged:  inRange(decoded.Flagged, len(questions)),
			Feedback: decoded.Feedback,
		}
		return true
	})
	if ok {
		return result
	}

	e.log.Warn("batch critique unusable, approving all questions",
		zap.Int("count", len(questions)))
	fallback := BatchResult{Feedback: make([]BatchFeedback, len(questions))}
	for i := range questions {
		fallback.Feedback[i] = BatchFeedback{Index: i, Approved: true, Comments: "Fallback approval"}
	}
	return fallback
}

// Critique produces one detailed, order-preserving feedback record per
// question. When the critic cannot produce usable records the fallback
// marks every entry unapproved: detail was explicitly requested, so
// unreviewed content is not silently accepted.
func (e *Engine) Critique(ctx context.Context, questions []quiz.Question, opts Options) []Feedback {
	if len(questions) == 0 {
		return nil
	}

	ctx = llm.WithPurpose(ctx, "critique")
	prompt := critiquePrompt(questions, opts)

	var decoded []rawFeedback
	llm.Try(ctx, e.attempts, func(ctx context.Context) bool {
		resp, err := e.provider.Generate(ctx, llm.Request{Prompt: prompt})
		if err != nil {
			e.log.Warn("critique call failed", zap.Error(err))
			return false
		}
		raw, ok := extract.Extract(resp.Text)
		if !ok {
			e.log.Warn("critique produced no parseable JSON")
			return false
		}
		if err := shape.Validate(feedbackShape, raw); err != nil {
			e.log.Warn("critique shape rejected", zap.Error(err))
			return false
		}
		var rows []rawFeedback
		if err := json.Unmarshal(raw, &rows); err != nil {
			return false
		}
		decoded = rows
		return true
	})

	return e.enforce(questions, decoded, opts.Difficulty)
}

// rawFeedback tolerates records that omit the index (positional order) or
// arrive partially filled.
type rawFeedback struct {
	Index       *int     `json:"index"`
	Approved    bool     `json:"approved"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// enforce guarantees exactly one complete feedback record per question.
// Missing records default to unapproved with a placeholder issue, and the
// difficulty gate overrides whatever the model said.
func (e *Engine) enforce(questions []quiz.Question, decoded []rawFeedback, target quiz.Difficulty) []Feedback {
	byIndex := make(map[int]rawFeedback, len(decoded))
	for pos, row := range decoded {
		idx := pos
		if row.Index != nil {
			idx = *row.Index
		}
		if idx >= 0 && idx < len(questions) {
			byIndex[idx] = row
		}
	}

	out := make([]Feedback, len(questions))
	for i, q := range questions {
		f := Feedback{Index: i}
		if row, ok := byIndex[i]; ok {
			f.Approved = row.Approved
			f.Issues = append(f.Issues, row.Issues...)
			f.Suggestions = append(f.Suggestions, row.Suggestions...)
		} else {
			f.Issues = []string{"Critique failed"}
		}

		// Difficulty alignment is a hard gate, not advisory.
		if target != "" {
			if est := quiz.Estimate(q); est != target {
				f.Issues = append(f.Issues,
					"Difficulty mismatch: content suggests "+string(est)+", but the requested difficulty is "+string(target)+".")
				f.Suggestions = append(f.Suggestions,
					"Adjust question content to match "+string(target)+" difficulty.")
				f.Approved = false
			}
		}

		if f.Approved && len(f.Issues) == 0 {
			f.Issues = []string{"Looks good"}
		}
		if !f.Approved && len(f.Issues) == 0 {
			f.Issues = []string{"Question needs improvement"}
		}
		if !f.Approved && len(f.Suggestions) == 0 {
			f.Suggestions = []string{"Rephrase question or simplify wording"}
		}

		out[i] = f
	}
	return out
}

// inRange drops flagged indices that fall outside the batch.
func inRange(indices []int, n int) []int {
	var out []int
	for _, i := range indices {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}
