package pipeline

import (
	"context"

	"go.uber.org/zap"

	"quizforge/internal/critic"
	"quizforge/internal/extract"
	"quizforge/internal/llm"
	"quizforge/internal/quiz"
	"quizforge/internal/shape"
)

// refineAll reworks every unapproved question in place. A question that
// cannot be repaired within the attempt budget is retained if its latest
// version is still structurally valid, and dropped otherwise.
func (p *Pipeline) refineAll(ctx context.Context, questions []quiz.Question, feedback map[int]critic.Feedback, s quiz.Settings) []quiz.Question {
	if len(feedback) == 0 {
		return questions
	}

	drop := make(map[int]bool)
	for i := range questions {
		fb, ok := feedback[i]
		if !ok || fb.Approved {
			continue
		}
		refined, keep := p.refineOne(ctx, questions[i], fb, s)
		if !keep {
			drop[i] = true
			continue
		}
		questions[i] = refined
	}

	if len(drop) == 0 {
		return questions
	}
	kept := make([]quiz.Question, 0, len(questions)-len(drop))
	for i, q := range questions {
		if !drop[i] {
			kept = append(kept, q)
		}
	}
	return kept
}

// refineOne runs the rewrite/re-critique loop for one rejected question.
// Each round's critique supersedes the previous feedback.
func (p *Pipeline) refineOne(ctx context.Context, q quiz.Question, fb critic.Feedback, s quiz.Settings) (quiz.Question, bool) {
	current := q
	opts := critic.Options{
		Topic:      q.Topic,
		Subtopic:   q.Subtopic,
		Difficulty: s.Difficulty,
		Type:       q.Type,
	}

	for attempt := 1; attempt <= p.cfg.RefineAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}

		candidate, ok := p.rewrite(ctx, current, fb)
		if !ok {
			continue
		}
		current = *candidate

		verdict := p.critic.Critique(ctx, []quiz.Question{current}, opts)
		if len(verdict) == 1 && verdict[0].Approved {
			n := p.newNormalizer(s)
			norm, ok := n.Normalize(current)
			if !ok || !quiz.IsValid(norm) {
				p.log.Warn("approved rewrite structurally invalid",
					zap.String("question", current.Question))
				continue
			}
			p.log.Info("question refined",
				zap.String("question", current.Question),
				zap.Int("attempts", attempt))
			return current, true
		}
		fb = verdict[0]
	}

	if quiz.IsValid(current) {
		p.log.Warn("refinement exhausted, retaining latest version",
			zap.String("question", current.Question))
		return current, true
	}
	p.log.Warn("refinement exhausted, dropping question",
		zap.String("question", q.Question))
	return quiz.Question{}, false
}

// rewrite asks the generator for one corrected question.
func (p *Pipeline) rewrite(ctx context.Context, q quiz.Question, fb critic.Feedback) (*quiz.Question, bool) {
	ctx = llm.WithPurpose(ctx, "refine")

	resp, err := p.generator.Generate(ctx, llm.Request{Prompt: refinePrompt(q, fb)})
	if err != nil {
		p.log.Warn("refine call failed", zap.Error(err))
		return nil, false
	}
	raw, ok := extract.Extract(resp.Text)
	if !ok {
		p.log.Warn("refine produced no parseable JSON")
		return nil, false
	}
	if err := shape.Validate(quiz.QuestionShape, raw); err != nil {
		p.log.Warn("refined question shape rejected", zap.Error(err))
		return nil, false
	}
	candidate, err := quiz.DecodeQuestion(raw)
	if err != nil {
		p.log.Warn("refined question undecodable", zap.Error(err))
		return nil, false
	}
	return candidate, true
}
