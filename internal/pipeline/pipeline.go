// Package pipeline orchestrates quiz production: whole-quiz generation,
// two-tier critique, targeted refinement, and final normalization.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"quizforge/internal/config"
	"quizforge/internal/critic"
	"quizforge/internal/extract"
	"quizforge/internal/llm"
	"quizforge/internal/quiz"
	"quizforge/internal/shape"
)

// Stage names the pipeline's observable states, in execution order.
type Stage string

const (
	StageGenerating         Stage = "generating"
	StageBatchCritiquing    Stage = "batch_critiquing"
	StageTargetedCritiquing Stage = "targeted_critiquing"
	StageRefining           Stage = "refining"
	StageNormalizing        Stage = "normalizing"
	StageDone               Stage = "done"
)

// JobSpec describes one quiz production job.
type JobSpec struct {
	Title       string
	Description string
	Settings    quiz.Settings
}

// ErrGenerationFailed means the generator never produced a decodable quiz
// within the attempt budget. It is the only fatal pipeline outcome; every
// later stage degrades instead of failing.
type ErrGenerationFailed struct {
	Attempts int
}

func (e *ErrGenerationFailed) Error() string {
	return fmt.Sprintf("quiz generation failed after %d attempts", e.Attempts)
}

// Pipeline runs jobs start to finish. It is safe for sequential reuse; the
// worker serializes access.
type Pipeline struct {
	generator llm.Provider
	critic    *critic.Engine
	cfg       config.PipelineConfig
	log       *zap.Logger
	rng       *rand.Rand

	// OnStage, when set, observes stage transitions.
	OnStage func(Stage)
}

// New creates a Pipeline. SampleSeed zero means a time-seeded spot check.
func New(providers llm.Providers, cfg config.PipelineConfig, log *zap.Logger) *Pipeline {
	seed := cfg.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Pipeline{
		generator: providers.Generator,
		critic:    critic.New(providers.Critic, cfg.CritiqueAttempts, log),
		cfg:       cfg,
		log:       log,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (p *Pipeline) stage(s Stage) {
	p.log.Info("pipeline stage", zap.String("stage", string(s)))
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

// Generate runs one job through every stage and returns the finished quiz.
// Only generation failure and context cancellation are fatal.
func (p *Pipeline) Generate(ctx context.Context, spec JobSpec) (*quiz.Quiz, error) {
	p.stage(StageGenerating)
	generated, err := p.generate(ctx, spec)
	if err != nil {
		return nil, err
	}
	questions := generated.Questions

	p.stage(StageBatchCritiquing)
	batch := p.critic.BatchCritique(ctx, questions, topicHint(spec.Settings), spec.Settings.Difficulty)

	p.stage(StageTargetedCritiquing)
	targets := p.selectTargets(questions, batch.Flagged)
	feedback := p.targetedCritique(ctx, questions, targets, spec.Settings)

	p.stage(StageRefining)
	questions = p.refineAll(ctx, questions, feedback, spec.Settings)

	p.stage(StageNormalizing)
	questions = p.normalize(questions, spec.Settings)

	p.stage(StageDone)

	title := spec.Title
	if title == "" {
		title = generated.Title
	}
	return &quiz.Quiz{
		Title:       title,
		Description: spec.Description,
		Settings:    spec.Settings,
		Questions:   questions,
	}, nil
}

// generate asks the model for the whole quiz, bounded by GenerateAttempts.
func (p *Pipeline) generate(ctx context.Context, spec JobSpec) (*quiz.GeneratedQuiz, error) {
	genCtx := llm.WithPurpose(ctx, "quiz-gen")
	prompt := generationPrompt(spec)

	var generated *quiz.GeneratedQuiz
	ok := llm.Try(genCtx, p.cfg.GenerateAttempts, func(ctx context.Context) bool {
		resp, err := p.generator.Generate(ctx, llm.Request{Prompt: prompt})
		if err != nil {
			p.log.Warn("generation call failed", zap.Error(err))
			return false
		}
		raw, ok := extract.Extract(resp.Text)
		if !ok {
			p.log.Warn("generation produced no parseable JSON")
			return false
		}
		if err := shape.Validate(quiz.QuizShape, raw); err != nil {
			p.log.Warn("generated quiz shape rejected", zap.Error(err))
			return false
		}
		g, err := quiz.DecodeQuiz(raw)
		if err != nil {
			p.log.Warn("generated quiz undecodable", zap.Error(err))
			return false
		}
		if len(g.Questions) == 0 {
			p.log.Warn("generated quiz is empty")
			return false
		}
		generated = g
		return true
	})
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &ErrGenerationFailed{Attempts: p.cfg.GenerateAttempts}
	}

	p.log.Info("quiz generated", zap.Int("questions", len(generated.Questions)))
	return generated, nil
}

// selectTargets is the deep-review set: everything the batch pass flagged,
// plus a random spot check over the unflagged remainder.
func (p *Pipeline) selectTargets(questions []quiz.Question, flagged []int) []int {
	inFlagged := make(map[int]bool, len(flagged))
	for _, i := range flagged {
		inFlagged[i] = true
	}

	var unflagged []int
	for i := range questions {
		if !inFlagged[i] {
			unflagged = append(unflagged, i)
		}
	}

	sampled := sampleIndices(p.rng, unflagged, p.cfg.SampleFraction, p.cfg.SampleMin, p.cfg.SampleMax)

	targets := make([]int, 0, len(flagged)+len(sampled))
	seen := make(map[int]bool, cap(targets))
	for _, i := range append(append([]int{}, flagged...), sampled...) {
		if i >= 0 && i < len(questions) && !seen[i] {
			seen[i] = true
			targets = append(targets, i)
		}
	}

	p.log.Info("targeted critique set",
		zap.Int("flagged", len(flagged)),
		zap.Int("sampled", len(sampled)),
		zap.Int("total", len(targets)))
	return targets
}

// targetedCritique runs the detailed pass over the target subset and maps
// the feedback back to batch indices.
func (p *Pipeline) targetedCritique(ctx context.Context, questions []quiz.Question, targets []int, s quiz.Settings) map[int]critic.Feedback {
	if len(targets) == 0 {
		return nil
	}

	subset := make([]quiz.Question, len(targets))
	for i, t := range targets {
		subset[i] = questions[t]
	}

	opts := critic.Options{Topic: topicHint(s), Difficulty: s.Difficulty}
	feedback := p.critic.Critique(ctx, subset, opts)

	byIndex := make(map[int]critic.Feedback, len(targets))
	for i, t := range targets {
		byIndex[t] = feedback[i]
	}
	return byIndex
}

// normalize is the final gate: canonicalize, validate, dedup.
func (p *Pipeline) normalize(questions []quiz.Question, s quiz.Settings) []quiz.Question {
	n := p.newNormalizer(s)

	kept := make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		norm, ok := n.Normalize(q)
		if !ok || !quiz.IsValid(norm) {
			p.log.Warn("dropping question at final gate", zap.String("question", q.Question))
			continue
		}
		kept = append(kept, norm)
	}
	kept = quiz.Dedup(kept)

	if want := s.TotalQuestions(); want > 0 {
		if len(kept) > want {
			kept = kept[:want]
		} else if len(kept) < want {
			p.log.Warn("quiz shorter than requested",
				zap.Int("requested", want),
				zap.Int("got", len(kept)))
		}
	}
	return kept
}

func (p *Pipeline) newNormalizer(s quiz.Settings) quiz.Normalizer {
	return quiz.Normalizer{
		Allowed: allowedTypes(s),
		Target:  s.Difficulty,
		Log:     p.log,
	}
}

// allowedTypes derives the acceptable types from the requested counts,
// defaulting to all canonical types when no counts were given.
func allowedTypes(s quiz.Settings) []quiz.QuestionType {
	if len(s.TypeCounts) == 0 {
		return quiz.AllTypes
	}
	var out []quiz.QuestionType
	for _, qt := range quiz.AllTypes {
		if s.TypeCounts[qt] > 0 {
			out = append(out, qt)
		}
	}
	if len(out) == 0 {
		return quiz.AllTypes
	}
	return out
}

// topicHint renders the topic map as a short prompt-friendly string.
func topicHint(s quiz.Settings) string {
	topics := sortedTopics(s.Topics)
	switch len(topics) {
	case 0:
		return ""
	case 1:
		return topics[0]
	default:
		hint := topics[0]
		for _, t := range topics[1:] {
			hint += ", " + t
		}
		return hint
	}
}
