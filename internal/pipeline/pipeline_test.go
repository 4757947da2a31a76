package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"quizforge/internal/config"
	"quizforge/internal/llm"
	"quizforge/internal/quiz"
)

const quizJSON = `{"title": "Arithmetic Practice", "questions": [
	{"question": "What is 5 + 3?", "type": "Short Answer", "answer": "8", "topic": "Arithmetic", "subtopic": "Addition", "difficulty": "Easy"},
	{"question": "What is 9 - 4?", "type": "Short Answer", "answer": "5", "topic": "Arithmetic", "subtopic": "Subtraction", "difficulty": "Easy"}
]}`

const approveAllBatch = `{"flagged": [], "feedback": [
	{"index": 0, "approved": true, "comments": "ok"},
	{"index": 1, "approved": true, "comments": "ok"}
]}`

func testSettings() quiz.Settings {
	return quiz.Settings{
		Grade:      "7",
		Topics:     map[string][]string{"Arithmetic": {"Addition", "Subtraction"}},
		Difficulty: quiz.Easy,
		TypeCounts: map[quiz.QuestionType]int{quiz.TypeShortAnswer: 2},
	}
}

func testPipelineConfig() config.PipelineConfig {
	// Sampling disabled so the deep-review set is exactly the flagged set.
	return config.PipelineConfig{
		GenerateAttempts: 2,
		CritiqueAttempts: 1,
		RefineAttempts:   1,
	}
}

func newTestPipeline(gen, critic *llm.MockProvider) *Pipeline {
	return New(llm.Providers{Generator: gen, Critic: critic}, testPipelineConfig(), zap.NewNop())
}

func TestGenerateHappyPath(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Text: quizJSON})
	critic := llm.NewMockProvider(llm.MockResponse{Text: approveAllBatch})
	p := newTestPipeline(gen, critic)

	var stages []Stage
	p.OnStage = func(s Stage) { stages = append(stages, s) }

	spec := JobSpec{Title: "Week 3 Review", Settings: testSettings()}
	q, err := p.Generate(context.Background(), spec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if q.Title != "Week 3 Review" {
		t.Errorf("title = %q, want caller title to win", q.Title)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(q.Questions))
	}
	for _, got := range q.Questions {
		if got.Difficulty != quiz.Easy {
			t.Errorf("question %q difficulty = %s, want Easy", got.Question, got.Difficulty)
		}
	}
	if gen.CallCount() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.CallCount())
	}
	// Nothing flagged and no sampling, so only the batch critique ran.
	if critic.CallCount() != 1 {
		t.Errorf("critic calls = %d, want 1", critic.CallCount())
	}

	want := []Stage{StageGenerating, StageBatchCritiquing, StageTargetedCritiquing, StageRefining, StageNormalizing, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %s, want %s", i, stages[i], want[i])
		}
	}
}

func TestGenerateTruncatesToRequestedTotal(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Text: quizJSON})
	critic := llm.NewMockProvider(llm.MockResponse{Text: approveAllBatch})
	p := newTestPipeline(gen, critic)

	s := testSettings()
	s.NumQuestions = 1
	q, err := p.Generate(context.Background(), JobSpec{Settings: s})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(q.Questions) != 1 {
		t.Fatalf("questions = %d, want 1 after truncation", len(q.Questions))
	}
	if q.Questions[0].Question != "What is 5 + 3?" {
		t.Errorf("kept question = %q, want the first one", q.Questions[0].Question)
	}
}

func TestGenerateTitleFallsBackToModel(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Text: quizJSON})
	critic := llm.NewMockProvider(llm.MockResponse{Text: approveAllBatch})
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if q.Title != "Arithmetic Practice" {
		t.Errorf("title = %q, want model title", q.Title)
	}
}

func TestGenerateRefinesFlaggedQuestion(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Text: quizJSON},
		llm.MockResponse{Text: `{"question": "What is 4 + 3?", "type": "Short Answer", "answer": "7", "topic": "Arithmetic", "subtopic": "Addition", "difficulty": "Easy"}`},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Text: `{"flagged": [1], "feedback": []}`},
		llm.MockResponse{Text: `[{"index": 0, "approved": false, "issues": ["Answer is wrong"], "suggestions": ["Recompute the answer"]}]`},
		llm.MockResponse{Text: `[{"index": 0, "approved": true, "issues": [], "suggestions": []}]`},
	)
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(q.Questions))
	}
	if q.Questions[1].Question != "What is 4 + 3?" {
		t.Errorf("flagged question not replaced in place: %q", q.Questions[1].Question)
	}
	if q.Questions[0].Question != "What is 5 + 3?" {
		t.Errorf("unflagged question disturbed: %q", q.Questions[0].Question)
	}
	// One generation call plus one rewrite.
	if gen.CallCount() != 2 {
		t.Errorf("generator calls = %d, want 2", gen.CallCount())
	}
}

func TestGenerateFailureIsFatal(t *testing.T) {
	gen := llm.NewMockProvider(llm.MockResponse{Text: "I cannot write a quiz today."})
	critic := llm.NewMockProvider()
	p := newTestPipeline(gen, critic)

	_, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	var genErr *ErrGenerationFailed
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if gen.CallCount() != 2 {
		t.Errorf("generator calls = %d, want full attempt budget", gen.CallCount())
	}
	if critic.CallCount() != 0 {
		t.Errorf("critic called %d times after fatal generation", critic.CallCount())
	}
}

func TestRefinementExhaustionRetainsValidQuestion(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Text: quizJSON},
		// Rewrite attempt yields nothing usable.
		llm.MockResponse{Text: "still thinking about it"},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Text: `{"flagged": [0], "feedback": []}`},
		llm.MockResponse{Text: `[{"index": 0, "approved": false, "issues": ["Too easy"], "suggestions": []}]`},
	)
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("questions = %d, want the original retained", len(q.Questions))
	}
	if q.Questions[0].Question != "What is 5 + 3?" {
		t.Errorf("original question not retained: %q", q.Questions[0].Question)
	}
}

func TestRefinementExhaustionDropsInvalidQuestion(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Text: quizJSON},
		// Rewrite parses but is unanswerable.
		llm.MockResponse{Text: `{"question": "What is 5 + 3?", "type": "Short Answer", "answer": "", "topic": "Arithmetic", "subtopic": "Addition", "difficulty": "Easy"}`},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Text: `{"flagged": [0], "feedback": []}`},
		llm.MockResponse{Text: `[{"index": 0, "approved": false, "issues": ["Missing answer"], "suggestions": []}]`},
		llm.MockResponse{Text: `[{"index": 0, "approved": false, "issues": ["Still missing answer"], "suggestions": []}]`},
	)
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(q.Questions) != 1 {
		t.Fatalf("questions = %d, want unrepairable question dropped", len(q.Questions))
	}
	if q.Questions[0].Question != "What is 9 - 4?" {
		t.Errorf("wrong survivor: %q", q.Questions[0].Question)
	}
}

func TestGenerateDropsInvalidQuestionAtFinalGate(t *testing.T) {
	// The critic approves everything, so only the final validity check
	// stands between the empty-answer question and the output.
	invalidQuizJSON := `{"title": "Arithmetic Practice", "questions": [
		{"question": "What is 5 + 3?", "type": "Short Answer", "answer": "8", "topic": "Arithmetic", "subtopic": "Addition", "difficulty": "Easy"},
		{"question": "What is 9 - 4?", "type": "Short Answer", "answer": "", "topic": "Arithmetic", "subtopic": "Subtraction", "difficulty": "Easy"}
	]}`
	gen := llm.NewMockProvider(llm.MockResponse{Text: invalidQuizJSON})
	critic := llm.NewMockProvider(llm.MockResponse{Text: approveAllBatch})
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(q.Questions) != 1 {
		t.Fatalf("questions = %d, want answerless question dropped", len(q.Questions))
	}
	if q.Questions[0].Question != "What is 5 + 3?" {
		t.Errorf("wrong survivor: %q", q.Questions[0].Question)
	}
}

func TestRefinementRejectsApprovedButInvalidRewrite(t *testing.T) {
	gen := llm.NewMockProvider(
		llm.MockResponse{Text: quizJSON},
		// Rewrite that the critic likes but that has no answer.
		llm.MockResponse{Text: `{"question": "What is 6 + 2?", "type": "Short Answer", "answer": "", "topic": "Arithmetic", "subtopic": "Addition", "difficulty": "Easy"}`},
	)
	critic := llm.NewMockProvider(
		llm.MockResponse{Text: `{"flagged": [0], "feedback": []}`},
		llm.MockResponse{Text: `[{"index": 0, "approved": false, "issues": ["Answer is wrong"], "suggestions": []}]`},
		llm.MockResponse{Text: `[{"index": 0, "approved": true, "issues": [], "suggestions": []}]`},
	)
	p := newTestPipeline(gen, critic)

	q, err := p.Generate(context.Background(), JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, got := range q.Questions {
		if got.Question == "What is 6 + 2?" {
			t.Errorf("answerless rewrite accepted: %+v", got)
		}
		if got.Answer == "" {
			t.Errorf("question without answer in output: %+v", got)
		}
	}
}

func TestGenerateRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := llm.NewMockProvider(llm.MockResponse{Text: quizJSON})
	p := newTestPipeline(gen, llm.NewMockProvider())

	_, err := p.Generate(ctx, JobSpec{Settings: testSettings()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if gen.CallCount() != 0 {
		t.Errorf("generator called %d times on a dead context", gen.CallCount())
	}
}
