package llm

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"quizforge/internal/store"
)

// recordingRepo captures appended events in memory.
type recordingRepo struct {
	store.EventRepo
	events []store.LLMEventData
}

func (r *recordingRepo) Append(_ context.Context, data store.LLMEventData) error {
	r.events = append(r.events, data)
	return nil
}

func TestLoggingProviderRecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Text: "hello"})
	p := WithLogging(mock, repo, zap.NewNop())

	ctx := WithPurpose(context.Background(), "quiz-gen")
	if _, err := p.Generate(ctx, Request{Prompt: "the prompt"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("events = %d", len(repo.events))
	}
	e := repo.events[0]
	if e.Purpose != "quiz-gen" {
		t.Errorf("purpose = %q", e.Purpose)
	}
	if !e.Success {
		t.Error("success not recorded")
	}
	if e.RequestBody != "the prompt" || e.ResponseBody != "hello" {
		t.Errorf("bodies = %q / %q", e.RequestBody, e.ResponseBody)
	}
}

func TestLoggingProviderRecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	p := WithLogging(mock, repo, zap.NewNop())

	if _, err := p.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.events) != 1 {
		t.Fatalf("events = %d", len(repo.events))
	}
	e := repo.events[0]
	if e.Success {
		t.Error("failure recorded as success")
	}
	if e.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}
