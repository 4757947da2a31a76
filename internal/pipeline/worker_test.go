package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"quizforge/internal/llm"
)

func newTestWorker(queueSize int) (*Worker, *llm.MockProvider) {
	gen := llm.NewMockProvider(llm.MockResponse{Text: quizJSON})
	critic := llm.NewMockProvider(llm.MockResponse{Text: approveAllBatch})
	p := newTestPipeline(gen, critic)
	return NewWorker(p, queueSize, zap.NewNop()), gen
}

func TestWorkerRunsJobsInOrder(t *testing.T) {
	w, _ := newTestWorker(4)
	w.Start(context.Background())
	defer w.Stop()

	first, err := w.Submit(JobSpec{Title: "first", Settings: testSettings()})
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	second, err := w.Submit(JobSpec{Title: "second", Settings: testSettings()})
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}
	if first.ID == second.ID {
		t.Error("jobs share an ID")
	}

	r1 := <-first.Result
	if r1.Err != nil {
		t.Fatalf("first job: %v", r1.Err)
	}
	if r1.Quiz.Title != "first" {
		t.Errorf("first result title = %q", r1.Quiz.Title)
	}
	r2 := <-second.Result
	if r2.Err != nil {
		t.Fatalf("second job: %v", r2.Err)
	}
	if r2.Quiz.Title != "second" {
		t.Errorf("second result title = %q", r2.Quiz.Title)
	}
}

func TestWorkerQueueFull(t *testing.T) {
	w, _ := newTestWorker(1)
	// Not started, so the first job sits in the queue.
	if _, err := w.Submit(JobSpec{Settings: testSettings()}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := w.Submit(JobSpec{Settings: testSettings()}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestWorkerStopRefusesNewJobs(t *testing.T) {
	w, _ := newTestWorker(2)
	w.Start(context.Background())
	w.Stop()

	if _, err := w.Submit(JobSpec{Settings: testSettings()}); !errors.Is(err, ErrWorkerStopped) {
		t.Fatalf("err = %v, want ErrWorkerStopped", err)
	}
}

func TestWorkerStopDrainsQueuedJob(t *testing.T) {
	w, _ := newTestWorker(2)
	job, err := w.Submit(JobSpec{Settings: testSettings()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	w.Start(context.Background())
	w.Stop()

	select {
	case res := <-job.Result:
		if res.Err != nil {
			t.Fatalf("queued job: %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("queued job never resolved")
	}
}
