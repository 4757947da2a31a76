package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// namedMock gives the shared mock a distinct model identity.
type namedMock struct {
	*MockProvider
	model string
}

func (n *namedMock) ModelID() string { return n.model }

func TestWithFallbackUnwrapsWhenPointless(t *testing.T) {
	primary := &namedMock{NewMockProvider(), "a"}

	if got := WithFallback(primary, nil, zap.NewNop()); got != Provider(primary) {
		t.Error("nil fallback should leave primary unwrapped")
	}
	same := &namedMock{NewMockProvider(), "a"}
	if got := WithFallback(primary, same, zap.NewNop()); got != Provider(primary) {
		t.Error("same-model fallback should leave primary unwrapped")
	}
}

func TestFallbackReplaysOnPrimaryFailure(t *testing.T) {
	primary := &namedMock{NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}}), "a"}
	fallback := &namedMock{NewMockProvider(MockResponse{Text: "rescued"}), "b"}

	p := WithFallback(primary, fallback, zap.NewNop())
	if p.ModelID() != "a" {
		t.Errorf("ModelID = %q, want primary's", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "rescued" {
		t.Errorf("text = %q", resp.Text)
	}
	if primary.CallCount() != 1 || fallback.CallCount() != 1 {
		t.Errorf("calls = %d/%d", primary.CallCount(), fallback.CallCount())
	}
}

func TestFallbackSkippedWhenPrimarySucceeds(t *testing.T) {
	primary := &namedMock{NewMockProvider(MockResponse{Text: "fine"}), "a"}
	fallback := &namedMock{NewMockProvider(), "b"}

	p := WithFallback(primary, fallback, zap.NewNop())
	resp, err := p.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil || resp.Text != "fine" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback called %d times", fallback.CallCount())
	}
}

func TestFallbackSkippedOnDeadContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &namedMock{NewMockProvider(MockResponse{Err: context.Canceled}), "a"}
	fallback := &namedMock{NewMockProvider(MockResponse{Text: "never"}), "b"}

	p := WithFallback(primary, fallback, zap.NewNop())
	_, err := p.Generate(ctx, Request{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback called on dead context")
	}
}
