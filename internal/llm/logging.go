package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quizforge/internal/store"
)

// LoggingProvider is a decorator that records every inference call as an
// event in the store.
type LoggingProvider struct {
	inner Provider
	repo  store.EventRepo
	log   *zap.Logger
}

// WithLogging wraps a Provider with event recording.
func WithLogging(p Provider, repo store.EventRepo, log *zap.Logger) Provider {
	return &LoggingProvider{inner: p, repo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMEventData{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: req.Prompt,
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = resp.Text
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Record the event but never fail the request over it.
	if logErr := l.repo.Append(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to record llm event", zap.Error(logErr))
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
