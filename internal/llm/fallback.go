package llm

import (
	"context"

	"go.uber.org/zap"
)

// FallbackProvider is a decorator that gives a designated fallback model one
// attempt after the primary (with its own retries) has given up.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	log      *zap.Logger
}

// WithFallback wraps primary so that on failure the request is replayed once
// against fallback. A nil fallback leaves primary unwrapped.
func WithFallback(primary, fallback Provider, log *zap.Logger) Provider {
	if fallback == nil || fallback.ModelID() == primary.ModelID() {
		return primary
	}
	return &FallbackProvider{primary: primary, fallback: fallback, log: log}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := f.primary.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.log.Warn("primary model failed, trying fallback",
		zap.String("primary", f.primary.ModelID()),
		zap.String("fallback", f.fallback.ModelID()),
		zap.Error(err))

	return f.fallback.Generate(ctx, req)
}

func (f *FallbackProvider) ModelID() string {
	return f.primary.ModelID()
}
