package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"quizforge/internal/config"
)

// RetryProvider is a decorator that retries transient transport errors with
// exponential backoff and jitter. Bad replies are not retried here; the
// caller's own parse-retry policy owns that budget.
type RetryProvider struct {
	inner  Provider
	config config.RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg config.RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A decodable-but-wrong reply means the model or request is the problem,
	// not the transport.
	var bad *ErrBadReply
	if errors.As(err, &bad) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		return true
	}

	// Other errors (network, etc.) are treated as transient.
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Try runs fn up to max times until it reports success. It is the shared
// bounded-attempt loop for call-and-parse cycles (critique, refinement),
// where each failed attempt means "ask the model again", not "back off".
func Try(ctx context.Context, max int, fn func(ctx context.Context) bool) bool {
	for range max {
		if ctx.Err() != nil {
			return false
		}
		if fn(ctx) {
			return true
		}
	}
	return false
}
