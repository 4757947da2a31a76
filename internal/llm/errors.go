package llm

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the endpoint returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the endpoint is down, unreachable, or
// answered with a server error.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference endpoint unavailable: %v", e.Err)
	}
	return "inference endpoint unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrBadReply indicates the endpoint answered but the reply could not be
// decoded into the expected wire shape.
type ErrBadReply struct {
	Body string
	Err  error
}

func (e *ErrBadReply) Error() string {
	return fmt.Sprintf("undecodable endpoint reply: %v", e.Err)
}

func (e *ErrBadReply) Unwrap() error { return e.Err }
