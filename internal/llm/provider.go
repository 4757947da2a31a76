package llm

import "context"

// Provider is the core abstraction for model interaction. Consumers send a
// prompt and receive the assembled response text. Model identity is bound at
// construction time, so the generator and the critic are two Providers over
// the same endpoint.
type Provider interface {
	// Generate sends the prompt and returns the model's text. Transport and
	// protocol failures surface as typed errors; an empty Text with a nil
	// error is a valid outcome that callers must handle.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// Prompt is the full prompt text. Generation, critique and refinement
	// each build a single self-contained prompt.
	Prompt string

	// Stream requests a newline-delimited streaming response. The assembled
	// text is identical either way; streaming only changes the wire shape.
	Stream bool
}

// Response holds the model's output.
type Response struct {
	// Text is the assembled response. For streaming replies this is the
	// concatenation of every fragment's response field.
	Text string

	// Model is the model that actually served the request (the fallback
	// model when the primary was bypassed).
	Model string

	// Usage reports token consumption when the endpoint provides it.
	Usage Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
