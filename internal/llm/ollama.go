package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizforge/internal/config"
)

const generatePath = "/api/generate"

// OllamaProvider speaks the native local inference protocol: POST
// {model, prompt, stream} to /api/generate, answered either by one JSON
// object or by newline-delimited fragments whose response fields concatenate
// into the full text.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a provider bound to one model.
func NewOllamaProvider(cfg config.OllamaConfig, model string) (*OllamaProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ollama base URL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model identifier is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 180 * time.Second
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateChunk is one wire fragment. A non-streaming reply is a single
// chunk with done=true; a streaming reply is many.
type generateChunk struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: req.Prompt,
		Stream: req.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, &ErrRateLimit{Err: fmt.Errorf("status %d", httpResp.StatusCode)}
	case httpResp.StatusCode >= 500:
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("status %d", httpResp.StatusCode)}
	case httpResp.StatusCode != http.StatusOK:
		return nil, &ErrBadReply{
			Body: string(body),
			Err:  fmt.Errorf("status %d", httpResp.StatusCode),
		}
	}

	return assembleReply(body, p.model)
}

func (p *OllamaProvider) ModelID() string {
	return p.model
}

// assembleReply accepts both reply shapes. It first tries the body as one
// JSON object, then falls back to line-by-line fragment assembly, skipping
// lines that do not decode.
func assembleReply(body []byte, model string) (*Response, error) {
	var single generateChunk
	if err := json.Unmarshal(body, &single); err == nil {
		if single.Error != "" {
			return nil, &ErrBadReply{Body: string(body), Err: fmt.Errorf("endpoint error: %s", single.Error)}
		}
		return chunkResponse(single.Response, single, model), nil
	}

	var b strings.Builder
	var last generateChunk
	decoded := 0
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return nil, &ErrBadReply{Body: string(body), Err: fmt.Errorf("endpoint error: %s", chunk.Error)}
		}
		decoded++
		b.WriteString(chunk.Response)
		if chunk.Done {
			last = chunk
		}
	}
	if decoded == 0 {
		return nil, &ErrBadReply{Body: string(body), Err: fmt.Errorf("no decodable fragments")}
	}
	return chunkResponse(b.String(), last, model), nil
}

func chunkResponse(text string, final generateChunk, model string) *Response {
	served := final.Model
	if served == "" {
		served = model
	}
	return &Response{
		Text:  strings.TrimSpace(text),
		Model: served,
		Usage: Usage{
			InputTokens:  final.PromptEvalCount,
			OutputTokens: final.EvalCount,
		},
	}
}
