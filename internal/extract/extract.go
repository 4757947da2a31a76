// Package extract recovers a JSON value from arbitrarily-formatted model
// output: endpoint envelopes, reasoning preambles, code fences, surrounding
// prose, and pseudo-JSON with single quotes.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	thinkRe    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkingRe = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)
	fenceRe    = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")

	greedyRe    = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)
	nonGreedyRe = regexp.MustCompile(`(?s)\{.*?\}|\[.*?\]`)
)

// Extract attempts to recover a JSON value from raw model text. The second
// return is false when every attempt fails; Extract never returns an error
// because unusable model output is an expected outcome, not an exceptional
// one. Callers apply their own retry policy.
func Extract(raw string) (json.RawMessage, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	text = unwrapEnvelope(text)
	text = strings.TrimSpace(thinkingRe.ReplaceAllString(thinkRe.ReplaceAllString(text, ""), ""))
	text = stripFences(text)
	if text == "" {
		return nil, false
	}

	if v, ok := tryParse(text); ok {
		return v, true
	}

	// The answer may be embedded in prose. Prefer the widest bracket span,
	// then the narrowest, repairing pseudo-JSON as a last resort each time.
	for _, re := range []*regexp.Regexp{greedyRe, nonGreedyRe} {
		candidate := re.FindString(text)
		if candidate == "" {
			continue
		}
		if v, ok := tryParse(candidate); ok {
			return v, true
		}
		if v, ok := tryParse(repair(candidate)); ok {
			return v, true
		}
	}

	return nil, false
}

// unwrapEnvelope peels the endpoint's own {"response": "..."} wrapper when
// the whole text is such an object.
func unwrapEnvelope(text string) string {
	var envelope struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && envelope.Response != nil {
		return strings.TrimSpace(*envelope.Response)
	}
	return text
}

// stripFences removes a leading code-fence marker (optionally annotated with
// a language tag) and the matching trailing marker.
func stripFences(text string) string {
	if strings.HasPrefix(text, "```") {
		text = fenceRe.ReplaceAllString(text, "")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// repair applies the one permitted heuristic: single quotes become double
// quotes and the Python null literal becomes JSON null.
func repair(candidate string) string {
	fixed := strings.ReplaceAll(candidate, "'", `"`)
	return strings.ReplaceAll(fixed, "None", "null")
}

func tryParse(candidate string) (json.RawMessage, bool) {
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
