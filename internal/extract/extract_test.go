package extract

import (
	"encoding/json"
	"testing"
)

func TestExtractDirectJSON(t *testing.T) {
	raw, ok := Extract(`{"questions": []}`)
	if !ok {
		t.Fatal("direct JSON not extracted")
	}
	if string(raw) != `{"questions": []}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractArrays(t *testing.T) {
	raw, ok := Extract("Here you go:\n[1, 2, 3]\nLet me know if you need more.")
	if !ok {
		t.Fatal("embedded array not extracted")
	}
	var v []int
	if err := json.Unmarshal(raw, &v); err != nil || len(v) != 3 {
		t.Errorf("got %s", raw)
	}
}

func TestExtractUnwrapsEnvelope(t *testing.T) {
	raw, ok := Extract(`{"response": "{\"answer\": 7}"}`)
	if !ok {
		t.Fatal("envelope not unwrapped")
	}
	var v struct {
		Answer int `json:"answer"`
	}
	if err := json.Unmarshal(raw, &v); err != nil || v.Answer != 7 {
		t.Errorf("got %s", raw)
	}
}

func TestExtractEnvelopeWithoutResponseField(t *testing.T) {
	// An object that merely looks like an envelope stays as-is.
	raw, ok := Extract(`{"reply": "hello"}`)
	if !ok {
		t.Fatal("plain object rejected")
	}
	if string(raw) != `{"reply": "hello"}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractStripsThinkBlocks(t *testing.T) {
	for _, tag := range []string{"think", "thinking"} {
		input := "<" + tag + ">The answer should be {\"draft\": 1}...</" + tag + ">\n{\"final\": 2}"
		raw, ok := Extract(input)
		if !ok {
			t.Fatalf("%s block not stripped", tag)
		}
		var v struct {
			Final int `json:"final"`
		}
		if err := json.Unmarshal(raw, &v); err != nil || v.Final != 2 {
			t.Errorf("%s: got %s", tag, raw)
		}
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": 1}\n```",
		"```\n{\"a\": 1}\n```",
		"```JSON  \n{\"a\": 1}\n```",
	}
	for _, in := range inputs {
		raw, ok := Extract(in)
		if !ok {
			t.Fatalf("fence not stripped: %q", in)
		}
		if string(raw) != `{"a": 1}` {
			t.Errorf("input %q: got %s", in, raw)
		}
	}
}

func TestExtractRepairsPseudoJSON(t *testing.T) {
	raw, ok := Extract("The result is {'answer': 'four', 'options': None} as requested.")
	if !ok {
		t.Fatal("pseudo-JSON not repaired")
	}
	var v struct {
		Answer  string  `json:"answer"`
		Options *string `json:"options"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, raw)
	}
	if v.Answer != "four" || v.Options != nil {
		t.Errorf("got %+v", v)
	}
}

func TestExtractPrefersWidestSpan(t *testing.T) {
	raw, ok := Extract(`prefix {"a": 1} middle {"b": 2} suffix`)
	if !ok {
		t.Fatal("nothing extracted")
	}
	// The greedy span is invalid, so the narrow first object wins.
	if string(raw) != `{"a": 1}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractFailures(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"no json in this sentence",
		"<think>only thoughts</think>",
		"{broken",
	} {
		if raw, ok := Extract(in); ok {
			t.Errorf("input %q: unexpectedly extracted %s", in, raw)
		}
	}
}
