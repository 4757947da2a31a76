package quiz

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// typeSynonyms maps lowercased raw type labels to canonical types.
// Anything unlisted resolves to Short Answer, never to an error.
var typeSynonyms = map[string]QuestionType{
	"mcq":               TypeMCQ,
	"multiple_choice":   TypeMCQ,
	"multiple-choice":   TypeMCQ,
	"true/false":        TypeTrueFalse,
	"true_false":        TypeTrueFalse,
	"tf":                TypeTrueFalse,
	"short":             TypeShortAnswer,
	"short answer":      TypeShortAnswer,
	"sa":                TypeShortAnswer,
	"fill":              TypeFillBlank,
	"fill-in-the-blank": TypeFillBlank,
	"fib":               TypeFillBlank,
	"num":               TypeNumerical,
	"numerical":         TypeNumerical,
	"numeric":           TypeNumerical,
	"calculation":       TypeNumerical,
}

// CanonicalType resolves a raw type label to its canonical value.
func CanonicalType(raw string) QuestionType {
	if t, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return TypeShortAnswer
}

// Normalizer coerces loosely-typed questions into the canonical shape.
// A zero Target means the difficulty estimator fills in missing values;
// a non-zero Target always wins, even over the model's own label.
type Normalizer struct {
	Allowed []QuestionType
	Target  Difficulty
	Log     *zap.Logger
}

// Normalize canonicalizes the type label, repairs per-type structure, and
// resolves difficulty. The second return is false when the question's
// resolved type is not in Allowed; such questions are rejected outright.
func (n *Normalizer) Normalize(q Question) (Question, bool) {
	q.Type = CanonicalType(string(q.Type))

	if len(n.Allowed) > 0 && !slices.Contains(n.Allowed, q.Type) {
		return Question{}, false
	}

	switch q.Type {
	case TypeMCQ:
		q.Options = repairMCQOptions(q.Options, q.Answer)
	case TypeTrueFalse:
		q.Options = []string{LabelCorrect, LabelWrong}
		q.Answer = coerceTrueFalse(q.Answer)
	default:
		q.Options = nil
	}

	q.Difficulty = n.resolveDifficulty(q)

	return q, true
}

func (n *Normalizer) resolveDifficulty(q Question) Difficulty {
	if n.Target == "" {
		if q.Difficulty == Easy || q.Difficulty == Medium || q.Difficulty == Hard {
			return q.Difficulty
		}
		return Estimate(q)
	}

	// The caller's difficulty always wins. An estimator disagreement is
	// recorded, not enforced.
	if est := Estimate(q); est != n.Target && n.Log != nil {
		n.Log.Warn("difficulty mismatch",
			zap.String("question", truncate(q.Question, 50)),
			zap.String("labeled", string(q.Difficulty)),
			zap.String("estimated", string(est)),
			zap.String("target", string(n.Target)))
	}
	return n.Target
}

// repairMCQOptions guarantees exactly four options containing the answer:
// splice the answer in (keeping at most the first three existing options),
// pad with placeholders, truncate.
func repairMCQOptions(options []string, answer string) []string {
	// An answer sitting past the four-option cut would be truncated away,
	// so it counts as absent and gets spliced back in.
	if idx := slices.Index(options, answer); idx < 0 || idx > 3 {
		if len(options) >= 3 {
			options = append(options[:3:3], answer)
		} else {
			options = append(options, answer)
		}
	}
	for len(options) < 4 {
		options = append(options, fmt.Sprintf("Option %d", len(options)+1))
	}
	return options[:4]
}

// coerceTrueFalse maps any answer text onto the canonical two-valued domain.
func coerceTrueFalse(answer string) string {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "true", "t", "correct":
		return LabelCorrect
	default:
		return LabelWrong
	}
}

// IsValid reports whether a question is structurally usable. Invalid
// questions are dropped whole, never partially kept.
func IsValid(q Question) bool {
	if strings.TrimSpace(q.Question) == "" {
		return false
	}
	switch q.Type {
	case TypeMCQ:
		return len(q.Options) >= 2 && q.Answer != ""
	case TypeTrueFalse:
		return q.Answer == LabelCorrect || q.Answer == LabelWrong
	default:
		return q.Answer != ""
	}
}

// Dedup removes questions whose text duplicates an earlier entry,
// case-insensitively after trimming. First occurrence wins; order is
// preserved.
func Dedup(questions []Question) []Question {
	seen := make(map[string]bool, len(questions))
	unique := make([]Question, 0, len(questions))
	for _, q := range questions {
		key := strings.ToLower(strings.TrimSpace(q.Question))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, q)
	}
	return unique
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
