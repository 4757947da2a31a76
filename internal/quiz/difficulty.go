package quiz

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// arithmeticCues gate step counting: without an operation in sight,
// conjunctions and commas are just prose.
var arithmeticCues = []string{
	"+", "-", "*", "/",
	"average", "total", "difference", "sum", "product", "divide", "multiply",
}

// Estimate classifies a question's difficulty from the magnitude of its
// numbers and a rough count of solution steps. It is a heuristic cross-check
// against the caller-declared difficulty, not ground truth.
func Estimate(q Question) Difficulty {
	text := q.Question + " " + q.Answer
	lower := strings.ToLower(text)

	maxNumber := 0.0
	for _, m := range numberRe.FindAllString(text, -1) {
		if n, err := strconv.ParseFloat(m, 64); err == nil && n > maxNumber {
			maxNumber = n
		}
	}

	steps := 1
	if hasArithmeticCue(lower) {
		steps += strings.Count(lower, " and ") + strings.Count(lower, ",")
	}

	switch {
	case maxNumber < 20 && steps <= 1:
		return Easy
	case maxNumber < 100 && steps <= 2:
		return Medium
	case maxNumber < 1000 && steps > 2:
		return Hard
	default:
		// Ambiguous combinations (large numbers, few steps).
		return Medium
	}
}

func hasArithmeticCue(lower string) bool {
	for _, cue := range arithmeticCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
