package quiz

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		question string
		answer   string
		want     Difficulty
	}{
		{
			name:     "small numbers one step",
			question: "What is 5 + 3?",
			answer:   "8",
			want:     Easy,
		},
		{
			name:     "no numbers at all",
			question: "Name the capital of Thailand.",
			answer:   "Bangkok",
			want:     Easy,
		},
		{
			name:     "medium numbers",
			question: "What is 45 + 30?",
			answer:   "75",
			want:     Medium,
		},
		{
			name:     "many steps with moderate numbers",
			question: "A shop sells 150 apples, 230 oranges, and 480 bananas. What is the total?",
			answer:   "860",
			want:     Hard,
		},
		{
			name:     "large numbers with one step fall back to medium",
			question: "What is 2000 + 3000?",
			answer:   "5000",
			want:     Medium,
		},
		{
			name:     "conjunctions without arithmetic stay easy",
			question: "Is a square also a rectangle?",
			answer:   "Yes",
			want:     Easy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{Question: tt.question, Answer: tt.answer}
			if got := Estimate(q); got != tt.want {
				t.Errorf("Estimate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEstimateCountsStepsOnlyWithCues(t *testing.T) {
	// Same commas and conjunctions, with and without an arithmetic cue.
	prose := Question{Question: "List red, green, and blue items.", Answer: "three"}
	if got := Estimate(prose); got != Easy {
		t.Errorf("prose = %s, want Easy", got)
	}

	arithmetic := Question{Question: "Add 3, 5, and 7 to find the sum.", Answer: "15"}
	if got := Estimate(arithmetic); got == Easy {
		t.Error("arithmetic with multiple steps should not be Easy")
	}
}
