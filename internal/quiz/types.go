package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionType is the canonical question kind. Raw model output uses
// synonyms ("mcq", "tf", "fill") that normalization maps onto these five.
type QuestionType string

const (
	TypeMCQ         QuestionType = "MCQ"
	TypeTrueFalse   QuestionType = "True/False"
	TypeShortAnswer QuestionType = "Short Answer"
	TypeFillBlank   QuestionType = "Fill-in-the-Blank"
	TypeNumerical   QuestionType = "Numerical"
)

// AllTypes lists every canonical question type.
var AllTypes = []QuestionType{TypeMCQ, TypeTrueFalse, TypeShortAnswer, TypeFillBlank, TypeNumerical}

// Difficulty is the three-level difficulty scale.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// True/False answer domain.
const (
	LabelCorrect = "Correct"
	LabelWrong   = "Wrong"
)

// Question is the central entity of the pipeline. It is created from model
// output, coerced by normalization, possibly replaced wholesale by
// refinement, and dropped when it cannot be made valid.
type Question struct {
	Question   string       `json:"question"`
	Type       QuestionType `json:"type"`
	Options    []string     `json:"options,omitempty"`
	Answer     string       `json:"answer"`
	Topic      string       `json:"topic"`
	Subtopic   string       `json:"subtopic"`
	Difficulty Difficulty   `json:"difficulty"`
}

// Settings describes the job that produced a quiz. It round-trips through
// JSON losslessly so a saved activity can seed a new job.
type Settings struct {
	Grade        string               `json:"grade"`
	Topics       map[string][]string  `json:"topics"`
	Difficulty   Difficulty           `json:"difficulty"`
	ActivityType string               `json:"activity_type"`
	TypeCounts   map[QuestionType]int `json:"question_types"`
	NumQuestions int                  `json:"num_questions"`
}

// TotalQuestions is the requested quiz size: NumQuestions when set,
// otherwise the sum of the per-type counts.
func (s Settings) TotalQuestions() int {
	if s.NumQuestions > 0 {
		return s.NumQuestions
	}
	total := 0
	for _, n := range s.TypeCounts {
		total += n
	}
	return total
}

// Quiz is the pipeline's final output. len(Questions) never exceeds the
// requested total; a shortfall is a warning, not an error.
type Quiz struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Settings    Settings   `json:"settings"`
	Questions   []Question `json:"questions"`
}

// rawQuestion tolerates the loose typing of model output: answers and
// options may arrive as numbers or booleans.
type rawQuestion struct {
	Question   string `json:"question"`
	Type       string `json:"type"`
	Options    []any  `json:"options"`
	Answer     any    `json:"answer"`
	Topic      string `json:"topic"`
	Subtopic   string `json:"subtopic"`
	Difficulty string `json:"difficulty"`
}

func (r rawQuestion) question() Question {
	q := Question{
		Question:   r.Question,
		Type:       QuestionType(r.Type),
		Answer:     coerceString(r.Answer),
		Topic:      r.Topic,
		Subtopic:   r.Subtopic,
		Difficulty: Difficulty(r.Difficulty),
	}
	for _, o := range r.Options {
		q.Options = append(q.Options, coerceString(o))
	}
	return q
}

// DecodeQuestions decodes a JSON array of loosely-typed question objects.
func DecodeQuestions(raw json.RawMessage) ([]Question, error) {
	var rows []rawQuestion
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	questions := make([]Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.question())
	}
	return questions, nil
}

// DecodeQuestion decodes a single loosely-typed question object.
func DecodeQuestion(raw json.RawMessage) (*Question, error) {
	var row rawQuestion
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	q := row.question()
	return &q, nil
}

// GeneratedQuiz is the envelope the generator model returns for a
// whole-quiz prompt. Only the questions carry forward; title and settings
// are authoritative from the caller, not the model.
type GeneratedQuiz struct {
	Title     string
	Questions []Question
}

// DecodeQuiz decodes a generated quiz envelope.
func DecodeQuiz(raw json.RawMessage) (*GeneratedQuiz, error) {
	var envelope struct {
		Title     string          `json:"title"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	if len(envelope.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions field")
	}
	questions, err := DecodeQuestions(envelope.Questions)
	if err != nil {
		return nil, err
	}
	return &GeneratedQuiz{Title: envelope.Title, Questions: questions}, nil
}

// coerceString renders the loose JSON scalar types as text.
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
