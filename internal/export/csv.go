package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"quizforge/internal/quiz"
)

// maxOptionColumns is the widest option set any question type produces.
const maxOptionColumns = 4

// CSVExporter writes a spreadsheet-friendly table, one question per row,
// with options flattened into numbered columns. True/False questions get
// their two labels as options so every row imports into quiz platforms
// that expect choices.
type CSVExporter struct{}

func (CSVExporter) Format() string { return "csv" }

func (CSVExporter) Export(_ context.Context, q *quiz.Quiz, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dest, slug(q.Title)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"question", "type"}
	for i := 1; i <= maxOptionColumns; i++ {
		header = append(header, "option_"+strconv.Itoa(i))
	}
	header = append(header, "answer", "topic", "subtopic", "difficulty")
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, question := range q.Questions {
		if err := w.Write(csvRow(question)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}

func csvRow(q quiz.Question) []string {
	options := q.Options
	if q.Type == quiz.TypeTrueFalse && len(options) == 0 {
		options = []string{quiz.LabelCorrect, quiz.LabelWrong}
	}

	row := []string{q.Question, string(q.Type)}
	for i := 0; i < maxOptionColumns; i++ {
		if i < len(options) {
			row = append(row, options[i])
		} else {
			row = append(row, "")
		}
	}
	return append(row, q.Answer, q.Topic, q.Subtopic, string(q.Difficulty))
}
