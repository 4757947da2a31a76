package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"quizforge/internal/quiz"
)

// JSONExporter writes the quiz, settings included, as an indented JSON
// document. This is the lossless format: a saved file can seed a new job.
type JSONExporter struct{}

func (JSONExporter) Format() string { return "json" }

func (JSONExporter) Export(_ context.Context, q *quiz.Quiz, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode quiz: %w", err)
	}

	path := filepath.Join(dest, slug(q.Title)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write quiz: %w", err)
	}
	return path, nil
}
