package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizforge/internal/quiz"
)

// DocumentExporter writes a printable worksheet: the questions up front,
// the answer key at the end.
type DocumentExporter struct{}

func (DocumentExporter) Format() string { return "document" }

func (DocumentExporter) Export(_ context.Context, q *quiz.Quiz, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	var b strings.Builder
	b.WriteString(q.Title + "\n")
	b.WriteString(strings.Repeat("=", len(q.Title)) + "\n")
	if q.Description != "" {
		b.WriteString(q.Description + "\n")
	}
	b.WriteString("\n")

	for i, question := range q.Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, question.Question)
		switch question.Type {
		case quiz.TypeMCQ:
			for j, opt := range question.Options {
				fmt.Fprintf(&b, "   %c) %s\n", 'a'+j, opt)
			}
		case quiz.TypeTrueFalse:
			fmt.Fprintf(&b, "   a) %s\n   b) %s\n", quiz.LabelCorrect, quiz.LabelWrong)
		default:
			b.WriteString("   Answer: ____________\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Answer Key\n----------\n")
	for i, question := range q.Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, question.Answer)
	}

	path := filepath.Join(dest, slug(q.Title)+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}
