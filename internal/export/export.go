// Package export turns a finished quiz into distributable artifacts: local
// JSON/CSV/text documents and, when credentials are present, a live Google
// Form.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"quizforge/internal/quiz"
)

// Exporter renders a quiz in one output format. Export returns where the
// artifact landed: a file path for local formats, a URL for remote ones.
type Exporter interface {
	Format() string
	Export(ctx context.Context, q *quiz.Quiz, dest string) (string, error)
}

// Registry holds the available exporters keyed by format name.
type Registry struct {
	byFormat map[string]Exporter
}

// NewRegistry creates a Registry with the given exporters.
func NewRegistry(exporters ...Exporter) *Registry {
	r := &Registry{byFormat: make(map[string]Exporter, len(exporters))}
	for _, e := range exporters {
		r.byFormat[e.Format()] = e
	}
	return r
}

// Register adds or replaces an exporter.
func (r *Registry) Register(e Exporter) {
	r.byFormat[e.Format()] = e
}

// Get returns the exporter for a format.
func (r *Registry) Get(format string) (Exporter, error) {
	e, ok := r.byFormat[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q, have %v", format, r.Formats())
	}
	return e, nil
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// slug turns a quiz title into a safe file name stem.
func slug(title string) string {
	if title == "" {
		return "quiz"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "quiz"
	}
	return s
}
