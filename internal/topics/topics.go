// Package topics loads the curriculum catalog that constrains quiz jobs:
// which grades exist, which topics each grade covers, and which subtopics
// sit under each topic.
package topics

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed topics.json
var defaultCatalog []byte

// Catalog maps grade -> topic -> subtopics.
type Catalog map[string]map[string][]string

// Load reads a catalog file. When path is empty or the file does not exist
// the bundled catalog is used, so a fresh install works without setup.
func Load(path string) (Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			data = b
		case os.IsNotExist(err):
			// Bundled fallback.
		default:
			return nil, fmt.Errorf("read topics catalog: %w", err)
		}
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse topics catalog: %w", err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("topics catalog is empty")
	}
	return c, nil
}

// Grades lists the catalog's grades in sorted order.
func (c Catalog) Grades() []string {
	out := make([]string, 0, len(c))
	for g := range c {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Topics lists a grade's topics in sorted order.
func (c Catalog) Topics(grade string) []string {
	byTopic, ok := c[grade]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byTopic))
	for t := range byTopic {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Subtopics lists a topic's subtopics for a grade.
func (c Catalog) Subtopics(grade, topic string) []string {
	byTopic, ok := c[grade]
	if !ok {
		return nil
	}
	return byTopic[topic]
}

// Validate checks a job's topic selection against the catalog. An empty
// subtopic list means "the whole topic" and is always acceptable for a
// known topic.
func (c Catalog) Validate(grade string, selection map[string][]string) error {
	byTopic, ok := c[grade]
	if !ok {
		return fmt.Errorf("unknown grade %q, have %v", grade, c.Grades())
	}
	if len(selection) == 0 {
		return fmt.Errorf("no topics selected")
	}
	for topic, subs := range selection {
		known, ok := byTopic[topic]
		if !ok {
			return fmt.Errorf("grade %s has no topic %q", grade, topic)
		}
		for _, sub := range subs {
			if !contains(known, sub) {
				return fmt.Errorf("topic %q has no subtopic %q", topic, sub)
			}
		}
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
