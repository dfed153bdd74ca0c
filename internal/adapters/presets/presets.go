// Package presets serves curated book analyses from an embedded YAML catalog.
// It is the analyzer used for offline and development runs.
package presets

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
)

//go:embed presets.yaml
var embedded []byte

type entry struct {
	Keys     []string       `yaml:"keys"`
	Analysis map[string]any `yaml:"analysis"`
}

type file struct {
	Presets []entry        `yaml:"presets"`
	Default map[string]any `yaml:"default"`
}

type preset struct {
	keys     []string
	analysis domain.BookAnalysis
}

// Analyzer matches books against the preset catalog.
type Analyzer struct {
	presets  []preset
	fallback domain.BookAnalysis
}

var _ ports.BookAnalyzer = (*Analyzer)(nil)

// New loads the embedded catalog.
func New() (*Analyzer, error) {
	return Load(embedded)
}

// Load parses a preset catalog.
func Load(data []byte) (*Analyzer, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("presets: parse catalog: %w", err)
	}

	a := &Analyzer{fallback: domain.NormalizeAnalysis(f.Default)}
	for i, e := range f.Presets {
		if len(e.Keys) == 0 {
			return nil, fmt.Errorf("presets: entry %d has no keys", i)
		}
		keys := make([]string, 0, len(e.Keys))
		for _, k := range e.Keys {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keys = append(keys, k)
			}
		}
		a.presets = append(a.presets, preset{keys: keys, analysis: domain.NormalizeAnalysis(e.Analysis)})
	}
	return a, nil
}

// Match returns the first preset whose key occurs in the book's title or author.
func (a *Analyzer) Match(book domain.Book) (domain.BookAnalysis, bool) {
	haystack := strings.ToLower(book.Title + " " + book.Author)
	for _, p := range a.presets {
		for _, k := range p.keys {
			if strings.Contains(haystack, k) {
				return p.analysis, true
			}
		}
	}
	return domain.BookAnalysis{}, false
}

// AnalyzeBook returns the matching preset or the catalog default. It never fails.
func (a *Analyzer) AnalyzeBook(_ context.Context, book domain.Book) (domain.BookAnalysis, error) {
	if analysis, ok := a.Match(book); ok {
		return analysis, nil
	}
	return a.fallback, nil
}
