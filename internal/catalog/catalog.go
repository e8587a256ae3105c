// Package catalog holds the static list of Unity API patterns the analyzer
// recognizes. The catalog is embedded and never depends on analysis state.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsYAML []byte

// Pattern is one recognized API with a short usage note.
type Pattern struct {
	API  string `yaml:"api" json:"api"`
	Note string `yaml:"note" json:"note"`
}

// Category groups related patterns.
type Category struct {
	Key      string    `yaml:"key"`
	Title    string    `yaml:"title"`
	Warn     bool      `yaml:"warn"`
	Patterns []Pattern `yaml:"patterns"`
}

// Catalog is the ordered set of categories.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog. It is parsed once.
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(patternsYAML)
	})
	return loaded, loadErr
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing pattern catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("pattern catalog has no categories")
	}
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return nil, fmt.Errorf("pattern catalog category %q has no key", cat.Title)
		}
	}
	return &c, nil
}

// Map returns category key to API names, the shape served over HTTP.
func (c *Catalog) Map() map[string][]string {
	out := make(map[string][]string, len(c.Categories))
	for _, cat := range c.Categories {
		apis := make([]string, 0, len(cat.Patterns))
		for _, p := range cat.Patterns {
			apis = append(apis, p.API)
		}
		out[cat.Key] = apis
	}
	return out
}

// Markdown renders the catalog as a markdown document.
func (c *Catalog) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Unity API patterns recognized by the analyzer\n")
	for _, cat := range c.Categories {
		sb.WriteString("\n## ")
		sb.WriteString(cat.Title)
		if cat.Warn {
			sb.WriteString(" (use with care)")
		}
		sb.WriteString("\n")
		for _, p := range cat.Patterns {
			fmt.Fprintf(&sb, "- `%s`", p.API)
			if p.Note != "" {
				sb.WriteString(" - ")
				sb.WriteString(p.Note)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
