// Package category assigns a category label to each question bank file.
package category

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"quizbank/internal/domain"
)

// Rule maps file names matching Pattern to Category. Pattern uses
// path.Match syntax and is matched against the base name.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// Mapping resolves file names to categories. The first matching rule wins.
type Mapping struct {
	Default string `yaml:"default"`
	Files   []Rule `yaml:"files"`
}

// LoadMapping reads a YAML mapping file.
func LoadMapping(filePath string) (*Mapping, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes and validates a YAML mapping document.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse category mapping: %w", err)
	}
	for i, r := range m.Files {
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("category mapping rule %d (%q): %w", i, r.Pattern, domain.ErrEmptyCategory)
		}
		if _, err := path.Match(r.Pattern, ""); err != nil {
			return nil, fmt.Errorf("category mapping rule %d: bad pattern %q: %w", i, r.Pattern, err)
		}
	}
	return &m, nil
}

// Resolve returns the category for a file. Unmatched files get the default,
// or the file stem when no default is configured.
func (m *Mapping) Resolve(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if m != nil {
		for _, r := range m.Files {
			if ok, _ := path.Match(r.Pattern, base); ok {
				return r.Category
			}
		}
		if m.Default != "" {
			return m.Default
		}
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
