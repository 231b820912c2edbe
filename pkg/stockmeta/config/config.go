// Package config loads the static tables that drive metadata processing.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
)

//go:embed defaults.yaml
var defaultTables []byte

// Tables mirrors the YAML layout of defaults.yaml.
type Tables struct {
	Categories  []Category        `yaml:"categories"`
	Bias        BiasTables        `yaml:"bias"`
	Stopwords   []string          `yaml:"stopwords"`
	Corrections map[string]string `yaml:"corrections"`
	Plurals     map[string]string `yaml:"plurals"`
	Keywords    KeywordTables     `yaml:"keywords"`
	Title       TitleTables       `yaml:"title"`
	Description DescriptionTables `yaml:"description"`
}

// Category is one taxonomy entry.
type Category struct {
	Code       int      `yaml:"code"`
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Vocabulary []string `yaml:"vocabulary"`
	Inject     []string `yaml:"inject"`
}

// BiasTables holds the two override sets.
type BiasTables struct {
	People   BiasSet `yaml:"people"`
	Graphics BiasSet `yaml:"graphics"`
}

// BiasSet maps trigger terms to a code.
type BiasSet struct {
	Code  int      `yaml:"code"`
	Terms []string `yaml:"terms"`
}

// KeywordTables configures the keyword curator.
type KeywordTables struct {
	Min            int      `yaml:"min"`
	Max            int      `yaml:"max"`
	MaxWords       int      `yaml:"max_words"`
	MinLength      int      `yaml:"min_length"`
	ShortWhitelist []string `yaml:"short_whitelist"`
	Banned         []string `yaml:"banned"`
}

// TitleTables configures title refinement.
type TitleTables struct {
	Limit     int      `yaml:"limit"`
	Forbidden []string `yaml:"forbidden"`
}

// DescriptionTables configures description refinement.
type DescriptionTables struct {
	Limit int `yaml:"limit"`
}

// Defaults returns the embedded tables.
func Defaults() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultTables, &t); err != nil {
		return nil, fmt.Errorf("parse embedded tables: %w", err)
	}
	return &t, nil
}

// LoadTables reads a tables file and overlays it on the embedded defaults.
// Lists and scalars in the file replace the defaults; the corrections and
// plurals maps are merged entry by entry.
func LoadTables(path string) (*Tables, error) {
	t, err := Defaults()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Validate checks invariants the processing stages rely on.
func (t *Tables) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: no categories", internalerr.ErrInvalidConfig)
	}
	k := t.Keywords
	if k.Max <= 0 || k.Min < 0 || k.Min > k.Max {
		return fmt.Errorf("%w: keyword bounds min=%d max=%d", internalerr.ErrInvalidConfig, k.Min, k.Max)
	}
	if k.MaxWords <= 0 {
		return fmt.Errorf("%w: keywords.max_words must be positive", internalerr.ErrInvalidConfig)
	}
	if t.Title.Limit <= 0 || t.Description.Limit <= 0 {
		return fmt.Errorf("%w: title and description limits must be positive", internalerr.ErrInvalidConfig)
	}

	// Corrections must be a fixed point: correcting an already-corrected
	// keyword changes nothing, which keeps curation idempotent.
	keys := make(map[string]bool, len(t.Corrections))
	for from := range t.Corrections {
		keys[normalize(from)] = true
	}
	for from, to := range t.Corrections {
		to = normalize(to)
		if keys[to] {
			return fmt.Errorf("%w: correction %q -> %q targets another correction", internalerr.ErrInvalidConfig, from, to)
		}
		for _, w := range strings.Fields(to) {
			if keys[w] {
				return fmt.Errorf("%w: correction %q -> %q contains fragment %q", internalerr.ErrInvalidConfig, from, to, w)
			}
		}
	}
	return nil
}

// Stoplist is a standalone stopword file.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file with a top-level "terms" list.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
