package config

import (
	"fmt"

	"github.com/cognicore/stockmeta/pkg/stockmeta/keywords"
	"github.com/cognicore/stockmeta/pkg/stockmeta/lexicon"
	"github.com/cognicore/stockmeta/pkg/stockmeta/refine"
	"github.com/cognicore/stockmeta/pkg/stockmeta/stoplist"
	"github.com/cognicore/stockmeta/pkg/stockmeta/taxonomy"
)

// Loader loads the tables and constructs components. Empty paths fall
// back to the embedded defaults.
type Loader struct {
	TablesPath   string // overlay on the embedded tables
	StoplistPath string // replaces the stopwords section
}

// Components holds all loaded configuration components
type Components struct {
	Taxonomy *taxonomy.Taxonomy
	Stoplist *stoplist.List
	Lexicon  *lexicon.Lexicon
	Keywords keywords.Options
	Refine   refine.Options
}

// Summary returns table sizes as key/value pairs for logging.
func (c *Components) Summary() []interface{} {
	lex := c.Lexicon.Stats()
	return []interface{}{
		"categories", c.Taxonomy.Len(),
		"stopwords", c.Stoplist.Len(),
		"corrections", lex.Corrections,
		"plurals", lex.Plurals,
		"forbidden_phrases", len(c.Refine.ForbiddenPhrases),
	}
}

// Load reads the configured files and returns initialized components.
func (l *Loader) Load() (*Components, error) {
	var (
		tables *Tables
		err    error
	)
	if l.TablesPath != "" {
		tables, err = LoadTables(l.TablesPath)
		if err != nil {
			return nil, fmt.Errorf("load tables: %w", err)
		}
	} else {
		tables, err = Defaults()
		if err != nil {
			return nil, err
		}
	}

	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		tables.Stopwords = sl.Terms
	}

	return Build(tables)
}

// Build validates tables and constructs components from them.
func Build(t *Tables) (*Components, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	cats := make([]taxonomy.Category, len(t.Categories))
	for i, c := range t.Categories {
		cats[i] = taxonomy.Category{
			Code:       c.Code,
			Name:       c.Name,
			Aliases:    c.Aliases,
			Vocabulary: c.Vocabulary,
			Inject:     c.Inject,
		}
	}
	tax, err := taxonomy.New(cats,
		taxonomy.Bias{Code: t.Bias.People.Code, Terms: t.Bias.People.Terms},
		taxonomy.Bias{Code: t.Bias.Graphics.Code, Terms: t.Bias.Graphics.Terms},
	)
	if err != nil {
		return nil, fmt.Errorf("build taxonomy: %w", err)
	}

	return &Components{
		Taxonomy: tax,
		Stoplist: stoplist.New(t.Stopwords),
		Lexicon:  lexicon.New(t.Corrections, t.Plurals),
		Keywords: keywords.Options{
			Min:            t.Keywords.Min,
			Max:            t.Keywords.Max,
			MaxWords:       t.Keywords.MaxWords,
			MinLength:      t.Keywords.MinLength,
			ShortWhitelist: t.Keywords.ShortWhitelist,
			Banned:         t.Keywords.Banned,
		},
		Refine: refine.Options{
			ForbiddenPhrases: t.Title.Forbidden,
			TitleLimit:       t.Title.Limit,
			DescriptionLimit: t.Description.Limit,
		},
	}, nil
}
