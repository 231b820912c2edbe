// Package stockmeta turns a vision model's free-form answer about an image
// into marketplace metadata: a title, a ranked keyword list, a category
// code and a description.
//
// The pipeline is pure and holds no mutable state, so one Engine can serve
// any number of goroutines.
package stockmeta

import (
	"fmt"
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/classify"
	"github.com/cognicore/stockmeta/pkg/stockmeta/config"
	"github.com/cognicore/stockmeta/pkg/stockmeta/ingest"
	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
	"github.com/cognicore/stockmeta/pkg/stockmeta/keywords"
	"github.com/cognicore/stockmeta/pkg/stockmeta/lexicon"
	"github.com/cognicore/stockmeta/pkg/stockmeta/parse"
	"github.com/cognicore/stockmeta/pkg/stockmeta/refine"
	"github.com/cognicore/stockmeta/pkg/stockmeta/stoplist"
	"github.com/cognicore/stockmeta/pkg/stockmeta/taxonomy"
)

// UnknownCategory names a result no category signal matched.
const UnknownCategory = "Unknown"

// Display limits for summary tables.
const (
	TitleDisplayLimit    = 50
	KeywordsDisplayLimit = 60
)

// Mode selects what the model is asked for and how its answer is read.
type Mode string

const (
	ModeMetadata Mode = "metadata"
	ModePrompt   Mode = "prompt"
)

// ParseMode accepts "metadata" (the default for "") or "prompt".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMetadata:
		return ModeMetadata, nil
	case ModePrompt:
		return ModePrompt, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, s)
	}
}

// MetadataResult is the final output for one image.
type MetadataResult struct {
	Title        string   `json:"title"`
	Keywords     []string `json:"keywords"`
	CategoryCode int      `json:"category_code"`
	CategoryName string   `json:"category_name"`
	Description  string   `json:"description"`
}

// KeywordString joins the keywords the way they are exported.
func (r MetadataResult) KeywordString() string {
	return keywords.String(r.Keywords)
}

// PromptResult is the output in prompt mode.
type PromptResult struct {
	Prompt string `json:"prompt"`
}

// Analysis exposes the intermediate values behind a result.
type Analysis struct {
	Result   MetadataResult
	Fields   parse.Fields
	Tokens   ingest.TokenSet
	Decision classify.Decision
}

// Options wires the read-only tables into an Engine.
type Options struct {
	Taxonomy *taxonomy.Taxonomy
	Stoplist *stoplist.List
	Lexicon  *lexicon.Lexicon
	Keywords keywords.Options
	Refine   refine.Options
}

// Engine runs the post-processing pipeline.
type Engine struct {
	tax        *taxonomy.Taxonomy
	classifier *classify.Classifier
	curator    *keywords.Curator
	refiner    *refine.Refiner
}

// New creates an engine. Taxonomy is required.
func New(opts Options) (*Engine, error) {
	if opts.Taxonomy == nil {
		return nil, fmt.Errorf("%w: taxonomy is required", internalerr.ErrInvalidConfig)
	}
	return &Engine{
		tax:        opts.Taxonomy,
		classifier: classify.New(opts.Taxonomy),
		curator:    keywords.New(opts.Stoplist, opts.Lexicon, opts.Taxonomy, opts.Keywords),
		refiner:    refine.New(opts.Refine),
	}, nil
}

// FromComponents creates an engine from loaded configuration.
func FromComponents(c *config.Components) (*Engine, error) {
	return New(Options{
		Taxonomy: c.Taxonomy,
		Stoplist: c.Stoplist,
		Lexicon:  c.Lexicon,
		Keywords: c.Keywords,
		Refine:   c.Refine,
	})
}

// Default creates an engine over the embedded tables.
func Default() (*Engine, error) {
	comp, err := (&config.Loader{}).Load()
	if err != nil {
		return nil, err
	}
	return FromComponents(comp)
}

// Taxonomy returns the engine's taxonomy.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy { return e.tax }

// Process turns raw model text into metadata. It never fails; malformed
// text degrades to empty fields.
func (e *Engine) Process(raw string) MetadataResult {
	return e.Analyze(raw).Result
}

// Analyze is Process with the intermediate values kept.
func (e *Engine) Analyze(raw string) Analysis {
	fields := parse.Parse(ingest.NormalizeResponse(raw))
	tokens := ingest.Tokenize(fields.Title, fields.Keywords, fields.CategoryText, fields.Description)
	decision := e.classifier.Explain(tokens, fields.CategoryText)

	name := e.tax.Name(decision.Code)
	if name == "" {
		name = fields.CategoryText
	}
	if name == "" {
		name = UnknownCategory
	}

	kw := e.curator.Curate(fields.Keywords, fields.Title, fields.Description, decision.Code)
	if kw == nil {
		kw = []string{}
	}

	return Analysis{
		Result: MetadataResult{
			Title:        e.refiner.Title(fields.Title),
			Keywords:     kw,
			CategoryCode: decision.Code,
			CategoryName: name,
			Description:  e.refiner.Description(fields.Description),
		},
		Fields:   fields,
		Tokens:   tokens,
		Decision: decision,
	}
}

// ProcessPrompt reads a prompt-mode answer.
func (e *Engine) ProcessPrompt(raw string) PromptResult {
	return PromptResult{Prompt: parse.Prompt(ingest.NormalizeResponse(raw))}
}

// Truncate shortens s to n characters for display, appending "...".
func Truncate(s string, n int) string {
	if ingest.Len(s) <= n {
		return s
	}
	return ingest.Truncate(s, n) + "..."
}
