// Package refine cleans model-written titles and descriptions.
package refine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/ingest"
)

// Options configures the refiner.
type Options struct {
	// ForbiddenPhrases are removed from titles as whole words or phrases,
	// case-insensitively.
	ForbiddenPhrases []string
	TitleLimit       int
	DescriptionLimit int
}

// DefaultOptions returns limits matching the parser. Zero limits passed
// to New fall back to these; a negative limit disables truncation.
func DefaultOptions() Options {
	return Options{TitleLimit: 200, DescriptionLimit: 500}
}

// Refiner applies Options. It is immutable and safe for concurrent use.
type Refiner struct {
	forbidden *regexp.Regexp // nil when no phrases are configured
	opts      Options
}

// New compiles the forbidden phrase set into a single alternation.
// Longer phrases come first so "stock photography" wins over "stock photo".
func New(opts Options) *Refiner {
	def := DefaultOptions()
	if opts.TitleLimit == 0 {
		opts.TitleLimit = def.TitleLimit
	}
	if opts.DescriptionLimit == 0 {
		opts.DescriptionLimit = def.DescriptionLimit
	}
	r := &Refiner{opts: opts}

	seen := map[string]bool{}
	var phrases []string
	for _, p := range opts.ForbiddenPhrases {
		p = strings.ToLower(ingest.CollapseSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		phrases = append(phrases, p)
	}
	if len(phrases) == 0 {
		return r
	}
	sort.SliceStable(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })

	alts := make([]string, len(phrases))
	for i, p := range phrases {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	r.forbidden = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	return r
}

// Title strips forbidden phrases, collapses whitespace, lowercases,
// truncates and sentence-cases the result. Proper nouns are not restored.
func (r *Refiner) Title(raw string) string {
	t := strings.Trim(ingest.CollapseSpace(raw), `"'`)
	if r.forbidden != nil {
		t = r.forbidden.ReplaceAllString(t, " ")
	}
	t = strings.ToLower(ingest.CollapseSpace(t))
	t = strings.TrimSpace(ingest.Truncate(t, r.opts.TitleLimit))
	return ingest.SentenceCase(t)
}

// Description trims and truncates. Forbidden phrases are left in place.
func (r *Refiner) Description(raw string) string {
	return ingest.Truncate(strings.TrimSpace(raw), r.opts.DescriptionLimit)
}

// hasForbidden reports whether s contains a forbidden phrase.
func (r *Refiner) hasForbidden(s string) bool {
	return r.forbidden != nil && r.forbidden.MatchString(s)
}
