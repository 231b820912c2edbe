// Package keywords turns a model's raw keyword output into a ranked,
// bounded keyword list.
//
// Curation runs in tiers:
//
//  1. strong: the model's own keywords, cleaned and spell-corrected, in the
//     order the model emitted them
//  2. medium: words from the title and description, then terms injected
//     for the final category
//  3. backfill: plural/singular partners of existing entries, used only
//     when the list is below Options.Min
//
// The result never contains duplicates or stopwords and every entry has at
// most Options.MaxWords words.
package keywords

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cognicore/stockmeta/pkg/stockmeta/lexicon"
	"github.com/cognicore/stockmeta/pkg/stockmeta/stoplist"
	"github.com/cognicore/stockmeta/pkg/stockmeta/taxonomy"
)

// Options bounds and filters the curated list.
type Options struct {
	Min       int // backfill floor
	Max       int // hard cap
	MaxWords  int // longest phrase kept
	MinLength int // shortest keyword kept unless whitelisted

	ShortWhitelist []string // short keywords kept despite MinLength ("ai", "3d")
	Banned         []string // substrings that reject a keyword
}

// DefaultOptions returns the marketplace limits.
func DefaultOptions() Options {
	return Options{
		Min:            25,
		Max:            49,
		MaxWords:       3,
		MinLength:      3,
		ShortWhitelist: []string{"ai", "ui", "ux", "3d", "2d", "vr", "ar"},
		Banned:         []string{"stock photo", "copy space", "no people", "nobody", "text placeholder"},
	}
}

var (
	rawSplit  = regexp.MustCompile(`[,;\n]+`)
	wordSplit = regexp.MustCompile(`[^a-z0-9+]+`)
)

// Curator is immutable after New and safe for concurrent use.
type Curator struct {
	stops *stoplist.List
	lex   *lexicon.Lexicon
	tax   *taxonomy.Taxonomy
	opts  Options

	whitelist map[string]bool
	banned    []string
}

// New creates a curator. tax may be nil, in which case no category terms
// are injected.
func New(stops *stoplist.List, lex *lexicon.Lexicon, tax *taxonomy.Taxonomy, opts Options) *Curator {
	c := &Curator{
		stops:     stops,
		lex:       lex,
		tax:       tax,
		opts:      opts,
		whitelist: make(map[string]bool, len(opts.ShortWhitelist)),
	}
	if c.lex == nil {
		c.lex = lexicon.New(nil, nil)
	}
	for _, w := range opts.ShortWhitelist {
		c.whitelist[CleanPhrase(w)] = true
	}
	for _, b := range opts.Banned {
		if b = CleanPhrase(b); b != "" {
			c.banned = append(c.banned, b)
		}
	}
	return c
}

// Curate builds the final keyword list for one image.
func (c *Curator) Curate(raw, title, description string, categoryCode int) []string {
	seen := map[string]bool{}
	var tiers []string

	// Strong tier.
	for _, part := range SplitRaw(raw) {
		p := c.lex.CorrectPhrase(CleanPhrase(part))
		if !c.acceptable(p) || seen[p] {
			continue
		}
		seen[p] = true
		tiers = append(tiers, p)
	}

	// Medium tier: title and description words.
	for _, w := range wordSplit.Split(strings.ToLower(title+" "+description), -1) {
		w = c.lex.CorrectPhrase(w)
		if len(w) <= 2 || !c.acceptable(w) || seen[w] {
			continue
		}
		seen[w] = true
		tiers = append(tiers, w)
	}

	// Medium tier: category-linked terms.
	if c.tax != nil {
		for _, term := range c.tax.Inject(categoryCode) {
			if !c.acceptable(term) || seen[term] {
				continue
			}
			seen[term] = true
			tiers = append(tiers, term)
		}
	}

	out := make([]string, 0, c.opts.Max)
	present := map[string]bool{}
	for _, p := range tiers {
		if len(out) >= c.opts.Max {
			break
		}
		if c.isBanned(p) || wordCount(p) > c.opts.MaxWords || present[p] {
			continue
		}
		present[p] = true
		out = append(out, p)
	}

	if len(out) < c.opts.Min {
		out = c.backfill(out, present)
	}
	return out
}

// backfill appends morphological partners of existing entries until the
// floor is met. Partners are not checked against a dictionary, so the
// default +s/-s rule can yield implausible forms.
func (c *Curator) backfill(out []string, present map[string]bool) []string {
	n := len(out)
	for i := 0; i < n && len(out) < c.opts.Min; i++ {
		cand := c.lex.Partner(out[i])
		if cand == "" || present[cand] {
			continue
		}
		if c.misspelled(cand) || !c.acceptable(cand) || c.isBanned(cand) {
			continue
		}
		present[cand] = true
		out = append(out, cand)
	}
	return out
}

// misspelled reports whether p or any of its words is a known fragment,
// i.e. whether the corrector would rewrite it.
func (c *Curator) misspelled(p string) bool {
	if c.lex.IsFragment(p) {
		return true
	}
	for _, w := range strings.Fields(p) {
		if c.lex.IsFragment(w) {
			return true
		}
	}
	return false
}

// acceptable applies the per-keyword rules shared by every tier.
func (c *Curator) acceptable(p string) bool {
	if p == "" {
		return false
	}
	if len([]rune(p)) < c.opts.MinLength && !c.whitelist[p] {
		return false
	}
	return !c.stops.IsStop(p)
}

func (c *Curator) isBanned(p string) bool {
	for _, b := range c.banned {
		if strings.Contains(p, b) {
			return true
		}
	}
	return false
}

// SplitRaw splits the model's keyword text on commas, semicolons and
// newlines.
func SplitRaw(raw string) []string {
	parts := rawSplit.Split(raw, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanPhrase collapses whitespace, strips surrounding quotes and
// punctuation, and lowercases. A trailing "+" is kept ("c++").
func CleanPhrase(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		if r == '+' {
			return false
		}
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// String joins a curated list the way the exporter writes it.
func String(keywords []string) string {
	return strings.Join(keywords, ", ")
}

func wordCount(p string) int {
	return len(strings.Fields(p))
}
