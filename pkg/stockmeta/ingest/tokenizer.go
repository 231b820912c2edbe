package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// TokenSet is an unordered set of lowercase words and phrases, used only
// for membership tests.
type TokenSet map[string]struct{}

// Has reports whether the token or phrase is in the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var (
	separators = strings.NewReplacer(",", " ", ".", " ", "/", " ", "-", " ")
	letterRun  = regexp.MustCompile(`[a-z][a-z ]+`)
)

// Tokenize turns free text into a set of words and phrases.
// All non-empty inputs are joined with spaces, lowercased, and ',', '.',
// '/', '-' become spaces; every maximal run of letters and spaces that
// starts with a letter contributes both the whole phrase and each of its
// words. Digits and other punctuation end a run.
//
// Example: Tokenize("Pine-trees") -> {"pine trees", "pine", "trees"}
func Tokenize(texts ...string) TokenSet {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	blob := separators.Replace(strings.ToLower(strings.Join(parts, " ")))

	tokens := make(TokenSet)
	for _, run := range letterRun.FindAllString(blob, -1) {
		phrase := CollapseSpace(run)
		if phrase == "" {
			continue
		}
		tokens[phrase] = struct{}{}
		for _, word := range strings.Fields(phrase) {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}
