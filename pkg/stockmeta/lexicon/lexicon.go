package lexicon

import "strings"

// Lexicon stores the fixed word-form tables used by keyword curation:
//   - Corrections: truncated or misspelled fragments -> corrected word/phrase
//     (volcan -> volcano, eruptio -> eruption)
//   - Plurals: irregular singular -> plural forms (child -> children), with
//     the inverse index for plural -> singular
//
// Every lookup is an exact match against a whole token. Fragments are never
// matched as substrings, so "volcanic" is untouched by a "volcan" entry.
// A Lexicon is read-only after New and safe for concurrent use.
type Lexicon struct {
	corrections map[string]string
	plurals     map[string]string // singular -> plural
	singulars   map[string]string // plural -> singular
}

// New builds a lexicon from a correction map and an irregular plural map
// (singular -> plural). Keys and values are lowercased.
func New(corrections, plurals map[string]string) *Lexicon {
	l := &Lexicon{
		corrections: make(map[string]string, len(corrections)),
		plurals:     make(map[string]string, len(plurals)),
		singulars:   make(map[string]string, len(plurals)),
	}
	for fragment, fixed := range corrections {
		fragment, fixed = normalize(fragment), normalize(fixed)
		if fragment == "" || fixed == "" {
			continue
		}
		l.corrections[fragment] = fixed
	}
	for singular, plural := range plurals {
		singular, plural = normalize(singular), normalize(plural)
		if singular == "" || plural == "" || singular == plural {
			continue
		}
		l.plurals[singular] = plural
		l.singulars[plural] = singular
	}
	return l
}

// Correct returns the correction for an exact token or phrase.
func (l *Lexicon) Correct(token string) (string, bool) {
	fixed, ok := l.corrections[token]
	return fixed, ok
}

// CorrectPhrase applies spelling correction to a lowercase phrase.
// The whole phrase is checked first; failing that, a multi-word phrase has
// each word corrected independently and rejoined.
//
// Examples:
//   - CorrectPhrase("smok") -> "smoke"
//   - CorrectPhrase("volcan eruptio") -> "volcano eruption"
//   - CorrectPhrase("volcanic") -> "volcanic"
func (l *Lexicon) CorrectPhrase(phrase string) string {
	if fixed, ok := l.corrections[phrase]; ok {
		return fixed
	}
	if !strings.Contains(phrase, " ") {
		return phrase
	}
	words := strings.Fields(phrase)
	for i, w := range words {
		if fixed, ok := l.corrections[w]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}

// IsFragment reports whether token is a known misspelling.
func (l *Lexicon) IsFragment(token string) bool {
	_, ok := l.corrections[token]
	return ok
}

// Partner returns the morphological partner of a phrase by transforming its
// last word: the irregular table and its inverse are consulted first, then
// the default rule strips a trailing "s" or appends one.
// An empty string means no partner exists.
//
// Examples:
//   - Partner("child") -> "children"
//   - Partner("children") -> "child"
//   - Partner("pine tree") -> "pine trees"
//   - Partner("clouds") -> "cloud"
func (l *Lexicon) Partner(phrase string) string {
	head, last := splitLast(phrase)
	if last == "" {
		return ""
	}

	var form string
	if plural, ok := l.plurals[last]; ok {
		form = plural
	} else if singular, ok := l.singulars[last]; ok {
		form = singular
	} else if strings.HasSuffix(last, "s") {
		form = strings.TrimSuffix(last, "s")
	} else {
		form = last + "s"
	}

	if form == "" || form == last {
		return ""
	}
	return head + form
}

// Stats returns counts of the loaded tables.
func (l *Lexicon) Stats() Stats {
	return Stats{
		Corrections: len(l.corrections),
		Plurals:     len(l.plurals),
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Corrections int
	Plurals     int
}

// splitLast splits "a b c" into ("a b ", "c").
func splitLast(phrase string) (string, string) {
	phrase = strings.TrimSpace(phrase)
	idx := strings.LastIndex(phrase, " ")
	if idx < 0 {
		return "", phrase
	}
	return phrase[:idx+1], phrase[idx+1:]
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
