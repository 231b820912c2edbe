package stoplist

import (
	"sort"
	"strings"
)

// List is a fixed set of low-value or forbidden terms that may never
// appear as keywords. It is read-only after construction.
type List struct {
	stops map[string]struct{}
}

// New creates a stoplist from the given terms (case-insensitive).
func New(terms []string) *List {
	stops := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = normalize(t)
		if t == "" {
			continue
		}
		stops[t] = struct{}{}
	}
	return &List{stops: stops}
}

// IsStop checks if a token or phrase is a stopword
func (l *List) IsStop(token string) bool {
	if l == nil {
		return false
	}
	_, ok := l.stops[normalize(token)]
	return ok
}

// All returns all stopwords in sorted order
func (l *List) All() []string {
	result := make([]string, 0, len(l.stops))
	for s := range l.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords.
func (l *List) Len() int { return len(l.stops) }

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
