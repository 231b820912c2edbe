package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
)

// Unknown is the code used when nothing resolves to a category.
const Unknown = 0

// Category is one entry of the closed classification scheme.
type Category struct {
	Code       int
	Name       string
	Aliases    []string // alternative names the model may report
	Vocabulary []string // weighted terms used for rule scoring
	Inject     []string // terms added to medium-tier keywords for this category
}

// Bias lists trigger terms that assign Code without any scoring.
type Bias struct {
	Code  int
	Terms []string
}

// Taxonomy handles category lookup, name resolution and bias terms.
// It is immutable after New and safe for concurrent use.
type Taxonomy struct {
	categories []Category // ascending by code
	index      map[int]int
	names      map[string]int // lowercase canonical name -> code
	aliases    map[string]int // lowercase alias -> code
	people     Bias
	graphics   Bias
}

// New creates a taxonomy from category entries and the two bias sets.
// Codes must be positive and unique, names non-empty and unique, and an
// alias may point at only one code.
func New(categories []Category, people, graphics Bias) (*Taxonomy, error) {
	t := &Taxonomy{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[int]int, len(categories)),
		names:      make(map[string]int, len(categories)),
		aliases:    make(map[string]int),
	}

	for _, c := range categories {
		if c.Code <= 0 {
			return nil, fmt.Errorf("%w: category %q has non-positive code %d", internalerr.ErrInvalidConfig, c.Name, c.Code)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category %d has no name", internalerr.ErrInvalidConfig, c.Code)
		}
		if _, dup := t.index[c.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate category code %d", internalerr.ErrInvalidConfig, c.Code)
		}
		key := normalize(name)
		if other, dup := t.names[key]; dup {
			return nil, fmt.Errorf("%w: category name %q used by %d and %d", internalerr.ErrInvalidConfig, name, other, c.Code)
		}

		entry := Category{
			Code:       c.Code,
			Name:       name,
			Aliases:    normalizeAll(c.Aliases),
			Vocabulary: normalizeAll(c.Vocabulary),
			Inject:     normalizeAll(c.Inject),
		}
		t.names[key] = c.Code
		for _, a := range entry.Aliases {
			if other, dup := t.aliases[a]; dup && other != c.Code {
				return nil, fmt.Errorf("%w: alias %q used by %d and %d", internalerr.ErrInvalidConfig, a, other, c.Code)
			}
			t.aliases[a] = c.Code
		}
		t.index[c.Code] = len(t.categories)
		t.categories = append(t.categories, entry)
	}

	sort.Slice(t.categories, func(i, j int) bool {
		return t.categories[i].Code < t.categories[j].Code
	})
	for i, c := range t.categories {
		t.index[c.Code] = i
	}

	var err error
	if t.people, err = t.bias("people", people); err != nil {
		return nil, err
	}
	if t.graphics, err = t.bias("graphics", graphics); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) bias(label string, b Bias) (Bias, error) {
	terms := normalizeAll(b.Terms)
	if len(terms) == 0 {
		return Bias{}, nil
	}
	if _, ok := t.index[b.Code]; !ok {
		return Bias{}, fmt.Errorf("%w: %s bias points at unknown code %d", internalerr.ErrInvalidConfig, label, b.Code)
	}
	return Bias{Code: b.Code, Terms: terms}, nil
}

// Categories returns all entries in ascending code order.
// The returned slices must not be modified.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Category returns the entry for code.
func (t *Taxonomy) Category(code int) (Category, bool) {
	i, ok := t.index[code]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}

// Name returns the canonical name for code, or "" if the code is unknown.
func (t *Taxonomy) Name(code int) string {
	c, _ := t.Category(code)
	return c.Name
}

// Names returns canonical names in code order.
func (t *Taxonomy) Names() []string {
	out := make([]string, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int { return len(t.categories) }

// Inject returns the category-linked keyword terms for code.
func (t *Taxonomy) Inject(code int) []string {
	c, _ := t.Category(code)
	return c.Inject
}

// People returns the people-indicating bias set.
func (t *Taxonomy) People() Bias { return t.people }

// Graphics returns the graphics-indicating bias set.
func (t *Taxonomy) Graphics() Bias { return t.graphics }

// Resolve maps a model-reported category name to a code: exact canonical
// name first, then alias, then alias after dropping a trailing "s".
// Returns Unknown when nothing matches.
func (t *Taxonomy) Resolve(name string) int {
	n := normalize(name)
	if n == "" {
		return Unknown
	}
	if code, ok := t.names[n]; ok {
		return code
	}
	if code, ok := t.aliases[n]; ok {
		return code
	}
	if strings.HasSuffix(n, "s") {
		if code, ok := t.aliases[strings.TrimSuffix(n, "s")]; ok {
			return code
		}
	}
	return Unknown
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = normalize(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
