// Package parse extracts labeled fields from a vision model's text answer.
package parse

import (
	"regexp"
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/ingest"
)

// Hard limits applied after extraction. The cut is by rune with no
// ellipsis and no word-boundary awareness.
const (
	TitleLimit       = 200
	DescriptionLimit = 500
)

// Fields holds the four values the model is asked to emit.
type Fields struct {
	Title        string
	Keywords     string // raw, comma-joined
	CategoryText string
	Description  string
	Fallback     bool // true when the line scanner recovered the fields
}

// Empty reports whether no field carries a value.
func (f Fields) Empty() bool {
	return f.Title == "" && f.Keywords == "" && f.CategoryText == "" && f.Description == ""
}

// field is the scanner state: which value the current line feeds.
type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldKeywords
	fieldCategory
	fieldDescription
)

var labels = map[string]field{
	"TITLE":       fieldTitle,
	"KEYWORDS":    fieldKeywords,
	"CATEGORY":    fieldCategory,
	"DESCRIPTION": fieldDescription,
}

// continues lists the fields an unlabeled line is appended to.
var continues = map[field]bool{
	fieldKeywords:    true,
	fieldDescription: true,
}

// Label patterns anchor at line start and never cross a newline.
var (
	titleRe       = labelPattern("TITLE")
	keywordsRe    = labelPattern("KEYWORDS")
	categoryRe    = labelPattern("CATEGORY")
	descriptionRe = labelPattern("DESCRIPTION")

	promptLabelRe = regexp.MustCompile(`(?i)^prompt\s*:\s*`)
)

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^` + label + `[ \t]*:[ \t]*(.*)$`)
}

// Parse extracts the fields from raw model text. It never fails: text
// with no recognizable labels yields empty fields.
func Parse(raw string) Fields {
	f := Fields{
		Title:        match(titleRe, raw),
		Keywords:     match(keywordsRe, raw),
		CategoryText: match(categoryRe, raw),
		Description:  match(descriptionRe, raw),
	}
	if f.Empty() {
		f = scan(raw)
		f.Fallback = true
	}

	f.Title = ingest.Truncate(strings.TrimSpace(f.Title), TitleLimit)
	f.Keywords = strings.TrimSpace(f.Keywords)
	f.CategoryText = strings.TrimSpace(f.CategoryText)
	f.Description = ingest.Truncate(strings.TrimSpace(f.Description), DescriptionLimit)
	return f
}

// Prompt returns the model text with a leading "prompt:" label removed.
func Prompt(raw string) string {
	return strings.TrimSpace(promptLabelRe.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// match returns the value after the first LABEL: line. An empty same-line
// value takes the next non-empty line unless that line is itself labeled.
func match(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatchIndex(raw)
	if m == nil {
		return ""
	}
	if v := strings.TrimSpace(raw[m[2]:m[3]]); v != "" {
		return v
	}
	for _, line := range strings.Split(raw[m[1]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, _, labeled := splitLabel(line); labeled {
			return ""
		}
		return line
	}
	return ""
}

// scan is the recovery path for answers the primary patterns missed,
// e.g. labels indented or decorated with markdown. A labeled line switches
// the current field; an unlabeled line extends KEYWORDS or DESCRIPTION.
func scan(raw string) Fields {
	values := map[field][]string{}
	current := fieldNone

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if next, rest, ok := splitLabel(line); ok {
			current = next
			values[current] = []string{rest}
			continue
		}
		if continues[current] {
			values[current] = append(values[current], line)
		}
	}

	join := func(k field) string {
		return strings.TrimSpace(strings.Join(values[k], " "))
	}
	return Fields{
		Title:        join(fieldTitle),
		Keywords:     join(fieldKeywords),
		CategoryText: join(fieldCategory),
		Description:  join(fieldDescription),
	}
}

// splitLabel recognizes "LABEL: rest" after stripping markdown emphasis
// and list markers from the label.
func splitLabel(line string) (field, string, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return fieldNone, "", false
	}
	label := strings.ToUpper(strings.Trim(line[:idx], " \t*#_-"))
	f, ok := labels[label]
	if !ok {
		return fieldNone, "", false
	}
	rest := strings.TrimSpace(strings.Trim(line[idx+1:], "*_"))
	return f, rest, true
}
