package stockmeta

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/stockmeta/pkg/stockmeta/classify"
	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return e
}

const lakeAnswer = `TITLE: Amazing stock photo of a Mountain lake at sunrise copy space
KEYWORDS: mountai, lake, sunris, reflection, landscape, nature, water, peak, alpine, scenic, travel, outdoor, calm, morning, sky, clouds, forest, pine, trees, hiking, wilderness, serene, tranquil, stock photo
CATEGORY: Nature
DESCRIPTION: A calm alpine lake reflects snowy mountain peaks at sunrise.`

func TestProcess(t *testing.T) {
	e := newEngine(t)

	res := e.Process(lakeAnswer)

	if res.Title != "Amazing of a mountain lake at sunrise" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.CategoryCode != 5 || res.CategoryName != "The Environment" {
		t.Errorf("category = %d %q", res.CategoryCode, res.CategoryName)
	}
	if n := len(res.Keywords); n < 25 || n > 49 {
		t.Errorf("keyword count = %d", n)
	}
	if res.Keywords[0] != "mountain" || res.Keywords[2] != "sunrise" {
		t.Errorf("corrected strong keywords should lead, got %v", res.Keywords[:3])
	}
	for _, k := range res.Keywords {
		if strings.Contains(k, "stock photo") {
			t.Errorf("banned keyword %q kept", k)
		}
	}
	if res.Description != "A calm alpine lake reflects snowy mountain peaks at sunrise." {
		t.Errorf("Description = %q", res.Description)
	}
}

func TestAnalyzeExplains(t *testing.T) {
	e := newEngine(t)

	a := e.Analyze(lakeAnswer)
	if a.Decision.Reason != classify.ReasonAgreement {
		t.Errorf("Reason = %q", a.Decision.Reason)
	}
	if a.Fields.Fallback {
		t.Error("labeled answer should parse on the primary path")
	}
	if !a.Tokens.Has("nature") {
		t.Error("tokens should include keyword words")
	}
}

func TestProcessPeopleBias(t *testing.T) {
	e := newEngine(t)

	res := e.Process("TITLE: Woman hiking\nKEYWORDS: vector, icon, hiking\nCATEGORY: Graphic Resources")
	if res.CategoryCode != 13 || res.CategoryName != "People" {
		t.Errorf("category = %d %q", res.CategoryCode, res.CategoryName)
	}
	for _, want := range []string{"people", "person", "human", "portrait"} {
		found := false
		for _, k := range res.Keywords {
			found = found || k == want
		}
		if !found {
			t.Errorf("injected term %q missing from %v", want, res.Keywords)
		}
	}
}

func TestProcessNormalizesMarkup(t *testing.T) {
	e := newEngine(t)

	raw := "<p>TITLE： Red apple</p><p>KEYWORDS: apple, fruit</p><p>CATEGORY: Food</p>"
	res := e.Process(raw)
	if res.Title != "Red apple" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.CategoryCode != 7 {
		t.Errorf("CategoryCode = %d, want 7", res.CategoryCode)
	}
}

func TestProcessDegraded(t *testing.T) {
	e := newEngine(t)

	res := e.Process("")
	if res.CategoryCode != 0 || res.CategoryName != UnknownCategory {
		t.Errorf("category = %d %q", res.CategoryCode, res.CategoryName)
	}
	if res.Keywords == nil || len(res.Keywords) != 0 {
		t.Errorf("Keywords = %#v, want empty", res.Keywords)
	}

	// Unlabeled prose yields empty fields but still a well-formed result.
	res = e.Process("a nice cat sitting on a mat")
	if res.Title != "" || res.Description != "" {
		t.Errorf("unlabeled text should give empty fields, got %+v", res)
	}

	// Unrecognized category with no vocabulary signal keeps the model's text.
	res = e.Process("TITLE: Abstract swirl\nCATEGORY: Generative Art")
	if res.CategoryCode != 0 || res.CategoryName != "Generative Art" {
		t.Errorf("category = %d %q", res.CategoryCode, res.CategoryName)
	}
}

func TestProcessPrompt(t *testing.T) {
	e := newEngine(t)

	if got := e.ProcessPrompt("PROMPT: a fox in snow, watercolor").Prompt; got != "a fox in snow, watercolor" {
		t.Errorf("Prompt = %q", got)
	}
}

func TestKeywordString(t *testing.T) {
	r := MetadataResult{Keywords: []string{"fox", "snow", "winter"}}
	if got := r.KeywordString(); got != "fox, snow, winter" {
		t.Errorf("KeywordString = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", TitleDisplayLimit); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	long := strings.Repeat("a", 61)
	if got := Truncate(long, KeywordsDisplayLimit); got != strings.Repeat("a", 60)+"..." {
		t.Errorf("Truncate = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeMetadata, "Metadata": ModeMetadata, " prompt ": ModePrompt} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("video"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("ParseMode(video) err = %v", err)
	}
}

func TestNewRequiresTaxonomy(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("New err = %v", err)
	}
}
