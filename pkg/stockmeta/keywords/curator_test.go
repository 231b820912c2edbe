package keywords

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/stockmeta/pkg/stockmeta/lexicon"
	"github.com/cognicore/stockmeta/pkg/stockmeta/stoplist"
	"github.com/cognicore/stockmeta/pkg/stockmeta/taxonomy"
)

func fixture(t *testing.T, opts Options) *Curator {
	t.Helper()
	stops := stoplist.New([]string{"the", "over", "at", "with", "image", "photo", "background"})
	lex := lexicon.New(
		map[string]string{"volcan": "volcano", "eruptio": "eruption", "smok": "smoke", "mountai": "mountain"},
		map[string]string{"child": "children", "person": "people"},
	)
	tax, err := taxonomy.New([]taxonomy.Category{
		{Code: 8, Name: "Graphic Resources", Inject: []string{"vector", "icon", "icons", "graphic", "ui"}},
		{Code: 13, Name: "People", Inject: []string{"people", "person", "human", "portrait"}},
		{Code: 11, Name: "Landscapes"},
	}, taxonomy.Bias{}, taxonomy.Bias{})
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}
	return New(stops, lex, tax, opts)
}

func noBackfill() Options {
	opts := DefaultOptions()
	opts.Min = 0
	return opts
}

func TestSpellingCorrection(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("volcan, eruptio, smok, lava, volcanic", "", "", 0)
	want := []string{"volcano", "eruption", "smoke", "lava", "volcanic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestSpellingCorrectionPerWord(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("smok plume; mountai range", "", "", 0)
	want := []string{"smoke plume", "mountain range"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestStrongTierFilters(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("Cat, cat, CAT , the, a, image\ndog;; ok, ai, 3D", "", "", 0)
	want := []string{"cat", "dog", "ai", "3d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestMediumTier(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("sunset", "Golden sunset over the ocean", "Waves at dusk, 2 gulls.", 13)
	want := []string{"sunset", "golden", "ocean", "waves", "dusk", "gulls", "people", "person", "human", "portrait"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestInjectedTermsRespectWhitelist(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("icon", "", "", 8)
	want := []string{"icon", "vector", "icons", "graphic", "ui"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestBannedAndLongPhrases(t *testing.T) {
	c := fixture(t, noBackfill())

	raw := "stock photo of beach, beach, a very long phrase here, copy space, nobody around, empty beach chairs"
	got := c.Curate(raw, "", "", 0)
	want := []string{"beach", "empty beach chairs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestCap(t *testing.T) {
	c := fixture(t, DefaultOptions())

	var parts []string
	for i := 0; i < 60; i++ {
		parts = append(parts, fmt.Sprintf("keyword%02d", i))
	}
	got := c.Curate(strings.Join(parts, ", "), "extra words from title", "", 13)
	if len(got) != 49 {
		t.Fatalf("len = %d, want 49", len(got))
	}
	for i, k := range got {
		if k != parts[i] {
			t.Fatalf("entry %d = %q, want %q", i, k, parts[i])
		}
	}
}

func TestBackfill(t *testing.T) {
	opts := DefaultOptions()
	opts.Min = 6
	c := fixture(t, opts)

	got := c.Curate("tree, child, glass", "", "", 0)
	// "glas" shows the lenient default rule.
	want := []string{"tree", "child", "glass", "trees", "children", "glas"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestMediumTierCorrected(t *testing.T) {
	c := fixture(t, noBackfill())

	got := c.Curate("lava", "Volcan at night", "Smok rising", 0)
	want := []string{"lava", "volcano", "night", "smoke", "rising"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestBackfillSkipsMisspelledPartners(t *testing.T) {
	opts := DefaultOptions()
	opts.Min = 10
	c := fixture(t, opts)

	// Stripping the s yields known fragments: "mountai" and "snow mountai".
	got := c.Curate("mountais, snow mountais, lake", "", "", 0)
	want := []string{"mountais", "snow mountais", "lake", "lakes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestBackfillStopsAtFloor(t *testing.T) {
	opts := DefaultOptions()
	opts.Min = 4
	c := fixture(t, opts)

	got := c.Curate("tree, child, glass", "", "", 0)
	want := []string{"tree", "child", "glass", "trees"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestBackfillSkipsKnownMisspellings(t *testing.T) {
	opts := DefaultOptions()
	opts.Min = 10
	c := fixture(t, opts)

	// The partner of "smoks" is "smok", a correction key.
	got := c.Curate("smoks", "", "", 0)
	want := []string{"smoks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestDegradedInput(t *testing.T) {
	c := fixture(t, DefaultOptions())

	if got := c.Curate("", "", "", 0); len(got) != 0 {
		t.Errorf("no candidates should give an empty list, got %v", got)
	}

	got := c.Curate("", "", "", 13)
	want := []string{"people", "person", "human", "portrait", "humans", "portraits"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Curate = %v, want %v", got, want)
	}
}

func TestInvariants(t *testing.T) {
	c := fixture(t, DefaultOptions())
	stops := stoplist.New([]string{"the", "over", "at", "with", "image", "photo", "background"})

	inputs := []struct{ raw, title, desc string }{
		{"Mountain, mountain, MOUNTAIN, snow, peak, the, image", "Snowy mountain peak at dawn", "A tall mountain with snow."},
		{"a;b;c;;;", "", ""},
		{"volcan, smok, stock photo, copy space, lava flow at night", "Volcano erupting", "Lava and smoke rise over the crater."},
		{strings.Repeat("alpha, beta, gamma, ", 30), "", ""},
	}
	for _, in := range inputs {
		got := c.Curate(in.raw, in.title, in.desc, 13)
		if len(got) > 49 {
			t.Errorf("len = %d exceeds cap", len(got))
		}
		seen := map[string]bool{}
		for _, k := range got {
			if seen[strings.ToLower(k)] {
				t.Errorf("duplicate %q in %v", k, got)
			}
			seen[strings.ToLower(k)] = true
			if stops.IsStop(k) {
				t.Errorf("stopword %q in %v", k, got)
			}
			if n := len(strings.Fields(k)); n > 3 {
				t.Errorf("%q has %d words", k, n)
			}
		}
	}
}

func TestIdempotent(t *testing.T) {
	c := fixture(t, DefaultOptions())

	title := "Red fox in a snowy forest"
	desc := "A red fox walks through fresh snow between pine trees."
	first := c.Curate("fox, red fox, snow, forest, winter, wildlife, smok, children", title, desc, 13)
	second := c.Curate(String(first), title, desc, 13)

	if len(second) < len(first) {
		t.Fatalf("second pass shrank: %d -> %d", len(first), len(second))
	}
	if !reflect.DeepEqual(second[:len(first)], first) {
		t.Errorf("second pass reordered:\n first  %v\n second %v", first, second)
	}
}

func TestCleanPhrase(t *testing.T) {
	tests := map[string]string{
		`  "Blue  Sky." `: "blue sky",
		"C++":             "c++",
		"#travel":         "travel",
		"'quoted'":        "quoted",
		"-- ":             "",
	}
	for in, want := range tests {
		if got := CleanPhrase(in); got != want {
			t.Errorf("CleanPhrase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitRaw(t *testing.T) {
	got := SplitRaw("a, b;c\n\nd,, ")
	want := []string{"a", " b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitRaw = %q, want %q", got, want)
	}
}
