// Package analytics aggregates keyword and category statistics over
// processed images, e.g. to spot keywords that appear on nearly every
// image of a batch and carry no signal.
package analytics

import (
	"math"
	"sort"

	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// Analyzer aggregates per-image keyword/category stats. Not safe for
// concurrent use.
type Analyzer struct {
	images     int64
	keywordDF  map[string]int64
	keywordCat map[string]map[int]int64
	pairCounts map[pair]int64 // image-level co-occurrence
	categories map[int]int64
	names      map[int]string
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		keywordDF:  make(map[string]int64),
		keywordCat: make(map[string]map[int]int64),
		pairCounts: make(map[pair]int64),
		categories: make(map[int]int64),
		names:      make(map[int]string),
	}
}

// Add consumes one image's final keywords and category.
func (a *Analyzer) Add(keywords []string, code int, name string) {
	a.images++
	a.categories[code]++
	if name != "" {
		a.names[code] = name
	}

	unique := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		unique = append(unique, kw)

		a.keywordDF[kw]++
		if a.keywordCat[kw] == nil {
			a.keywordCat[kw] = make(map[int]int64)
		}
		a.keywordCat[kw][code]++
	}

	sort.Strings(unique)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a.pairCounts[pair{A: unique[i], B: unique[j]}]++
		}
	}
}

// AddRecords consumes completed metadata records; others are skipped.
func (a *Analyzer) AddRecords(records []store.Record) {
	for _, r := range records {
		if r.Status != store.StatusCompleted || len(r.Keywords) == 0 {
			continue
		}
		a.Add(r.Keywords, r.CategoryCode, r.CategoryName)
	}
}

// Stats exposes the aggregated counts.
type Stats struct {
	Images     int64
	KeywordDF  map[string]int64
	KeywordCat map[string]map[int]int64
	PairCounts map[pair]int64
	Categories map[int]int64
	Names      map[int]string
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	cats := make(map[string]map[int]int64, len(a.keywordCat))
	for kw, m := range a.keywordCat {
		cats[kw] = make(map[int]int64, len(m))
		for code, n := range m {
			cats[kw][code] = n
		}
	}
	df := make(map[string]int64, len(a.keywordDF))
	for kw, n := range a.keywordDF {
		df[kw] = n
	}
	pairs := make(map[pair]int64, len(a.pairCounts))
	for p, n := range a.pairCounts {
		pairs[p] = n
	}
	categories := make(map[int]int64, len(a.categories))
	for code, n := range a.categories {
		categories[code] = n
	}
	names := make(map[int]string, len(a.names))
	for code, n := range a.names {
		names[code] = n
	}
	return Stats{
		Images:     a.images,
		KeywordDF:  df,
		KeywordCat: cats,
		PairCounts: pairs,
		Categories: categories,
		Names:      names,
	}
}

// KeywordStat describes one keyword across the analyzed images.
type KeywordStat struct {
	Keyword    string  `json:"keyword"`
	DF         int64   `json:"df"`          // images carrying the keyword
	DFPercent  float64 `json:"df_percent"`  // DF as a share of all images
	PMIMax     float64 `json:"pmi_max"`     // strongest association with another keyword
	CatEntropy float64 `json:"cat_entropy"` // 0 = one category, 1 = spread evenly
}

// Keywords returns per-keyword stats sorted by DF, then keyword.
func (s Stats) Keywords() []KeywordStat {
	if s.Images == 0 {
		return nil
	}

	pmiMax := make(map[string]float64)
	for p, count := range s.PairCounts {
		pmi := computePMI(count, s.KeywordDF[p.A], s.KeywordDF[p.B], s.Images)
		if pmi > pmiMax[p.A] {
			pmiMax[p.A] = pmi
		}
		if pmi > pmiMax[p.B] {
			pmiMax[p.B] = pmi
		}
	}

	out := make([]KeywordStat, 0, len(s.KeywordDF))
	for kw, df := range s.KeywordDF {
		out = append(out, KeywordStat{
			Keyword:    kw,
			DF:         df,
			DFPercent:  100 * float64(df) / float64(s.Images),
			PMIMax:     pmiMax[kw],
			CatEntropy: entropy(s.KeywordCat[kw]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DF != out[j].DF {
			return out[i].DF > out[j].DF
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// Thresholds select overused keywords.
type Thresholds struct {
	MinImages     int64   // ignore batches smaller than this
	MinDFPercent  float64 // keyword on at least this share of images
	MinCatEntropy float64 // and spread over categories at least this evenly
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinImages: 5, MinDFPercent: 80, MinCatEntropy: 0.3}
}

// Overused returns keywords present on most images regardless of category.
// They are candidates for the stopword or banned lists.
func (s Stats) Overused(th Thresholds) []KeywordStat {
	if s.Images < th.MinImages {
		return nil
	}
	var out []KeywordStat
	for _, k := range s.Keywords() {
		if k.DFPercent >= th.MinDFPercent && k.CatEntropy >= th.MinCatEntropy {
			out = append(out, k)
		}
	}
	return out
}

// PairStat describes two keywords that travel together.
type PairStat struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	PMI     float64 `json:"pmi"`
	Support int64   `json:"support"` // images carrying both
}

// TopPairs returns co-occurring keyword pairs with support >= minSupport,
// strongest PMI first.
func (s Stats) TopPairs(limit int, minSupport int64) []PairStat {
	var out []PairStat
	for p, count := range s.PairCounts {
		if count < minSupport {
			continue
		}
		out = append(out, PairStat{
			A:       p.A,
			B:       p.B,
			PMI:     computePMI(count, s.KeywordDF[p.A], s.KeywordDF[p.B], s.Images),
			Support: count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PMI != out[j].PMI {
			return out[i].PMI > out[j].PMI
		}
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CategoryCount is the number of images assigned a category.
type CategoryCount struct {
	Code   int    `json:"code"`
	Name   string `json:"name,omitempty"`
	Images int64  `json:"images"`
}

// CategoryDistribution returns categories by image count, then code.
func (s Stats) CategoryDistribution() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Categories))
	for code, n := range s.Categories {
		out = append(out, CategoryCount{Code: code, Name: s.Names[code], Images: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Images != out[j].Images {
			return out[i].Images > out[j].Images
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func entropy(counts map[int]int64) float64 {
	if len(counts) == 0 {
		return 0
	}
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(len(counts))+1)
}

// computePMI uses add-one smoothing so tiny batches stay finite.
func computePMI(pairCount, dfA, dfB, total int64) float64 {
	if dfA == 0 || dfB == 0 || total == 0 {
		return 0
	}
	smooth := 1.0
	numerator := (float64(pairCount) + smooth) / float64(total)
	denominator := ((float64(dfA) + smooth) / float64(total)) * ((float64(dfB) + smooth) / float64(total))
	return math.Log(numerator / denominator)
}

type pair struct {
	A string
	B string
}
