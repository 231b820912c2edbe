package analytics

// Report is the JSON-friendly summary of a batch.
type Report struct {
	Images     int64           `json:"images"`
	Categories []CategoryCount `json:"categories"`
	Top        []KeywordStat   `json:"top_keywords"`
	Overused   []KeywordStat   `json:"overused_keywords"`
	Pairs      []PairStat      `json:"pairs"`
}

// Summarize builds a report with at most limit entries per list.
func (s Stats) Summarize(limit int, th Thresholds) Report {
	top := s.Keywords()
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return Report{
		Images:     s.Images,
		Categories: s.CategoryDistribution(),
		Top:        top,
		Overused:   s.Overused(th),
		Pairs:      s.TopPairs(limit, 2),
	}
}
