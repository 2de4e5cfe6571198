package domain

// DateRange bounds a query by creation time, inclusive on both ends,
// expressed in Unix milliseconds like Highlight.Timestamp.
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SearchFilters narrows a highlight query. Zero values mean "no
// constraint" for every field.
type SearchFilters struct {
	// Color matches exactly.
	Color Color `json:"color,omitempty"`

	// URL matches as a substring of the record's URL.
	URL string `json:"url,omitempty"`

	// Keyword matches case-insensitively against Text and PageTitle.
	Keyword string `json:"keyword,omitempty"`

	// Tags requires every listed tag to be present on the record.
	Tags []string `json:"tags,omitempty"`

	// DateRange bounds Timestamp inclusively.
	DateRange *DateRange `json:"dateRange,omitempty"`

	// Limit and Offset paginate the sorted result. Limit 0 disables
	// pagination and returns everything.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SearchResult is a page of query results.
type SearchResult struct {
	Highlights []*Highlight `json:"highlights"`

	// Total is the store-wide record count, not the filtered count.
	Total int `json:"total"`

	// HasMore reports whether a larger Offset would yield more rows.
	// Only meaningful when the query carried a Limit.
	HasMore bool `json:"hasMore"`
}

// Matches reports whether h satisfies every constraint in f,
// ignoring pagination.
func (f SearchFilters) Matches(h *Highlight) bool {
	if f.Color != "" && h.Color != f.Color {
		return false
	}
	if f.URL != "" && !containsFold(h.URL, f.URL, false) {
		return false
	}
	if f.Keyword != "" &&
		!containsFold(h.Text, f.Keyword, true) &&
		!containsFold(h.PageTitle, f.Keyword, true) {
		return false
	}
	if f.DateRange != nil {
		if h.Timestamp < f.DateRange.Start || h.Timestamp > f.DateRange.End {
			return false
		}
	}
	for _, want := range f.Tags {
		if !hasTag(h.Tags, want) {
			return false
		}
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
