package store

import (
	"sort"

	"github.com/webmark/webmark/internal/domain"
)

// Query filters the record set and returns a page sorted by creation
// time, newest first. Pure read; never mutates the store.
func (s *Store) Query(filters domain.SearchFilters) *domain.SearchResult {
	s.mu.Lock()
	total := len(s.records)
	matched := make([]*domain.Highlight, 0, total)
	for _, h := range s.records {
		if filters.Matches(h) {
			matched = append(matched, copyHighlight(h))
		}
	}
	s.mu.Unlock()

	sortNewestFirst(matched)

	result := &domain.SearchResult{Total: total}
	if filters.Limit <= 0 {
		result.Highlights = matched
		return result
	}

	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		result.Highlights = []*domain.Highlight{}
		return result
	}
	end := offset + filters.Limit
	if end > len(matched) {
		end = len(matched)
	}
	result.Highlights = matched[offset:end]
	result.HasMore = end < len(matched)
	return result
}

// Search is Query with a free-text keyword layered over filters.
func (s *Store) Search(query string, filters domain.SearchFilters) *domain.SearchResult {
	filters.Keyword = query
	return s.Query(filters)
}

// ListForURL returns every record for the exact resource, newest first.
func (s *Store) ListForURL(url string) []*domain.Highlight {
	s.mu.Lock()
	ids := s.urls.IDsFor(url)
	matched := make([]*domain.Highlight, 0, len(ids))
	for _, id := range ids {
		if h, ok := s.records[id]; ok {
			matched = append(matched, copyHighlight(h))
		}
	}
	s.mu.Unlock()

	sortNewestFirst(matched)
	return matched
}

// Get returns a copy of one record.
func (s *Store) Get(id string) (*domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.records[id]
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "highlight not found: %s", id)
	}
	return copyHighlight(h), nil
}

// Snapshot returns a copy of the full record map, keyed by id.
// Export and backup read through this.
func (s *Store) Snapshot() map[string]*domain.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*domain.Highlight, len(s.records))
	for id, h := range s.records {
		out[id] = copyHighlight(h)
	}
	return out
}

// sortNewestFirst orders by creation time descending, with the id as a
// deterministic tie-break for records created in the same millisecond.
func sortNewestFirst(hs []*domain.Highlight) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Timestamp != hs[j].Timestamp {
			return hs[i].Timestamp > hs[j].Timestamp
		}
		return hs[i].ID > hs[j].ID
	})
}
