// Package index keeps an in-memory lookup from page URL to highlight
// ids, so per-page reads and the per-page ceiling check stay cheap.
package index

import (
	"sync"

	"github.com/webmark/webmark/internal/domain"
)

// URLIndex maps a page URL to the set of highlight ids anchored on it.
// The store rebuilds it on load and maintains it on every mutation.
type URLIndex struct {
	mu    sync.RWMutex
	byURL map[string]map[string]struct{} // URL -> set of highlight IDs
}

// NewURLIndex creates an empty index.
func NewURLIndex() *URLIndex {
	return &URLIndex{
		byURL: make(map[string]map[string]struct{}),
	}
}

// Rebuild replaces the whole index from a record map.
func (idx *URLIndex) Rebuild(records map[string]*domain.Highlight) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.byURL = make(map[string]map[string]struct{}, len(records))
	for id, h := range records {
		set, ok := idx.byURL[h.URL]
		if !ok {
			set = make(map[string]struct{})
			idx.byURL[h.URL] = set
		}
		set[id] = struct{}{}
	}
}

// Add registers one highlight id under its URL.
func (idx *URLIndex) Add(url, id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	set, ok := idx.byURL[url]
	if !ok {
		set = make(map[string]struct{})
		idx.byURL[url] = set
	}
	set[id] = struct{}{}
}

// Remove drops one highlight id. Empty URL buckets are removed so the
// index never outgrows the record set.
func (idx *URLIndex) Remove(url, id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	set, ok := idx.byURL[url]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx.byURL, url)
	}
}

// IDsFor returns the highlight ids anchored on the URL.
func (idx *URLIndex) IDsFor(url string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	set, ok := idx.byURL[url]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// CountFor returns the number of highlights anchored on the URL.
func (idx *URLIndex) CountFor(url string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.byURL[url])
}

// URLCount returns the number of distinct URLs carrying highlights.
func (idx *URLIndex) URLCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.byURL)
}
