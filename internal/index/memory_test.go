package index

import (
	"testing"

	"github.com/webmark/webmark/internal/domain"
)

func TestURLIndexAddRemove(t *testing.T) {
	idx := NewURLIndex()

	idx.Add("https://example.com/a", "highlight_1")
	idx.Add("https://example.com/a", "highlight_2")
	idx.Add("https://example.com/b", "highlight_3")

	if got := idx.CountFor("https://example.com/a"); got != 2 {
		t.Errorf("CountFor(a) = %d, want 2", got)
	}
	if got := idx.CountFor("https://example.com/b"); got != 1 {
		t.Errorf("CountFor(b) = %d, want 1", got)
	}
	if got := idx.URLCount(); got != 2 {
		t.Errorf("URLCount() = %d, want 2", got)
	}

	idx.Remove("https://example.com/a", "highlight_1")
	if got := idx.CountFor("https://example.com/a"); got != 1 {
		t.Errorf("CountFor(a) after remove = %d, want 1", got)
	}

	// Removing the last id drops the URL bucket entirely.
	idx.Remove("https://example.com/b", "highlight_3")
	if got := idx.URLCount(); got != 1 {
		t.Errorf("URLCount() after emptying b = %d, want 1", got)
	}

	// Removing from an unknown URL is a no-op.
	idx.Remove("https://example.com/missing", "highlight_9")
}

func TestURLIndexIDsFor(t *testing.T) {
	idx := NewURLIndex()

	if ids := idx.IDsFor("https://example.com"); ids != nil {
		t.Errorf("IDsFor on empty index = %v, want nil", ids)
	}

	idx.Add("https://example.com", "highlight_1")
	idx.Add("https://example.com", "highlight_2")

	ids := idx.IDsFor("https://example.com")
	if len(ids) != 2 {
		t.Fatalf("IDsFor returned %d ids, want 2", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["highlight_1"] || !seen["highlight_2"] {
		t.Errorf("IDsFor = %v, missing expected ids", ids)
	}
}

func TestURLIndexRebuild(t *testing.T) {
	idx := NewURLIndex()
	idx.Add("https://stale.example.com", "highlight_0")

	records := map[string]*domain.Highlight{
		"highlight_1": {ID: "highlight_1", URL: "https://example.com/a"},
		"highlight_2": {ID: "highlight_2", URL: "https://example.com/a"},
		"highlight_3": {ID: "highlight_3", URL: "https://example.com/b"},
	}
	idx.Rebuild(records)

	if got := idx.CountFor("https://stale.example.com"); got != 0 {
		t.Errorf("stale URL survived rebuild, count = %d", got)
	}
	if got := idx.CountFor("https://example.com/a"); got != 2 {
		t.Errorf("CountFor(a) = %d, want 2", got)
	}
	if got := idx.URLCount(); got != 2 {
		t.Errorf("URLCount() = %d, want 2", got)
	}
}
