package export

import (
	"encoding/json"
	"time"

	"github.com/webmark/webmark/internal/domain"
)

// Import is a parsed import payload ready for the store.
type Import struct {
	Highlights map[string]*domain.Highlight
	Settings   *domain.Settings
	Skipped    int
}

// ParseImport validates and decodes an import payload. The payload must
// carry a highlights collection, either as a map keyed by id or as an
// array. Entries missing id, text or url are silently skipped; missing
// timestamps are filled in so imported records still sort.
func ParseImport(payload []byte) (*Import, error) {
	if len(payload) == 0 {
		return nil, domain.NewError(domain.CodeValidation,
			"import payload is empty")
	}

	var env struct {
		Highlights json.RawMessage  `json:"highlights"`
		Settings   *domain.Settings `json:"settings,omitempty"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, domain.NewError(domain.CodeValidation,
			"import payload is not valid JSON: %v", err)
	}
	if len(env.Highlights) == 0 || string(env.Highlights) == "null" {
		return nil, domain.NewError(domain.CodeValidation,
			"import payload is missing the highlights collection")
	}

	entries, err := decodeHighlights(env.Highlights)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := &Import{Highlights: make(map[string]*domain.Highlight, len(entries))}
	for _, h := range entries {
		if h == nil || h.ID == "" || h.Text == "" || h.URL == "" {
			out.Skipped++
			continue
		}
		if h.Timestamp == 0 {
			h.Timestamp = now.UnixMilli()
		}
		if h.CreatedAt.IsZero() {
			h.CreatedAt = now
		}
		if !h.Color.Valid() {
			h.Color = domain.DefaultColor
		}
		out.Highlights[h.ID] = h
	}
	out.Settings = env.Settings
	return out, nil
}

// decodeHighlights accepts both collection shapes the JSON backup has
// used: a map keyed by id, or a plain array.
func decodeHighlights(raw json.RawMessage) ([]*domain.Highlight, error) {
	var asMap map[string]*domain.Highlight
	if err := json.Unmarshal(raw, &asMap); err == nil {
		out := make([]*domain.Highlight, 0, len(asMap))
		for _, h := range asMap {
			out = append(out, h)
		}
		return out, nil
	}

	var asList []*domain.Highlight
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList, nil
	}

	return nil, domain.NewError(domain.CodeValidation,
		"highlights collection must be a map or an array")
}
