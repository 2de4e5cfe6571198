package domain

import "time"

const (
	// MaxTextLength is the maximum captured text length for a highlight.
	MaxTextLength = 500
	// MaxTotalHighlights is the global record ceiling.
	MaxTotalHighlights = 1000
	// MaxHighlightsPerURL is the per-page record ceiling.
	MaxHighlightsPerURL = 50
)

// Highlight represents one persisted mark on a web page.
//
// The store is the sole owner of Highlight records. Page contexts hold
// only ephemeral copies scoped to their own lifetime.
type Highlight struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, assigned by the store.
	// Example: highlight_5f8d7c1e-...
	ID string `json:"id"`

	// URL is the exact resource the mark belongs to.
	URL string `json:"url"`

	// ─────────────────────────────
	// Captured content
	// ─────────────────────────────

	// Text is the plain-text content captured at creation time.
	// It doubles as the anchor of last resort and never changes.
	Text string `json:"text"`

	// PageTitle is the document title at capture time.
	PageTitle string `json:"pageTitle,omitempty"`

	// Position locates the marked range inside the document.
	// Mutated only by the store's own re-anchoring, never by the UI.
	Position Position `json:"position"`

	// ─────────────────────────────
	// User-editable fields
	// ─────────────────────────────

	// Color is one of the fixed palette members.
	Color Color `json:"color"`

	// Note is optional free text attached to the mark.
	Note string `json:"note,omitempty"`

	// Tags is an optional set of labels.
	Tags []string `json:"tags,omitempty"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Timestamp is the creation time in Unix milliseconds.
	// Queries sort on it, newest first.
	Timestamp int64 `json:"timestamp"`

	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every mutation.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Position is the serialized locator for a highlighted text range.
//
// It layers three descriptors, most to least specific: a structural path
// to the container element, character offsets inside that container's
// text content, and the literal captured text. The literal text is
// always present even when the structural path no longer resolves.
type Position struct {
	// Path walks from the document root down to the container element.
	Path []PathStep `json:"path"`

	// StartOffset and EndOffset address characters within the
	// container's text content, [StartOffset, EndOffset).
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`

	// TextContent is the exact captured text of the range.
	TextContent string `json:"textContent"`
}

// PathStep identifies one element on the structural path: its tag name
// and its index among same-tag siblings under the parent.
type PathStep struct {
	Tag   string `json:"tag"`
	Index int    `json:"index"`
}

// Draft is a create request before the store assigns identity.
type Draft struct {
	URL       string   `json:"url" validate:"required,max=2048"`
	PageTitle string   `json:"pageTitle" validate:"max=512"`
	Text      string   `json:"text" validate:"required,max=500"`
	Color     Color    `json:"color" validate:"omitempty,highlightcolor"`
	Position  Position `json:"position"`
	Note      string   `json:"note" validate:"max=2000"`
	Tags      []string `json:"tags" validate:"max=16,dive,max=64"`
}

// Patch carries the user-mutable fields of an update request.
// Nil pointers mean "leave unchanged".
type Patch struct {
	Color *Color    `json:"color,omitempty"`
	Note  *string   `json:"note,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}
