package broker

import (
	"encoding/json"
	"time"

	"github.com/webmark/webmark/internal/domain"
)

// Operation tags carried by requests. Every request resolves to exactly
// one Response; unknown tags get a success:false response rather than
// silence, so callers never hang on an unresolved request.
const (
	OpCreateHighlight     = "CREATE_HIGHLIGHT"
	OpGetHighlightsForURL = "GET_HIGHLIGHTS_FOR_URL"
	OpDeleteHighlight     = "DELETE_HIGHLIGHT"
	OpUpdateHighlight     = "UPDATE_HIGHLIGHT"
	OpGetAllHighlights    = "GET_ALL_HIGHLIGHTS"
	OpSearchHighlights    = "SEARCH_HIGHLIGHTS"
	OpGetSettings         = "GET_SETTINGS"
	OpUpdateSettings      = "UPDATE_SETTINGS"
	OpGetStats            = "GET_STATS"
	OpExportData          = "EXPORT_DATA"
	OpImportData          = "IMPORT_DATA"
	OpClearData           = "CLEAR_DATA"
	OpQuickHighlight      = "QUICK_HIGHLIGHT"
	OpToggleHighlight     = "TOGGLE_HIGHLIGHT"
)

// Notification tags broadcast to page contexts after mutations.
const (
	NoteHighlightCreated = "HIGHLIGHT_CREATED"
	NoteHighlightUpdated = "HIGHLIGHT_UPDATED"
	NoteHighlightDeleted = "HIGHLIGHT_DELETED"
)

// Message is the request envelope. Type selects the operation; the
// remaining fields are operation-specific payload and stay zero for
// operations that do not use them.
type Message struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	// CREATE_HIGHLIGHT, IMPORT_DATA
	Data json.RawMessage `json:"data,omitempty"`

	// GET_HIGHLIGHTS_FOR_URL, QUICK_HIGHLIGHT
	URL string `json:"url,omitempty"`

	// DELETE_HIGHLIGHT, UPDATE_HIGHLIGHT
	HighlightID string        `json:"highlightId,omitempty"`
	Updates     *domain.Patch `json:"updates,omitempty"`

	// GET_ALL_HIGHLIGHTS, SEARCH_HIGHLIGHTS
	Filters *domain.SearchFilters `json:"filters,omitempty"`
	Query   string                `json:"query,omitempty"`

	// UPDATE_SETTINGS
	Settings *domain.SettingsPatch `json:"settings,omitempty"`

	// EXPORT_DATA
	Format string `json:"format,omitempty"`

	// IMPORT_DATA
	Merge bool `json:"merge,omitempty"`

	// CLEAR_DATA
	ConfirmToken string `json:"confirmToken,omitempty"`

	// QUICK_HIGHLIGHT
	Text      string       `json:"text,omitempty"`
	Color     domain.Color `json:"color,omitempty"`
	PageTitle string       `json:"pageTitle,omitempty"`
}

// Response is the only reply shape: success with data, or failure with
// an error message and optional machine code. No partial success.
type Response struct {
	Success   bool        `json:"success"`
	Data      any         `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode domain.Code `json:"errorCode,omitempty"`
	Timestamp int64       `json:"timestamp"`
	RequestID string      `json:"requestId,omitempty"`
}

// Notification is the broadcast envelope for record changes.
type Notification struct {
	Type        string            `json:"type"`
	Data        *domain.Highlight `json:"data,omitempty"`
	HighlightID string            `json:"highlightId,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}

func ok(requestID string, data any) Response {
	return Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	}
}

func fail(requestID string, err error) Response {
	return Response{
		Success:   false,
		Error:     err.Error(),
		ErrorCode: domain.ErrorCode(err),
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	}
}
