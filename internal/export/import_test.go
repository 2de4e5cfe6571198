package export

import (
	"testing"

	"github.com/webmark/webmark/internal/domain"
)

func TestParseImportRoundTrip(t *testing.T) {
	out, err := Export(sampleRecords(), domain.DefaultSettings(), domain.NewStats(), FormatJSON)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	parsed, err := ParseImport([]byte(out.Data))
	if err != nil {
		t.Fatalf("ParseImport() error = %v", err)
	}
	if len(parsed.Highlights) != 2 {
		t.Errorf("Highlights = %d, want 2", len(parsed.Highlights))
	}
	if parsed.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", parsed.Skipped)
	}
	if parsed.Settings == nil {
		t.Error("Settings missing after round trip")
	}
	got := parsed.Highlights["highlight_1"]
	if got == nil || got.Text != "first highlight" || got.Color != domain.ColorYellow {
		t.Errorf("highlight_1 = %+v", got)
	}
}

func TestParseImportArrayShape(t *testing.T) {
	payload := `{"highlights": [
		{"id": "highlight_a", "text": "kept", "url": "https://example.com"},
		{"id": "", "text": "no id", "url": "https://example.com"},
		{"id": "highlight_b", "text": "", "url": "https://example.com"},
		{"id": "highlight_c", "text": "no url", "url": ""}
	]}`

	parsed, err := ParseImport([]byte(payload))
	if err != nil {
		t.Fatalf("ParseImport() error = %v", err)
	}
	if len(parsed.Highlights) != 1 {
		t.Errorf("Highlights = %d, want 1", len(parsed.Highlights))
	}
	if parsed.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", parsed.Skipped)
	}

	kept := parsed.Highlights["highlight_a"]
	if kept == nil {
		t.Fatal("highlight_a missing")
	}
	// Absent fields are defaulted so the record still sorts and renders.
	if kept.Timestamp == 0 {
		t.Error("Timestamp not defaulted")
	}
	if kept.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}
	if kept.Color != domain.DefaultColor {
		t.Errorf("Color = %v, want default", kept.Color)
	}
}

func TestParseImportRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "not json", payload: "{nope"},
		{name: "no highlights key", payload: `{"settings": {}}`},
		{name: "null highlights", payload: `{"highlights": null}`},
		{name: "wrong collection shape", payload: `{"highlights": "a string"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tt.payload))
			if err == nil {
				t.Fatal("ParseImport() should fail")
			}
			if !domain.IsCode(err, domain.CodeValidation) {
				t.Errorf("error code = %v, want %v", domain.ErrorCode(err), domain.CodeValidation)
			}
		})
	}
}
