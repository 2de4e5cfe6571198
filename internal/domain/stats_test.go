package domain

import (
	"testing"
	"time"
)

func TestStatsRecordCreateAndDelete(t *testing.T) {
	s := NewStats()
	now := time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)

	a := &Highlight{ID: "a", URL: "https://example.com/x", Color: ColorYellow, Note: "remember this"}
	b := &Highlight{ID: "b", URL: "https://example.com/x", Color: ColorGreen}

	s.RecordCreate(a, now)
	s.RecordCreate(b, now)

	if s.TotalHighlights != 2 {
		t.Errorf("TotalHighlights = %d, want 2", s.TotalHighlights)
	}
	if s.TotalNotes != 1 {
		t.Errorf("TotalNotes = %d, want 1", s.TotalNotes)
	}
	if s.ColorUsage[ColorYellow] != 1 || s.ColorUsage[ColorGreen] != 1 {
		t.Errorf("ColorUsage = %v", s.ColorUsage)
	}
	if s.URLStats["https://example.com/x"] != 2 {
		t.Errorf("URLStats = %v", s.URLStats)
	}
	if s.DailyActivity["2025-05-02"] != 2 {
		t.Errorf("DailyActivity = %v", s.DailyActivity)
	}
	if s.LastUpdate != now.UnixMilli() {
		t.Errorf("LastUpdate = %d, want %d", s.LastUpdate, now.UnixMilli())
	}

	s.RecordDelete(a, now.Add(time.Minute))

	if s.TotalHighlights != 1 {
		t.Errorf("TotalHighlights after delete = %d, want 1", s.TotalHighlights)
	}
	if s.TotalNotes != 0 {
		t.Errorf("TotalNotes after delete = %d, want 0", s.TotalNotes)
	}
	if s.URLStats["https://example.com/x"] != 1 {
		t.Errorf("URLStats after delete = %v", s.URLStats)
	}

	// Deleting the last record for a URL removes the bucket.
	s.RecordDelete(b, now.Add(2*time.Minute))
	if _, ok := s.URLStats["https://example.com/x"]; ok {
		t.Errorf("URLStats kept empty bucket: %v", s.URLStats)
	}
}

func TestStatsRebuild(t *testing.T) {
	s := NewStats()
	now := time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)
	s.DailyActivity["2025-04-01"] = 7

	records := map[string]*Highlight{
		"a": {ID: "a", URL: "https://example.com/x", Color: ColorYellow, Note: "kept"},
		"b": {ID: "b", URL: "https://example.com/y", Color: ColorYellow},
		"c": {ID: "c", URL: "https://example.com/y", Color: ColorBlue},
	}

	s.Rebuild(records, now)

	if s.TotalHighlights != 3 {
		t.Errorf("TotalHighlights = %d, want 3", s.TotalHighlights)
	}
	if s.TotalNotes != 1 {
		t.Errorf("TotalNotes = %d, want 1", s.TotalNotes)
	}
	if s.ColorUsage[ColorYellow] != 2 || s.ColorUsage[ColorBlue] != 1 {
		t.Errorf("ColorUsage = %v", s.ColorUsage)
	}
	if s.URLStats["https://example.com/y"] != 2 {
		t.Errorf("URLStats = %v", s.URLStats)
	}
	// Historical activity survives a rebuild.
	if s.DailyActivity["2025-04-01"] != 7 {
		t.Errorf("DailyActivity lost history: %v", s.DailyActivity)
	}
}
