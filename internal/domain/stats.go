package domain

import "time"

// Stats is the installation-wide aggregate counters singleton.
type Stats struct {
	// TotalHighlights counts live records.
	TotalHighlights int `json:"totalHighlights"`

	// TotalNotes counts live records carrying a non-empty note.
	TotalNotes int `json:"totalNotes"`

	// ColorUsage counts records per palette member.
	ColorUsage map[Color]int `json:"colorUsage"`

	// URLStats counts records per resource.
	URLStats map[string]int `json:"urlStats"`

	// DailyActivity counts creations per day, keyed YYYY-MM-DD.
	DailyActivity map[string]int `json:"dailyActivity"`

	// LastUpdate is the Unix-millisecond time of the last mutation.
	LastUpdate int64 `json:"lastUpdate"`
}

// NewStats returns zeroed counters with allocated maps.
func NewStats() *Stats {
	return &Stats{
		ColorUsage:    make(map[Color]int),
		URLStats:      make(map[string]int),
		DailyActivity: make(map[string]int),
	}
}

// RecordCreate accounts for a newly created highlight.
func (s *Stats) RecordCreate(h *Highlight, now time.Time) {
	s.ensureMaps()
	s.TotalHighlights++
	if h.Note != "" {
		s.TotalNotes++
	}
	s.ColorUsage[h.Color]++
	s.URLStats[h.URL]++
	s.DailyActivity[now.Format("2006-01-02")]++
	s.LastUpdate = now.UnixMilli()
}

// RecordDelete accounts for a removed highlight.
func (s *Stats) RecordDelete(h *Highlight, now time.Time) {
	s.ensureMaps()
	if s.TotalHighlights > 0 {
		s.TotalHighlights--
	}
	if h.Note != "" && s.TotalNotes > 0 {
		s.TotalNotes--
	}
	if s.ColorUsage[h.Color] > 0 {
		s.ColorUsage[h.Color]--
	}
	if s.URLStats[h.URL] > 1 {
		s.URLStats[h.URL]--
	} else {
		delete(s.URLStats, h.URL)
	}
	s.LastUpdate = now.UnixMilli()
}

// Rebuild recomputes every counter from the full record set.
// Used after imports and clears, where incremental accounting drifts.
func (s *Stats) Rebuild(records map[string]*Highlight, now time.Time) {
	fresh := NewStats()
	fresh.DailyActivity = s.DailyActivity
	if fresh.DailyActivity == nil {
		fresh.DailyActivity = make(map[string]int)
	}
	for _, h := range records {
		fresh.TotalHighlights++
		if h.Note != "" {
			fresh.TotalNotes++
		}
		fresh.ColorUsage[h.Color]++
		fresh.URLStats[h.URL]++
	}
	fresh.LastUpdate = now.UnixMilli()
	*s = *fresh
}

func (s *Stats) ensureMaps() {
	if s.ColorUsage == nil {
		s.ColorUsage = make(map[Color]int)
	}
	if s.URLStats == nil {
		s.URLStats = make(map[string]int)
	}
	if s.DailyActivity == nil {
		s.DailyActivity = make(map[string]int)
	}
}
