// Package store owns the authoritative highlight record state.
//
// All mutations run to completion under one lock and are persisted
// before the call returns, so callers never observe a record as
// created, updated or deleted before it is durable.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webmark/webmark/internal/domain"
	"github.com/webmark/webmark/internal/index"
	"github.com/webmark/webmark/internal/logger"
)

// Persistence is the durable key-value collaborator. Implementations
// persist the three fixed snapshots: records, settings and stats.
type Persistence interface {
	Load(ctx context.Context) (map[string]*domain.Highlight, *domain.Settings, *domain.Stats, error)
	SaveHighlights(ctx context.Context, records map[string]*domain.Highlight) error
	SaveSettings(ctx context.Context, settings *domain.Settings) error
	SaveStats(ctx context.Context, stats *domain.Stats) error
	Clear(ctx context.Context) error
}

// Notifier receives fan-out notifications after successful mutations.
type Notifier interface {
	HighlightCreated(h *domain.Highlight)
	HighlightUpdated(h *domain.Highlight)
	HighlightDeleted(h *domain.Highlight)
}

// Limits bounds the record population.
type Limits struct {
	MaxTotal  int // global record ceiling
	MaxPerURL int // per-resource ceiling
}

// DefaultLimits mirrors the domain constants.
func DefaultLimits() Limits {
	return Limits{
		MaxTotal:  domain.MaxTotalHighlights,
		MaxPerURL: domain.MaxHighlightsPerURL,
	}
}

// Store is the single process-wide owner of highlight records.
type Store struct {
	mu       sync.Mutex
	records  map[string]*domain.Highlight
	settings *domain.Settings
	stats    *domain.Stats

	persistence Persistence
	notifier    Notifier
	logger      logger.Logger
	limits      Limits
	urls        *index.URLIndex
	now         func() time.Time
}

// New creates an empty store around the given persistence collaborator.
func New(p Persistence, log logger.Logger, limits Limits) *Store {
	if limits.MaxTotal <= 0 {
		limits.MaxTotal = domain.MaxTotalHighlights
	}
	if limits.MaxPerURL <= 0 {
		limits.MaxPerURL = domain.MaxHighlightsPerURL
	}
	return &Store{
		records:     make(map[string]*domain.Highlight),
		settings:    domain.DefaultSettings(),
		stats:       domain.NewStats(),
		persistence: p,
		logger:      log,
		limits:      limits,
		urls:        index.NewURLIndex(),
		now:         time.Now,
	}
}

// SetNotifier attaches the fan-out sink. Called once at wiring time,
// before any mutation traffic.
func (s *Store) SetNotifier(n Notifier) {
	s.notifier = n
}

// SeedSettings replaces the default settings, typically with values
// from an operator-provided file. Call before Load: settings persisted
// through the API still win over the seed.
func (s *Store) SeedSettings(settings *domain.Settings) {
	if settings == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Load replaces in-memory state with the persisted snapshot. Missing
// snapshots leave the defaults in place (first run).
func (s *Store) Load(ctx context.Context) error {
	records, settings, stats, err := s.persistence.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if records != nil {
		s.records = records
	}
	if settings != nil {
		s.settings = settings
	}
	if stats != nil {
		s.stats = stats
	}
	s.urls.Rebuild(s.records)

	s.logger.Info("store loaded",
		logger.Int("highlights", len(s.records)))
	return nil
}

// Create validates the draft, enforces both capacity ceilings, assigns
// identity and timestamps, persists, and returns the canonical record.
func (s *Store) Create(ctx context.Context, draft *domain.Draft) (*domain.Highlight, error) {
	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.limits.MaxTotal {
		return nil, domain.NewError(domain.CodeCapacityExceeded,
			"highlight limit reached (%d); export and clear to free space", s.limits.MaxTotal)
	}
	if s.countForURLLocked(draft.URL) >= s.limits.MaxPerURL {
		return nil, domain.NewError(domain.CodeCapacityExceeded,
			"per-page highlight limit reached (%d) for %s", s.limits.MaxPerURL, draft.URL)
	}

	color := draft.Color
	if color == "" {
		color = s.settings.DefaultColor
	}

	now := s.now()
	h := &domain.Highlight{
		ID:        newID(),
		URL:       draft.URL,
		PageTitle: draft.PageTitle,
		Text:      draft.Text,
		Color:     color,
		Position:  draft.Position,
		Note:      draft.Note,
		Tags:      append([]string(nil), draft.Tags...),
		Timestamp: now.UnixMilli(),
		CreatedAt: now,
	}

	s.records[h.ID] = h
	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		delete(s.records, h.ID)
		return nil, fmt.Errorf("failed to persist highlight: %w", err)
	}
	s.urls.Add(h.URL, h.ID)

	s.stats.RecordCreate(h, now)
	s.saveStatsBestEffort(ctx)

	if s.notifier != nil {
		s.notifier.HighlightCreated(copyHighlight(h))
	}
	return copyHighlight(h), nil
}

// Update merges the permitted fields of patch into the record,
// persists, and returns the updated record.
func (s *Store) Update(ctx context.Context, id string, patch *domain.Patch) (*domain.Highlight, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.records[id]
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "highlight not found: %s", id)
	}

	prev := *h
	hadNote := h.Note != ""
	if patch.Color != nil {
		h.Color = *patch.Color
	}
	if patch.Note != nil {
		h.Note = *patch.Note
	}
	if patch.Tags != nil {
		h.Tags = append([]string(nil), (*patch.Tags)...)
	}
	now := s.now()
	h.UpdatedAt = now

	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		*h = prev
		return nil, fmt.Errorf("failed to persist highlight update: %w", err)
	}

	// Stats only account for durable changes, so they move after the
	// persist call.
	if h.Color != prev.Color {
		if s.stats.ColorUsage[prev.Color] > 0 {
			s.stats.ColorUsage[prev.Color]--
		}
		s.stats.ColorUsage[h.Color]++
	}
	if hadNote != (h.Note != "") {
		if h.Note != "" {
			s.stats.TotalNotes++
		} else if s.stats.TotalNotes > 0 {
			s.stats.TotalNotes--
		}
	}
	s.stats.LastUpdate = now.UnixMilli()
	s.saveStatsBestEffort(ctx)

	if s.notifier != nil {
		s.notifier.HighlightUpdated(copyHighlight(h))
	}
	return copyHighlight(h), nil
}

// ReAnchor records a locator that re-resolved at a drifted position.
// This is the only path that mutates Position; the UI never does.
func (s *Store) ReAnchor(ctx context.Context, id string, pos domain.Position) (*domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.records[id]
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "highlight not found: %s", id)
	}

	prev := h.Position
	prevUpdated := h.UpdatedAt
	h.Position = pos
	h.UpdatedAt = s.now()

	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		h.Position = prev
		h.UpdatedAt = prevUpdated
		return nil, fmt.Errorf("failed to persist re-anchored position: %w", err)
	}
	return copyHighlight(h), nil
}

// Delete removes the record and persists the shrunken snapshot.
func (s *Store) Delete(ctx context.Context, id string) (*domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.records[id]
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "highlight not found: %s", id)
	}

	delete(s.records, id)
	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		s.records[id] = h
		return nil, fmt.Errorf("failed to persist highlight deletion: %w", err)
	}
	s.urls.Remove(h.URL, h.ID)

	now := s.now()
	s.stats.RecordDelete(h, now)
	s.saveStatsBestEffort(ctx)

	if s.notifier != nil {
		s.notifier.HighlightDeleted(copyHighlight(h))
	}
	return copyHighlight(h), nil
}

// Clear wipes every record and resets settings and stats to their
// defaults. The token carries no meaning beyond explicit intent; an
// empty token refuses the wipe.
func (s *Store) Clear(ctx context.Context, confirmToken string) error {
	if strings.TrimSpace(confirmToken) == "" {
		return domain.NewError(domain.CodeMissingConfirmation,
			"clearing all data requires a confirmation token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistence.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted data: %w", err)
	}

	s.records = make(map[string]*domain.Highlight)
	s.urls.Rebuild(s.records)
	s.settings = domain.DefaultSettings()
	s.stats = domain.NewStats()
	s.stats.LastUpdate = s.now().UnixMilli()

	// Write a clean initial snapshot so a restart loads defaults, not
	// an absent key.
	if err := s.persistence.SaveSettings(ctx, s.settings); err != nil {
		return fmt.Errorf("failed to write initial settings: %w", err)
	}
	if err := s.persistence.SaveStats(ctx, s.stats); err != nil {
		return fmt.Errorf("failed to write initial stats: %w", err)
	}

	s.logger.Info("store cleared")
	return nil
}

// Replace swaps in an imported record set. When merge is true the
// imported records are layered over the existing ones; otherwise they
// replace them wholesale. Stats are rebuilt from scratch either way.
func (s *Store) Replace(ctx context.Context, imported map[string]*domain.Highlight, merge bool, settings *domain.Settings) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevRecords := s.records
	prevSettings := s.settings

	next := make(map[string]*domain.Highlight, len(imported))
	if merge {
		for id, h := range s.records {
			next[id] = h
		}
	}
	for id, h := range imported {
		next[id] = h
	}
	s.records = next
	if settings != nil && !merge {
		s.settings = settings
	}

	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		s.records = prevRecords
		s.settings = prevSettings
		return 0, fmt.Errorf("failed to persist imported highlights: %w", err)
	}
	if err := s.persistence.SaveSettings(ctx, s.settings); err != nil {
		s.logger.Warn("failed to persist imported settings", logger.Error(err))
	}
	s.urls.Rebuild(s.records)

	s.stats.Rebuild(s.records, s.now())
	s.saveStatsBestEffort(ctx)
	return len(imported), nil
}

// Count returns the live record count.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// GetSettings returns a copy of the current settings.
func (s *Store) GetSettings() *domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.settings
	return &cp
}

// UpdateSettings merges the patch, persists, and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := *s.settings
	s.settings.Merge(patch)
	if err := s.persistence.SaveSettings(ctx, s.settings); err != nil {
		*s.settings = prev
		return nil, fmt.Errorf("failed to persist settings: %w", err)
	}
	cp := *s.settings
	return &cp, nil
}

// GetStats returns a copy of the aggregate counters.
func (s *Store) GetStats() *domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStats(s.stats)
}

// Flush writes the current snapshots out. Called on shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistence.SaveHighlights(ctx, s.records); err != nil {
		return fmt.Errorf("failed to flush highlights: %w", err)
	}
	if err := s.persistence.SaveSettings(ctx, s.settings); err != nil {
		return fmt.Errorf("failed to flush settings: %w", err)
	}
	if err := s.persistence.SaveStats(ctx, s.stats); err != nil {
		return fmt.Errorf("failed to flush stats: %w", err)
	}
	return nil
}

func (s *Store) countForURLLocked(url string) int {
	return s.urls.CountFor(url)
}

func (s *Store) saveStatsBestEffort(ctx context.Context) {
	if err := s.persistence.SaveStats(ctx, s.stats); err != nil {
		s.logger.Warn("failed to persist stats", logger.Error(err))
	}
}

func newID() string {
	return "highlight_" + uuid.NewString()
}

func copyHighlight(h *domain.Highlight) *domain.Highlight {
	cp := *h
	cp.Tags = append([]string(nil), h.Tags...)
	cp.Position.Path = append([]domain.PathStep(nil), h.Position.Path...)
	return &cp
}

func copyStats(st *domain.Stats) *domain.Stats {
	cp := domain.NewStats()
	cp.TotalHighlights = st.TotalHighlights
	cp.TotalNotes = st.TotalNotes
	cp.LastUpdate = st.LastUpdate
	for k, v := range st.ColorUsage {
		cp.ColorUsage[k] = v
	}
	for k, v := range st.URLStats {
		cp.URLStats[k] = v
	}
	for k, v := range st.DailyActivity {
		cp.DailyActivity[k] = v
	}
	return cp
}
