package store

import (
	"context"
	"sync"

	"github.com/webmark/webmark/internal/domain"
)

// MemoryPersistence is an in-process Persistence used by tests and by
// standalone runs without a Redis backend. Snapshots are deep-copied on
// the way in and out so the store and the "durable" copy never alias.
type MemoryPersistence struct {
	mu       sync.Mutex
	records  map[string]*domain.Highlight
	settings *domain.Settings
	stats    *domain.Stats

	// FailWrites makes every save return an error; tests use it to
	// verify mutation rollback.
	FailWrites bool
}

// NewMemoryPersistence returns an empty in-memory backend.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (m *MemoryPersistence) Load(_ context.Context) (map[string]*domain.Highlight, *domain.Settings, *domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records map[string]*domain.Highlight
	if m.records != nil {
		records = make(map[string]*domain.Highlight, len(m.records))
		for id, h := range m.records {
			records[id] = copyHighlight(h)
		}
	}
	var settings *domain.Settings
	if m.settings != nil {
		cp := *m.settings
		settings = &cp
	}
	var stats *domain.Stats
	if m.stats != nil {
		stats = copyStats(m.stats)
	}
	return records, settings, stats, nil
}

func (m *MemoryPersistence) SaveHighlights(_ context.Context, records map[string]*domain.Highlight) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errWriteFailed
	}
	cp := make(map[string]*domain.Highlight, len(records))
	for id, h := range records {
		cp[id] = copyHighlight(h)
	}
	m.records = cp
	return nil
}

func (m *MemoryPersistence) SaveSettings(_ context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errWriteFailed
	}
	cp := *settings
	m.settings = &cp
	return nil
}

func (m *MemoryPersistence) SaveStats(_ context.Context, stats *domain.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errWriteFailed
	}
	m.stats = copyStats(stats)
	return nil
}

func (m *MemoryPersistence) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errWriteFailed
	}
	m.records = nil
	m.settings = nil
	m.stats = nil
	return nil
}

// StoredCount reports how many records the backend currently holds.
func (m *MemoryPersistence) StoredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var errWriteFailed = domain.NewError(domain.CodeTransport, "persistence write failed")
