// Package redis persists the highlight store's three snapshots to a
// Redis backend under fixed keys.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webmark/webmark/internal/domain"
)

// Persistence implements store.Persistence over a Redis client.
type Persistence struct {
	client *redis.Client
}

// NewPersistence wraps an already-connected client.
func NewPersistence(client *redis.Client) *Persistence {
	return &Persistence{client: client}
}

// Load fetches the three snapshots in one round trip. Absent keys come
// back as nil values so a first run starts from defaults.
func (p *Persistence) Load(ctx context.Context) (map[string]*domain.Highlight, *domain.Settings, *domain.Stats, error) {
	values, err := p.client.MGet(ctx, KeyHighlights, KeySettings, KeyStats).Result()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	var records map[string]*domain.Highlight
	if raw, ok := values[0].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode highlights snapshot: %w", err)
		}
	}

	var settings *domain.Settings
	if raw, ok := values[1].(string); ok && raw != "" {
		settings = &domain.Settings{}
		if err := json.Unmarshal([]byte(raw), settings); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode settings snapshot: %w", err)
		}
	}

	var stats *domain.Stats
	if raw, ok := values[2].(string); ok && raw != "" {
		stats = &domain.Stats{}
		if err := json.Unmarshal([]byte(raw), stats); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode stats snapshot: %w", err)
		}
	}

	return records, settings, stats, nil
}

// SaveHighlights writes the full record map. The store mutates a
// handful of records at a time but the snapshot stays small (bounded by
// the capacity ceiling), so whole-map writes keep the format trivial.
func (p *Persistence) SaveHighlights(ctx context.Context, records map[string]*domain.Highlight) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal highlights: %w", err)
	}
	if err := p.client.Set(ctx, KeyHighlights, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save highlights: %w", err)
	}
	return nil
}

// SaveSettings writes the settings singleton.
func (p *Persistence) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := p.client.Set(ctx, KeySettings, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SaveStats writes the stats singleton.
func (p *Persistence) SaveStats(ctx context.Context, stats *domain.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := p.client.Set(ctx, KeyStats, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// Clear deletes the three snapshot keys in one pipeline.
func (p *Persistence) Clear(ctx context.Context) error {
	pipe := p.client.Pipeline()
	pipe.Del(ctx, KeyHighlights)
	pipe.Del(ctx, KeySettings)
	pipe.Del(ctx, KeyStats)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// SaveBackup writes a dated backup snapshot with the given TTL.
// Zero TTL keeps the backup forever.
func (p *Persistence) SaveBackup(ctx context.Context, date string, payload []byte, ttlSeconds int) error {
	if err := p.client.Set(ctx, BackupKey(date), payload, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to save backup: %w", err)
	}
	return nil
}

// LoadBackup reads a dated backup snapshot. Returns nil when absent.
func (p *Persistence) LoadBackup(ctx context.Context, date string) ([]byte, error) {
	data, err := p.client.Get(ctx, BackupKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}
	return data, nil
}
