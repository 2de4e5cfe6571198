// Package scheduler hosts the background loops that run next to the
// highlight store: periodic backup snapshots for now.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/webmark/webmark/internal/export"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/store"
)

// BackupSink receives dated backup payloads. The Redis persistence
// layer implements it; tests use an in-memory fake.
type BackupSink interface {
	SaveBackup(ctx context.Context, date string, payload []byte, ttlSeconds int) error
}

// BackupScheduler periodically serializes the store as a JSON backup
// and hands it to the sink under a dated key.
type BackupScheduler struct {
	store         *store.Store
	sink          BackupSink
	logger        logger.Logger
	interval      time.Duration
	ttl           time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBackupScheduler creates a new backup scheduler.
func NewBackupScheduler(
	st *store.Store,
	sink BackupSink,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
	manualTrigger chan struct{},
) *BackupScheduler {
	return &BackupScheduler{
		store:         st,
		sink:          sink,
		logger:        log,
		interval:      interval,
		ttl:           ttl,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic backup process.
func (bs *BackupScheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(bs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// The auto-backup toggle only gates the schedule,
				// manual triggers always run.
				if !bs.store.GetSettings().AutoBackup {
					continue
				}
				if err := bs.Backup(ctx); err != nil {
					bs.logger.Error("scheduled backup failed",
						logger.Error(err))
				}
			case <-bs.manualTrigger:
				bs.logger.Info("manual backup triggered")
				if err := bs.Backup(ctx); err != nil {
					bs.logger.Error("manual backup failed",
						logger.Error(err))
				}
			case <-bs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler.
func (bs *BackupScheduler) Stop() {
	close(bs.stopCh)
}

// Backup serializes the current snapshots and writes a dated backup.
func (bs *BackupScheduler) Backup(ctx context.Context) error {
	out, err := export.Export(bs.store.Snapshot(), bs.store.GetSettings(), bs.store.GetStats(), export.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to serialize backup: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	if err := bs.sink.SaveBackup(ctx, date, []byte(out.Data), int(bs.ttl.Seconds())); err != nil {
		return fmt.Errorf("failed to store backup: %w", err)
	}

	bs.logger.Info("backup snapshot written",
		logger.String("date", date),
		logger.Int("highlights", bs.store.Count()),
		logger.Int("bytes", out.Size))

	return nil
}
