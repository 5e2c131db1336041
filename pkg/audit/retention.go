package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes rows that expired before now and reports how many it removed.
type Sweeper func(now time.Time) (int64, error)

// RetentionWorker periodically cleans up old audit events, plus any
// additional sweepers registered with AddSweeper.
type RetentionWorker struct {
	store     *AuditStore
	retention time.Duration
	interval  time.Duration
	sweepers  map[string]Sweeper
	now       func() time.Time
	logger    *slog.Logger
}

// NewRetentionWorker creates a new RetentionWorker.
// retentionDays controls how many days of events to keep.
// The worker runs daily by default.
func NewRetentionWorker(store *AuditStore, retentionDays int, logger *slog.Logger) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionWorker{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  24 * time.Hour,
		sweepers:  map[string]Sweeper{},
		now:       time.Now,
		logger:    logger,
	}
}

// AddSweeper registers an extra cleanup run on every pass, such as expired
// token revocations.
func (w *RetentionWorker) AddSweeper(name string, fn Sweeper) {
	w.sweepers[name] = fn
}

// Run starts the retention worker. It runs until the context is cancelled.
func (w *RetentionWorker) Run(ctx context.Context) {
	if (w.store == nil || w.retention <= 0) && len(w.sweepers) == 0 {
		w.logger.Info("audit retention worker disabled",
			"hasStore", w.store != nil,
			"retentionDays", int(w.retention.Hours()/24))
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("audit retention worker started",
		"retentionDays", int(w.retention.Hours()/24),
		"interval", w.interval.String())

	w.cleanup()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("audit retention worker stopped")
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

// cleanup performs a single retention pass.
func (w *RetentionWorker) cleanup() {
	now := w.now()
	if w.store != nil && w.retention > 0 {
		cutoff := now.Add(-w.retention)
		deleted, err := w.store.DeleteOlderThan(cutoff)
		if err != nil {
			w.logger.Error("audit retention cleanup failed", "error", err)
		} else if deleted > 0 {
			w.logger.Info("audit retention cleanup completed",
				"deleted", deleted,
				"cutoff", cutoff.Format(time.RFC3339))
		}
	}

	for name, sweep := range w.sweepers {
		deleted, err := sweep(now)
		if err != nil {
			w.logger.Error("retention sweep failed", "sweeper", name, "error", err)
			continue
		}
		if deleted > 0 {
			w.logger.Info("retention sweep completed", "sweeper", name, "deleted", deleted)
		}
	}
}
