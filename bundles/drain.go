package bundles

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Drainer periodically claims queued identifiers and refreshes them through
// Fetch. It is the in-process consumer of the persisted refresh queue; the
// flag itself is cleared only by a successful refresh, so a crashed pass
// leaves the work claimable by the next one.
type Drainer struct {
	svc    *Service
	cfg    DrainConfig
	logger *slog.Logger
}

// NewDrainer creates a Drainer over the given service.
func NewDrainer(svc *Service, cfg DrainConfig, logger *slog.Logger) *Drainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{svc: svc, cfg: cfg, logger: logger}
}

// Run polls the queue on a ticker. Blocks until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	// Run once immediately on start.
	d.drainOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

// drainOnce refreshes one batch of queued ids with a per-item delay so the
// external source is never hammered.
func (d *Drainer) drainOnce(ctx context.Context) {
	ids, err := d.svc.store.QueuedIDs(ctx, d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("drain: read queue", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	d.logger.Info("drain: pass", "queued", len(ids))

	for i, id := range ids {
		if err := d.svc.Fetch(ctx, id); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Upstream failures leave the flag set; the next pass retries.
			d.logger.Warn("drain: refresh failed", "bundle", id, "error", err)
		}
		if i < len(ids)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.Delay):
			}
		}
	}
}
