package buildqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// RebuildFunc runs a full, unconditional rebuild (no changed-path scope).
type RebuildFunc func(ctx context.Context) error

// GCFunc sweeps stale cache entries (e.g. content-hash/generated-page
// cache entries whose source files no longer exist).
type GCFunc func(ctx context.Context) error

// Housekeeping runs gocron-scheduled periodic full rebuilds and cache GC
// sweeps alongside the event-driven Trigger, replacing the teacher's
// hand-rolled ticker-based Scheduler.
type Housekeeping struct {
	sched gocron.Scheduler
}

// NewHousekeeping constructs and starts a scheduler. rebuildInterval or
// gcInterval of zero disables that job. A rebuild tick that fires while
// the Trigger's building flag is set is skipped, not deferred; gc runs
// independently since it never touches build output.
func NewHousekeeping(ctx context.Context, trig *Trigger, rebuild RebuildFunc, gc GCFunc, rebuildInterval, gcInterval time.Duration) (*Housekeeping, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if rebuildInterval > 0 && rebuild != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(rebuildInterval),
			gocron.NewTask(func() {
				if trig.Building() {
					return
				}
				if err := rebuild(ctx); err != nil {
					slog.Warn("scheduled full rebuild failed", "error", err)
				}
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	if gcInterval > 0 && gc != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(gcInterval),
			gocron.NewTask(func() {
				if err := gc(ctx); err != nil {
					slog.Warn("scheduled cache gc failed", "error", err)
				}
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	sched.Start()
	return &Housekeeping{sched: sched}, nil
}

// Stop shuts down the scheduler, waiting for any in-flight job.
func (h *Housekeeping) Stop() error {
	return h.sched.Shutdown()
}
