package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bengal-ssg/bengal/internal/eventstore"
	"github.com/bengal-ssg/bengal/internal/orchestrator"
)

// HistoryCmd lists recent builds recorded in the event store.
type HistoryCmd struct {
	Limit int `help:"Maximum number of recent builds to show" default:"10"`
}

func (h *HistoryCmd) Run(root *CLI) error {
	if root.CacheDir == "" {
		return fmt.Errorf("history: requires a cache directory (--cache)")
	}
	store, err := eventstore.NewSQLiteStore(eventsDBPath(root.CacheDir))
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() { _ = store.Close() }()

	proj := eventstore.NewBuildHistoryProjection(store, h.Limit)
	if err := proj.Rebuild(context.Background()); err != nil {
		return fmt.Errorf("rebuild build history: %w", err)
	}

	for _, b := range proj.GetHistory() {
		fmt.Printf("%s  %-10s  pages=%-4d  %s\n", b.StartedAt.Format(time.RFC3339), b.Status, b.PageCount, b.BuildID)
	}
	return nil
}

func eventsDBPath(cacheDir string) string {
	return filepath.Join(cacheDir, "events.db")
}

// buildTracker records build lifecycle events to the event store when a
// cache directory is configured. A tracker with a nil store is a silent
// no-op, so callers don't need to special-case an unset --cache.
type buildTracker struct {
	store eventstore.Store
}

// newBuildTracker opens (or tolerantly disables) event tracking for root.
func newBuildTracker(root *CLI) *buildTracker {
	if root.CacheDir == "" {
		return &buildTracker{}
	}
	store, err := eventstore.NewSQLiteStore(eventsDBPath(root.CacheDir))
	if err != nil {
		slog.Warn("build history disabled", "error", err)
		return &buildTracker{}
	}
	return &buildTracker{store: store}
}

func (t *buildTracker) close() {
	if t.store != nil {
		_ = t.store.Close()
	}
}

// newBuildID mints a lexically sortable build identifier from the current
// time; the event store's AUTOINCREMENT id is the true ordering key, this
// is only for human-readable grouping in `bengal history`.
func newBuildID() string {
	return time.Now().Format("20060102T150405.000000000")
}

func (t *buildTracker) started(ctx context.Context, buildID string, meta eventstore.BuildStartedMeta) {
	if t.store == nil {
		return
	}
	ev, err := eventstore.NewBuildStarted(buildID, meta)
	if err != nil {
		return
	}
	_ = t.store.Append(ctx, buildID, ev.Type(), ev.Payload(), nil)
}

// finished records the build's outcome: a BuildReportGenerated event
// carrying the full report, then either BuildFailed (buildErr != nil) or
// BuildCompleted.
func (t *buildTracker) finished(ctx context.Context, buildID string, report *orchestrator.Report, buildErr error, duration time.Duration, artifacts map[string]string) {
	if t.store == nil {
		return
	}

	if report != nil {
		data := eventstore.BuildReportData{PagesBuilt: report.PagesBuilt, CacheHits: report.CacheHits, CacheMisses: report.CacheMisses, Skipped: report.Skipped}
		for _, e := range report.Errors {
			data.Errors = append(data.Errors, e.Error())
		}
		switch {
		case buildErr != nil || len(report.Errors) > 0:
			data.Outcome = "failed"
		case report.Skipped:
			data.Outcome = "skipped"
		default:
			data.Outcome = "success"
		}
		if ev, err := eventstore.NewBuildReportGenerated(buildID, data); err == nil {
			_ = t.store.Append(ctx, buildID, ev.Type(), ev.Payload(), nil)
		}
	}

	if buildErr != nil {
		if ev, err := eventstore.NewBuildFailed(buildID, "build", buildErr.Error()); err == nil {
			_ = t.store.Append(ctx, buildID, ev.Type(), ev.Payload(), nil)
		}
		return
	}

	status := "success"
	if report != nil && len(report.Errors) > 0 {
		status = "completed_with_errors"
	}
	if ev, err := eventstore.NewBuildCompleted(buildID, status, duration, artifacts); err == nil {
		_ = t.store.Append(ctx, buildID, ev.Type(), ev.Payload(), nil)
	}
}
