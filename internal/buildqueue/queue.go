// Package buildqueue implements the build trigger & queue (spec
// component C10): a single-build-at-a-time serializer for the dev
// server. Concurrent file-watcher events arriving mid-build are unioned
// into a pending set and drained after the in-flight build finishes.
package buildqueue

import (
	"context"
	"sync"
	"time"

	"github.com/bengal-ssg/bengal/internal/changeclass"
	"github.com/bengal-ssg/bengal/internal/retry"
)

// BuildFunc runs one classified build given the accumulated changes, and
// returns an error if the build failed. It is also responsible for
// running pre/post-build hooks and the reload decision (C11) — those are
// the caller's concerns, not the queue's.
type BuildFunc func(ctx context.Context, changes []changeclass.Change) error

// PreBuildHook runs before a build starts; returning false vetoes it.
type PreBuildHook func(changes []changeclass.Change) bool

// Trigger is the single-build-at-a-time serializer.
type Trigger struct {
	build BuildFunc
	veto  PreBuildHook

	// StabilizationDelay is the pause after a build completes before
	// draining pending changes, so the browser can fetch the assets the
	// build that just finished produced.
	StabilizationDelay time.Duration

	// RetryPolicy governs retrying a failed build before surfacing the
	// error to the watcher's caller. Zero value (no retries) if unset.
	RetryPolicy retry.Policy

	mu       sync.Mutex
	building bool
	pending  []changeclass.Change

	lastErr error
}

// New constructs a Trigger. veto may be nil (no pre-build hook).
func New(build BuildFunc, veto PreBuildHook) *Trigger {
	return &Trigger{build: build, veto: veto, StabilizationDelay: 150 * time.Millisecond}
}

// Building reports whether a build is currently in flight.
func (t *Trigger) Building() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.building
}

// LastError returns the most recent build's error, or nil.
func (t *Trigger) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// TriggerBuild is the queue's sole entry point. If a build is already
// running, changes are unioned into the pending set and the call returns
// immediately. Otherwise it runs the build (and, if changes queued up
// meanwhile, re-enters itself after a stabilization delay).
func (t *Trigger) TriggerBuild(ctx context.Context, changes []changeclass.Change) {
	t.mu.Lock()
	if t.building {
		t.pending = unionChanges(t.pending, changes)
		t.mu.Unlock()
		return
	}
	t.building = true
	t.mu.Unlock()

	t.runOnce(ctx, changes)
}

// runOnce executes one build for changes; if pending changes accumulated
// meanwhile, it drains them and, still holding the building flag, runs
// another build for them. The flag is cleared on every exit path.
func (t *Trigger) runOnce(ctx context.Context, changes []changeclass.Change) {
	defer func() {
		t.mu.Lock()
		t.building = false
		t.mu.Unlock()
	}()

	if t.veto != nil && !t.veto(changes) {
		return
	}

	err := t.runBuildWithRetries(ctx, changes)

	t.mu.Lock()
	t.lastErr = err
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	if t.StabilizationDelay > 0 {
		select {
		case <-time.After(t.StabilizationDelay):
		case <-ctx.Done():
			return
		}
	}

	t.runOnce(ctx, pending)
}

// runBuildWithRetries calls runBuild, retrying transient failures per
// RetryPolicy (a save racing a half-written file is the common case).
// ctx cancellation aborts the retry loop immediately.
func (t *Trigger) runBuildWithRetries(ctx context.Context, changes []changeclass.Change) error {
	err := t.runBuild(ctx, changes)
	for attempt := 1; err != nil && attempt <= t.RetryPolicy.MaxRetries; attempt++ {
		select {
		case <-time.After(t.RetryPolicy.Delay(attempt)):
		case <-ctx.Done():
			return err
		}
		err = t.runBuild(ctx, changes)
	}
	return err
}

// runBuild calls the injected BuildFunc, recovering from a panic so the
// building flag is always cleared — there is no stuck-build state.
func (t *Trigger) runBuild(ctx context.Context, changes []changeclass.Change) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
			} else {
				err = panicError{rec}
			}
		}
	}()
	return t.build(ctx, changes)
}

type panicError struct{ v any }

func (p panicError) Error() string { return "build panicked" }

// unionChanges merges b into a, deduplicating by path and keeping the
// most recent event for a repeated path.
func unionChanges(a, b []changeclass.Change) []changeclass.Change {
	byPath := make(map[string]changeclass.Change, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))
	for _, c := range a {
		if _, ok := byPath[c.Path]; !ok {
			order = append(order, c.Path)
		}
		byPath[c.Path] = c
	}
	for _, c := range b {
		if _, ok := byPath[c.Path]; !ok {
			order = append(order, c.Path)
		}
		byPath[c.Path] = c
	}
	out := make([]changeclass.Change, len(order))
	for i, p := range order {
		out[i] = byPath[p]
	}
	return out
}
