// Package health implements the health check orchestrator (spec
// component C9): a registry of named validators run, enabled-tier
// permitting, either sequentially or over an auto-scaled worker pool,
// producing a timed report.
package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bengal-ssg/bengal/internal/buildctx"
	"github.com/bengal-ssg/bengal/internal/page"
)

// Tier is the build tier a validator run executes under, gating which
// validators are enabled.
type Tier string

const (
	TierBuild Tier = "build" // excludes heavy validators
	TierFull  Tier = "full"  // adds them
	TierCI    Tier = "ci"    // includes everything
)

// Status is a check result's outcome.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// CheckResult is one validator's finding.
type CheckResult struct {
	Validator string
	Status    Status
	Message   string
}

// Validator is a named health check. IsEnabled gates it by build tier;
// Validate may return multiple results (e.g. one per page with an
// issue).
type Validator interface {
	Name() string
	IsEnabled(tier Tier) bool
	Validate(root *page.Section, bc *buildctx.Context) []CheckResult
}

// Registry holds named validators in registration order. A sequential run
// executes and reports them in that order; a parallel run appends their
// results in completion order.
type Registry struct {
	mu         sync.Mutex
	validators []Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds v to the registry.
func (r *Registry) Register(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = append(r.validators, v)
}

// ValidatorDuration is one validator's timing, surfaced for observability.
type ValidatorDuration struct {
	Validator string
	Duration  time.Duration
}

// Report is the outcome of one Run.
type Report struct {
	Results       []CheckResult
	Durations     []ValidatorDuration
	TotalDuration time.Duration // sum of per-validator durations
	WallDuration  time.Duration // real elapsed wall time
}

// Speedup returns TotalDuration/WallDuration, 1.0 if WallDuration is 0.
func (r *Report) Speedup() float64 {
	if r.WallDuration <= 0 {
		return 1.0
	}
	return float64(r.TotalDuration) / float64(r.WallDuration)
}

// Efficiency returns Speedup divided by the number of validators run, 0
// if none ran.
func (r *Report) Efficiency() float64 {
	if len(r.Durations) == 0 {
		return 0
	}
	return r.Speedup() / float64(len(r.Durations))
}

// workerCount implements the spec's auto-sizing helper:
// min(8, max(2, cpu_count/2)), clipped to the number of enabled
// validators.
func workerCount(enabled int) int {
	n := runtime.NumCPU() / 2
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	if n > enabled {
		n = enabled
	}
	return n
}

// Run filters validators to those enabled for tier, then runs them — in
// a worker pool when at least 3 are enabled, sequentially otherwise. A
// panicking validator's failure is captured as a single ERROR result
// named after it rather than aborting the run.
func (r *Registry) Run(tier Tier, root *page.Section, bc *buildctx.Context) *Report {
	r.mu.Lock()
	enabled := make([]Validator, 0, len(r.validators))
	for _, v := range r.validators {
		if v.IsEnabled(tier) {
			enabled = append(enabled, v)
		}
	}
	r.mu.Unlock()

	report := &Report{}
	wallStart := time.Now()

	if len(enabled) >= 3 {
		r.runParallel(enabled, root, bc, report)
	} else {
		r.runSequential(enabled, root, bc, report)
	}

	report.WallDuration = time.Since(wallStart)
	for _, d := range report.Durations {
		report.TotalDuration += d.Duration
	}
	return report
}

func (r *Registry) runSequential(validators []Validator, root *page.Section, bc *buildctx.Context, report *Report) {
	for _, v := range validators {
		results, dur := runOne(v, root, bc)
		report.Results = append(report.Results, results...)
		report.Durations = append(report.Durations, ValidatorDuration{Validator: v.Name(), Duration: dur})
	}
}

func (r *Registry) runParallel(validators []Validator, root *page.Section, bc *buildctx.Context, report *Report) {
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workerCount(len(validators)))
	var mu sync.Mutex

	for _, v := range validators {
		v := v
		g.Go(func() error {
			results, dur := runOne(v, root, bc)
			mu.Lock()
			report.Results = append(report.Results, results...)
			report.Durations = append(report.Durations, ValidatorDuration{Validator: v.Name(), Duration: dur})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // runOne never returns an error; panics are already contained
}

// runOne times and recovers a single validator's execution.
func runOne(v Validator, root *page.Section, bc *buildctx.Context) (results []CheckResult, dur time.Duration) {
	start := time.Now()
	defer func() {
		dur = time.Since(start)
		if rec := recover(); rec != nil {
			results = []CheckResult{{
				Validator: v.Name(),
				Status:    StatusError,
				Message:   fmt.Sprintf("panic: %v", rec),
			}}
		}
	}()
	results = v.Validate(root, bc)
	return results, dur
}
