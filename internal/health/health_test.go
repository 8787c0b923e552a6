package health

import (
	"testing"

	"github.com/bengal-ssg/bengal/internal/buildctx"
	"github.com/bengal-ssg/bengal/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	name    string
	tier    Tier
	results []CheckResult
	panics  bool
}

func (s *stubValidator) Name() string { return s.name }
func (s *stubValidator) IsEnabled(tier Tier) bool {
	if s.tier == "" {
		return true
	}
	return s.tier == tier
}
func (s *stubValidator) Validate(root *page.Section, bc *buildctx.Context) []CheckResult {
	if s.panics {
		panic("boom")
	}
	return s.results
}

func TestRunSequentialBelowThreeValidators(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubValidator{name: "a", results: []CheckResult{{Validator: "a", Status: StatusOK}}})
	r.Register(&stubValidator{name: "b", results: []CheckResult{{Validator: "b", Status: StatusWarn}}})

	report := r.Run(TierBuild, &page.Section{}, buildctx.New())
	assert.Len(t, report.Results, 2)
	assert.Len(t, report.Durations, 2)
}

func TestRunParallelAtThreeOrMoreValidators(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"a", "b", "c"} {
		r.Register(&stubValidator{name: n, results: []CheckResult{{Validator: n, Status: StatusOK}}})
	}
	report := r.Run(TierBuild, &page.Section{}, buildctx.New())
	require.Len(t, report.Results, 3)
	assert.GreaterOrEqual(t, report.TotalDuration, report.WallDuration-report.WallDuration) // sanity, non-negative
}

func TestRunRespectsTierFilter(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubValidator{name: "heavy", tier: TierFull, results: []CheckResult{{Validator: "heavy"}}})
	r.Register(&stubValidator{name: "light", results: []CheckResult{{Validator: "light"}}})

	report := r.Run(TierBuild, &page.Section{}, buildctx.New())
	require.Len(t, report.Results, 1)
	assert.Equal(t, "light", report.Results[0].Validator)
}

func TestRunCapturesPanicAsErrorResult(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubValidator{name: "broken", panics: true})

	report := r.Run(TierBuild, &page.Section{}, buildctx.New())
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Equal(t, "broken", report.Results[0].Validator)
}

func TestWorkerCountClippedToEnabledCount(t *testing.T) {
	assert.LessOrEqual(t, workerCount(1), 1)
	assert.LessOrEqual(t, workerCount(100), 8)
	assert.GreaterOrEqual(t, workerCount(100), 2)
}
