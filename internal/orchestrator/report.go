package orchestrator

import (
	"time"

	"github.com/bengal-ssg/bengal/internal/outputtype"
)

// Phase names the 8 ordered build phases (plus validation/persist) spec
// §4.8 describes.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhaseDiscovery       Phase = "discovery"
	PhaseSectionFinalize Phase = "section-finalize"
	PhaseTaxonomy        Phase = "taxonomy"
	PhaseRender          Phase = "render"
	PhasePostprocess     Phase = "postprocess"
	PhaseAssets          Phase = "assets"
	PhaseEmit            Phase = "emit"
	PhaseValidate        Phase = "validate"
	PhasePersist         Phase = "persist"
)

// ChangedOutput is one (path, output-type, phase) triple in the build
// summary's changed_outputs sequence.
type ChangedOutput struct {
	Path   string
	Type   outputtype.Type
	Phase  Phase
}

// Report is the per-build statistics and outcome record, extended from
// the minimal repositories/files/start/end shape with the counters and
// flags spec §4.8 phase 8 names.
type Report struct {
	Start time.Time
	End   time.Time

	PagesBuilt     int
	BuildTimeMS    int64
	ChangedOutputs []ChangedOutput
	CacheHits      int
	CacheMisses    int
	Skipped        bool

	Errors []error

	StageDurations map[Phase]time.Duration
}

func newReport() *Report {
	return &Report{Start: time.Now(), StageDurations: map[Phase]time.Duration{}}
}

func (r *Report) finish() {
	r.End = time.Now()
	r.BuildTimeMS = r.End.Sub(r.Start).Milliseconds()
}

func (r *Report) recordPhase(p Phase, d time.Duration) {
	r.StageDurations[p] = d
}

func (r *Report) addChangedOutput(path string, t outputtype.Type, phase Phase) {
	r.ChangedOutputs = append(r.ChangedOutputs, ChangedOutput{Path: path, Type: t, Phase: phase})
}
