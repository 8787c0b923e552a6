// Package contenthash implements the content-hash registry (spec
// component C2): an in-memory, process-wide map from path to content
// hash used both to decide whether an output's content actually changed
// and to compute aggregate dependency fingerprints for generated pages.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/bengal-ssg/bengal/internal/logfields"
	"github.com/bengal-ssg/bengal/internal/observability"
	"github.com/bengal-ssg/bengal/internal/store"
)

// FormatVersion is bumped whenever the persisted shape changes incompatibly.
const FormatVersion = 1

// Registry is the in-memory source/output content-hash map. All mutating
// operations are serialized under a single, non-recursive sync.Mutex
// (sufficient here since none of these methods re-enters it on the same
// goroutine) so parallel render workers can update it safely.
type Registry struct {
	mu sync.Mutex

	version int

	sourceHashes map[string]string
	outputHashes map[string]string
	outputTypes  map[string]string
	generatedDeps map[string][]string

	dirty bool
}

// New creates an empty registry at the current format version.
func New() *Registry {
	return &Registry{
		version:       FormatVersion,
		sourceHashes:  make(map[string]string),
		outputHashes:  make(map[string]string),
		outputTypes:   make(map[string]string),
		generatedDeps: make(map[string][]string),
	}
}

// UpdateSource sets or overwrites the content hash for a source path.
func (r *Registry) UpdateSource(sourcePath, contentHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sourceHashes[sourcePath] = contentHash
	r.dirty = true
}

// UpdateOutput sets or overwrites the content hash and output type for an
// output path.
func (r *Registry) UpdateOutput(outputPath, contentHash, outputType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputHashes[outputPath] = contentHash
	r.outputTypes[outputPath] = outputType
	r.dirty = true
}

// UpdateGeneratedDeps records the set of source paths that contribute to
// a generated page's content. Member order is not significant.
func (r *Registry) UpdateGeneratedDeps(generatedPath string, memberSourcePaths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]string, len(memberSourcePaths))
	copy(cp, memberSourcePaths)
	r.generatedDeps[generatedPath] = cp
	r.dirty = true
}

// GetSourceHash returns the stored hash for a source path, or "" if unregistered.
func (r *Registry) GetSourceHash(sourcePath string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sourceHashes[sourcePath]
}

// GetOutputHash returns the stored hash for an output path, or "" if unregistered.
func (r *Registry) GetOutputHash(outputPath string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outputHashes[outputPath]
}

// GetMemberHashes returns the source-path → content-hash map for a
// generated page's recorded dependencies.
func (r *Registry) GetMemberHashes(generatedPath string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	deps := r.generatedDeps[generatedPath]
	out := make(map[string]string, len(deps))
	for _, dep := range deps {
		out[dep] = r.sourceHashes[dep]
	}
	return out
}

// ComputeGeneratedHash returns the combined fingerprint for a generated
// page: its members' content hashes, sorted, pipe-joined, SHA256-hashed,
// and truncated to 16 hex characters.
func (r *Registry) ComputeGeneratedHash(generatedPath string) string {
	members := r.GetMemberHashes(generatedPath)
	return CombineHashes(members)
}

// CombineHashes implements the sorted-pipe-joined-truncated-16 combination
// rule shared by C2 and C3 for any set of member content hashes.
func CombineHashes(memberHashes map[string]string) string {
	values := make([]string, 0, len(memberHashes))
	for _, h := range memberHashes {
		values = append(values, h)
	}
	sort.Strings(values)
	combined := strings.Join(values, "|")
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])[:16]
}

// HasChanged reports whether outputPath is unregistered or its stored
// hash differs from currentHash.
func (r *Registry) HasChanged(outputPath, currentHash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	registered, ok := r.outputHashes[outputPath]
	return !ok || registered != currentHash
}

// PruneMissingSources removes source-hash and generated-dependency
// entries whose source path no longer exists on disk per exists, and
// drops any generated page whose member list became empty as a result.
// Returns the number of source entries removed.
func (r *Registry) PruneMissingSources(exists func(sourcePath string) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for path := range r.sourceHashes {
		if !exists(path) {
			delete(r.sourceHashes, path)
			removed++
		}
	}
	for generated, members := range r.generatedDeps {
		kept := members[:0:0]
		for _, m := range members {
			if _, ok := r.sourceHashes[m]; ok {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(r.generatedDeps, generated)
			delete(r.outputHashes, generated)
			delete(r.outputTypes, generated)
		} else {
			r.generatedDeps[generated] = kept
		}
	}
	if removed > 0 {
		r.dirty = true
	}
	return removed
}

// Clear empties the registry and marks it dirty.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sourceHashes = make(map[string]string)
	r.outputHashes = make(map[string]string)
	r.outputTypes = make(map[string]string)
	r.generatedDeps = make(map[string][]string)
	r.dirty = true
}

// Stats summarizes registry contents for observability.
type Stats struct {
	Sources         int
	Outputs         int
	GeneratedPages  int
	OutputsByType   map[string]int
}

// GetStats returns counts of tracked entries, including a per-output-type breakdown.
func (r *Registry) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType := make(map[string]int)
	for _, t := range r.outputTypes {
		byType[t]++
	}
	return Stats{
		Sources:        len(r.sourceHashes),
		Outputs:        len(r.outputHashes),
		GeneratedPages: len(r.generatedDeps),
		OutputsByType:  byType,
	}
}

// persisted is the on-disk shape, matching the original's flat JSON layout.
type persisted struct {
	Version              int                 `json:"version"`
	SourceHashes         map[string]string   `json:"source_hashes"`
	OutputHashes         map[string]string   `json:"output_hashes"`
	OutputTypes          map[string]string   `json:"output_types"`
	GeneratedDependencies map[string][]string `json:"generated_dependencies"`
}

// Save persists the registry via the compressed versioned store. A no-op
// if nothing changed since the last save. path is the base path; the
// store appends ".json.zst".
func (r *Registry) Save(path string) error {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return nil
	}
	data := persisted{
		Version:               r.version,
		SourceHashes:          r.sourceHashes,
		OutputHashes:          r.outputHashes,
		OutputTypes:           r.outputTypes,
		GeneratedDependencies: r.generatedDeps,
	}
	r.mu.Unlock()

	if _, err := store.Save(data, path, store.DefaultCompressionLevel); err != nil {
		observability.WarnContext(nil, "content hash registry save failed", logfields.Path(path), logfields.Error(err))
		return err
	}

	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
	return nil
}

// Load reads a registry from path. Missing files, corrupted JSON, and
// version mismatches all tolerantly reset to an empty registry rather
// than failing the build, matching spec §4.2.
func Load(path string) *Registry {
	var data persisted
	if err := store.LoadAuto(path, &data); err != nil {
		return New()
	}
	if data.Version != FormatVersion {
		return New()
	}

	r := New()
	r.version = data.Version
	if data.SourceHashes != nil {
		r.sourceHashes = data.SourceHashes
	}
	if data.OutputHashes != nil {
		r.outputHashes = data.OutputHashes
	}
	if data.OutputTypes != nil {
		r.outputTypes = data.OutputTypes
	}
	if data.GeneratedDependencies != nil {
		r.generatedDeps = data.GeneratedDependencies
	}
	return r
}

// Validate checks that path holds a structurally valid registry, for a
// CLI validation command. Returns (ok, message).
func Validate(path string) (bool, string) {
	var data persisted
	if err := store.LoadAuto(path, &data); err != nil {
		return false, "unreadable or corrupt registry: " + err.Error()
	}
	if data.Version < FormatVersion {
		return false, "registry format version is stale and will be rebuilt"
	}
	return true, "ok"
}
