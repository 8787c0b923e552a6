// Package buildctx implements the build context and dependency tracker
// (spec component C6): the process-wide, per-build object that carries
// the thread-safe content cache, the changed-page-paths set for
// incremental builds, the provenance ("knowledge") graph, and a
// clear-on-teardown bag for lazy artifacts validators may stash.
package buildctx

import "sync"

// ContentCache is a concurrent string->string cache of raw page bodies,
// populated during discovery (C5) and consulted by rendering and
// validators so they need not re-read source files from disk.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewContentCache returns an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{entries: map[string]string{}}
}

// Put stores body under path, overwriting any previous value.
func (c *ContentCache) Put(path, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = body
}

// Get returns the cached body for path and whether it was present.
func (c *ContentCache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[path]
	return v, ok
}

// Size returns the number of cached entries.
func (c *ContentCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// HasAny reports whether the cache holds at least one entry.
func (c *ContentCache) HasAny() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries) > 0
}

// KnowledgeGraph is the provenance filter: for each output page path, the
// set of source file paths whose content contributed to it. A page
// inherits its parent sections' _index.md files as provenance inputs, so
// changing a section's cascade frontmatter invalidates every descendant.
type KnowledgeGraph struct {
	mu   sync.Mutex
	deps map[string]map[string]bool // output path -> set of source paths
}

// NewKnowledgeGraph returns an empty graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{deps: map[string]map[string]bool{}}
}

// AddDependency records that outputPath's content depends on sourcePath.
func (g *KnowledgeGraph) AddDependency(outputPath, sourcePath string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.deps[outputPath]
	if !ok {
		set = map[string]bool{}
		g.deps[outputPath] = set
	}
	set[sourcePath] = true
}

// AddDependencies is AddDependency for multiple sources at once, used to
// record a page's own source plus its inherited _index.md ancestry.
func (g *KnowledgeGraph) AddDependencies(outputPath string, sourcePaths []string) {
	for _, p := range sourcePaths {
		g.AddDependency(outputPath, p)
	}
}

// Dependencies returns the sorted-indifferent set of source paths that
// contributed to outputPath.
func (g *KnowledgeGraph) Dependencies(outputPath string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	set := g.deps[outputPath]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}

// DependsOn reports whether outputPath's provenance includes sourcePath —
// used when a source change arrives to find every output that must be
// re-rendered.
func (g *KnowledgeGraph) DependsOn(outputPath, sourcePath string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deps[outputPath][sourcePath]
}

// AffectedOutputs returns every output path whose provenance includes
// sourcePath.
func (g *KnowledgeGraph) AffectedOutputs(sourcePath string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for output, set := range g.deps {
		if set[sourcePath] {
			out = append(out, output)
		}
	}
	return out
}

// Context is the per-build object threaded through discovery, rendering,
// and validation.
type Context struct {
	Content   *ContentCache
	Knowledge *KnowledgeGraph

	// ChangedPagePaths is the incremental build's changed-page set; nil
	// for a full build. Render/validation consult it to skip unchanged
	// pages.
	ChangedPagePaths map[string]bool

	// CascadeSources maps a section path to the _index.md source paths
	// its descendants inherit provenance from.
	CascadeSources map[string][]string

	// DataFileHashes carries fingerprints of data/ files consulted during
	// rendering, merged into the general source-hash map so an unchanged
	// data file is never misclassified as modified.
	DataFileHashes map[string]string

	mu           sync.Mutex
	lazyArtifacts map[string]any
}

// New returns a context for a full (non-incremental) build.
func New() *Context {
	return &Context{
		Content:        NewContentCache(),
		Knowledge:      NewKnowledgeGraph(),
		CascadeSources: map[string][]string{},
		DataFileHashes: map[string]string{},
		lazyArtifacts:  map[string]any{},
	}
}

// NewIncremental returns a context scoped to changedPaths.
func NewIncremental(changedPaths []string) *Context {
	c := New()
	c.ChangedPagePaths = map[string]bool{}
	for _, p := range changedPaths {
		c.ChangedPagePaths[p] = true
	}
	return c
}

// HasCachedContent is the read-only flag validators consult to decide
// whether the content cache may be trusted in place of reading disk.
func (c *Context) HasCachedContent() bool {
	return c.Content.HasAny()
}

// IsIncremental reports whether this context carries a changed-page scope.
func (c *Context) IsIncremental() bool {
	return c.ChangedPagePaths != nil
}

// PageChanged reports whether path is in the changed-page set. On a full
// (non-incremental) build every path is considered changed.
func (c *Context) PageChanged(path string) bool {
	if !c.IsIncremental() {
		return true
	}
	return c.ChangedPagePaths[path]
}

// PutLazyArtifact stashes a value a validator or render stage computed
// and wants to share with a later stage in the same build.
func (c *Context) PutLazyArtifact(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyArtifacts[key] = value
}

// LazyArtifact retrieves a previously stashed value.
func (c *Context) LazyArtifact(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lazyArtifacts[key]
	return v, ok
}

// Teardown clears the lazy-artifacts bag at the end of a build, freeing
// any large intermediate results it held.
func (c *Context) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lazyArtifacts = map[string]any{}
}

// ProvenanceFor computes the full set of source paths that contributed to
// a page's output, including the page's own source and the inherited
// _index.md chain for sectionPath.
func (c *Context) ProvenanceFor(sourcePath, sectionPath string) []string {
	seen := map[string]bool{sourcePath: true}
	out := []string{sourcePath}
	for _, p := range c.CascadeSources[sectionPath] {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
