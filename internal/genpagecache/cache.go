// Package genpagecache implements the generated-page cache (spec
// component C3): rendered output for generated pages (tag pages, section
// archives, API reference indexes) keyed on the combined content hash of
// their member pages, so unchanged members skip an expensive re-render.
package genpagecache

import (
	"fmt"
	"sync"
	"time"

	"github.com/bengal-ssg/bengal/internal/contenthash"
	"github.com/bengal-ssg/bengal/internal/logfields"
	"github.com/bengal-ssg/bengal/internal/observability"
	"github.com/bengal-ssg/bengal/internal/store"
)

// FormatVersion is bumped whenever the persisted entry shape changes.
const FormatVersion = 1

// DefaultHTMLCacheThreshold is the rendered-HTML size, in bytes, below
// which the content is cached alongside the fingerprint; pages at or above
// it store only the fingerprint and must re-render on a hit-path miss.
const DefaultHTMLCacheThreshold = 100_000

// Entry is one cached generated page: its member-hash fingerprint, the
// template hash in effect when it was generated, the per-member hash map,
// and (for small-enough output) the rendered HTML itself.
type Entry struct {
	PageType         string
	PageID           string
	ContentHash      string
	TemplateHash     string
	MemberHashes     map[string]string
	CachedHTML       string
	HasCachedHTML    bool
	LastGenerated    time.Time
	GenerationTimeMS int64
}

// Cache is the process-wide generated-page cache. All mutating operations
// are serialized under a single mutex, matching the registry's (C2)
// thread-safety model.
type Cache struct {
	mu           sync.Mutex
	entries      map[string]Entry
	htmlThreshold int
	dirty        bool
}

// New creates an empty cache with the given HTML-cache size threshold (0
// uses DefaultHTMLCacheThreshold).
func New(htmlThreshold int) *Cache {
	if htmlThreshold <= 0 {
		htmlThreshold = DefaultHTMLCacheThreshold
	}
	return &Cache{entries: make(map[string]Entry), htmlThreshold: htmlThreshold}
}

// Key builds the "{page-type}:{page-id}" cache key.
func Key(pageType, pageID string) string {
	return fmt.Sprintf("%s:%s", pageType, pageID)
}

// ComputeMemberHash computes the deterministic combined fingerprint for a
// set of member source paths, looking their content hashes up in
// contentCache (source path → content hash).
func ComputeMemberHash(memberSourcePaths []string, contentCache map[string]string) string {
	hashes := make(map[string]string, len(memberSourcePaths))
	for _, p := range memberSourcePaths {
		hashes[p] = contentCache[p]
	}
	return contenthash.CombineHashes(hashes)
}

// ShouldRegenerate reports whether the generated page identified by
// (pageType, pageID) needs to be rendered again. It returns true if there
// is no cache entry, if templateHash and the entry's template hash are
// both non-empty and differ (covers template-only changes), or if the
// current combined member-hash differs from the stored one.
func (c *Cache) ShouldRegenerate(pageType, pageID string, memberSourcePaths []string, contentCache map[string]string, templateHash string) bool {
	key := Key(pageType, pageID)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return true
	}

	if templateHash != "" && entry.TemplateHash != "" && templateHash != entry.TemplateHash {
		return true
	}

	current := ComputeMemberHash(memberSourcePaths, contentCache)
	return current != entry.ContentHash
}

// Update stores a freshly-rendered generated page's fingerprint and
// (below the HTML-cache threshold) its rendered HTML.
func (c *Cache) Update(pageType, pageID string, memberSourcePaths []string, contentCache map[string]string, renderedHTML string, generationTimeMS int64, templateHash string) {
	key := Key(pageType, pageID)
	memberHashes := make(map[string]string, len(memberSourcePaths))
	for _, p := range memberSourcePaths {
		memberHashes[p] = contentCache[p]
	}

	entry := Entry{
		PageType:         pageType,
		PageID:           pageID,
		ContentHash:      contenthash.CombineHashes(memberHashes),
		TemplateHash:     templateHash,
		MemberHashes:     memberHashes,
		LastGenerated:    time.Now(),
		GenerationTimeMS: generationTimeMS,
	}
	if len(renderedHTML) < c.htmlThreshold {
		entry.CachedHTML = renderedHTML
		entry.HasCachedHTML = true
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.dirty = true
	c.mu.Unlock()
}

// GetCachedHTML returns the cached HTML for a page, if any was stored.
func (c *Cache) GetCachedHTML(pageType, pageID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[Key(pageType, pageID)]
	if !ok || !entry.HasCachedHTML {
		return "", false
	}
	return entry.CachedHTML, true
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(pageType, pageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, Key(pageType, pageID))
	c.dirty = true
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.dirty = true
}

// Stats summarizes cache contents by page type.
type Stats struct {
	TotalEntries int
	ByType       map[string]int
	HTMLCached   int
}

// GetStats reports entry counts for observability.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	byType := make(map[string]int)
	htmlCached := 0
	for _, e := range c.entries {
		byType[e.PageType]++
		if e.HasCachedHTML {
			htmlCached++
		}
	}
	return Stats{TotalEntries: len(c.entries), ByType: byType, HTMLCached: htmlCached}
}

// persistedEntry and persisted mirror the Python dataclass's to_dict/from_dict shape.
type persistedEntry struct {
	PageType         string            `json:"page_type"`
	PageID           string            `json:"page_id"`
	ContentHash      string            `json:"content_hash"`
	TemplateHash     string            `json:"template_hash"`
	MemberHashes     map[string]string `json:"member_hashes"`
	CachedHTML       *string           `json:"cached_html"`
	LastGenerated    string            `json:"last_generated"`
	GenerationTimeMS int64             `json:"generation_time_ms"`
}

type persisted struct {
	Version int                       `json:"version"`
	Entries map[string]persistedEntry `json:"entries"`
}

// Save persists the cache via the compressed versioned store. A no-op if
// nothing has changed since the last save.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	data := persisted{Version: FormatVersion, Entries: make(map[string]persistedEntry, len(c.entries))}
	for key, e := range c.entries {
		pe := persistedEntry{
			PageType: e.PageType, PageID: e.PageID, ContentHash: e.ContentHash,
			TemplateHash: e.TemplateHash, MemberHashes: e.MemberHashes,
			LastGenerated: e.LastGenerated.Format(time.RFC3339), GenerationTimeMS: e.GenerationTimeMS,
		}
		if e.HasCachedHTML {
			html := e.CachedHTML
			pe.CachedHTML = &html
		}
		data.Entries[key] = pe
	}
	c.mu.Unlock()

	if _, err := store.Save(data, path, store.DefaultCompressionLevel); err != nil {
		observability.WarnContext(nil, "generated page cache save failed", logfields.Path(path), logfields.Error(err))
		return err
	}

	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
	return nil
}

// Load reads a cache from path, starting fresh on any missing file,
// corruption, or version mismatch (spec §4.3 tolerant-load contract).
func Load(path string, htmlThreshold int) *Cache {
	c := New(htmlThreshold)

	var data persisted
	if err := store.LoadAuto(path, &data); err != nil {
		return c
	}
	if data.Version != FormatVersion {
		return c
	}

	for key, pe := range data.Entries {
		entry := Entry{
			PageType: pe.PageType, PageID: pe.PageID, ContentHash: pe.ContentHash,
			TemplateHash: pe.TemplateHash, MemberHashes: pe.MemberHashes,
			GenerationTimeMS: pe.GenerationTimeMS,
		}
		if t, err := time.Parse(time.RFC3339, pe.LastGenerated); err == nil {
			entry.LastGenerated = t
		}
		if pe.CachedHTML != nil {
			entry.CachedHTML = *pe.CachedHTML
			entry.HasCachedHTML = true
		}
		c.entries[key] = entry
	}
	return c
}
