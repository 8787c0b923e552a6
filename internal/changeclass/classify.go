// Package changeclass implements the change classifier (spec component
// C7): it turns a batch of (path, event-type) pairs observed since the
// last build into a single rebuild-scope decision.
package changeclass

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bengal-ssg/bengal/internal/frontmatter"
	"github.com/bengal-ssg/bengal/internal/page"
	"github.com/bengal-ssg/bengal/internal/util/sets"
)

// EventType is the kind of filesystem change observed for a path.
type EventType string

const (
	EventCreated  EventType = "created"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
	EventMoved    EventType = "moved"
)

// Change pairs a path with its observed event type.
type Change struct {
	Path string
	Type EventType
}

// Decision is the closed set of rebuild scopes the classifier can return.
type Decision string

const (
	// FragmentUpdate means a fragment-asset fast-path can copy changed
	// assets without re-rendering any HTML.
	FragmentUpdate Decision = "fragment-update"
	// WarmIncremental means only content files changed; the changed set
	// becomes the build context's changed-page-paths scope.
	WarmIncremental Decision = "warm-incremental"
	// FullRebuild means the whole site must be regenerated.
	FullRebuild Decision = "full-rebuild"
)

// Result is the classifier's output.
type Result struct {
	Decision   Decision
	ChangedPagePaths []string // populated only for WarmIncremental
}

var assetExts = sets.New(
	".css", ".js", ".mjs",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
)

// FrontmatterCache is an mtime-keyed cache of a file's first ~4KB of
// frontmatter, so repeated classification across many rapid saves does
// not re-read unchanged files from disk.
type FrontmatterCache struct {
	mu      sync.Mutex
	entries map[string]frontmatterCacheEntry
}

type frontmatterCacheEntry struct {
	mtime time.Time
	keys  sets.Set[string]
}

// NewFrontmatterCache returns an empty cache.
func NewFrontmatterCache() *FrontmatterCache {
	return &FrontmatterCache{entries: map[string]frontmatterCacheEntry{}}
}

const frontmatterPeekBytes = 4096

// navKeysChanged reports whether path's frontmatter, read fresh or from
// cache, defines any key from page.NavKeys. The presence of such a key
// is enough: its value is not compared with an earlier version of the
// file, so an edit that leaves every nav key as it was still reports true.
func (c *FrontmatterCache) navKeysChanged(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	c.mu.Lock()
	cached, ok := c.entries[path]
	c.mu.Unlock()
	if ok && cached.mtime.Equal(info.ModTime()) {
		return len(cached.keys) > 0
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, frontmatterPeekBytes)
	n, _ := f.Read(buf)
	raw := buf[:n]

	fm, _, had, _, err := frontmatter.Split(raw)
	keys := sets.New[string]()
	if had && err == nil {
		if fields, perr := frontmatter.ParseYAML(withClosingDelimiter(fm)); perr == nil {
			for k := range fields {
				if page.NavKeys[k] {
					keys.Add(k)
				}
			}
		}
	}

	c.mu.Lock()
	c.entries[path] = frontmatterCacheEntry{mtime: info.ModTime(), keys: keys}
	c.mu.Unlock()

	return len(keys) > 0
}

// withClosingDelimiter tolerates a frontmatter block truncated by the
// 4KB peek window (its closing "---" may have been cut off); YAML
// parses the truncated block as best-effort, same as the original
// partial read would.
func withClosingDelimiter(fm []byte) []byte {
	if bytes.HasSuffix(fm, []byte("\n")) {
		return fm
	}
	return append(fm, '\n')
}

// Classify applies the five ordered rules from the change-batch
// specification. contentRoot and templateRoot are used to decide which
// root a changed path falls under. fragmentFastPathAvailable reports
// whether the build engine currently exposes an asset fast-path capable
// of copying changed assets without a full render.
func Classify(changes []Change, contentRoot, templateRoot string, fragmentFastPathAvailable bool, fmCache *FrontmatterCache) Result {
	if len(changes) == 0 {
		return Result{Decision: WarmIncremental}
	}

	allContentOrTemplate := true
	allContent := true
	allAssets := true
	var changedContentPaths []string

	for _, ch := range changes {
		underContent := isUnder(ch.Path, contentRoot)
		underTemplate := isUnder(ch.Path, templateRoot)

		if ch.Type == EventCreated || ch.Type == EventDeleted || ch.Type == EventMoved {
			if underContent || underTemplate {
				return Result{Decision: FullRebuild}
			}
		}

		if underTemplate {
			return Result{Decision: FullRebuild}
		}

		if !underContent {
			allContent = false
		} else {
			changedContentPaths = append(changedContentPaths, ch.Path)
		}

		if !isPureAsset(ch.Path) {
			allAssets = false
		}

		if !underContent && !underTemplate {
			allContentOrTemplate = false
		}
	}
	_ = allContentOrTemplate

	if allContent {
		if fmCache != nil {
			for _, p := range changedContentPaths {
				if fmCache.navKeysChanged(p) {
					return Result{Decision: FullRebuild}
				}
			}
		}
		return Result{Decision: WarmIncremental, ChangedPagePaths: changedContentPaths}
	}

	if allAssets && fragmentFastPathAvailable {
		return Result{Decision: FragmentUpdate}
	}

	return Result{Decision: FullRebuild}
}

func isUnder(path, root string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isPureAsset(path string) bool {
	return assetExts.Has(strings.ToLower(filepath.Ext(path)))
}
