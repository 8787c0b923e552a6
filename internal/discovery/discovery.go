// Package discovery implements the content-tree walk (spec component C5):
// it parses every source file's frontmatter envelope, builds the
// Page/Section tree lazily, and populates a build context's content
// cache with each page's raw body for later provenance/rendering use.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bengal-ssg/bengal/internal/bengalerrors"
	"github.com/bengal-ssg/bengal/internal/frontmatter"
	"github.com/bengal-ssg/bengal/internal/frontmatterops"
	"github.com/bengal-ssg/bengal/internal/logfields"
	"github.com/bengal-ssg/bengal/internal/observability"
	"github.com/bengal-ssg/bengal/internal/page"
)

// ContentCache receives each discovered page's raw body, mirroring the
// build context's thread-safe cache (C6) without discovery depending on
// its concrete type.
type ContentCache interface {
	Put(path, body string)
}

// Result is everything a content-tree walk produces.
type Result struct {
	Root *page.Section

	// Errors collects non-fatal N001 frontmatter-parse failures
	// encountered during the walk; discovery never aborts because of them.
	Errors []*bengalerrors.ClassifiedError
}

var markdownExts = map[string]bool{".md": true, ".markdown": true}

// Discover walks root, building the section tree. cache may be nil (the
// raw body is then simply not recorded anywhere).
func Discover(ctx context.Context, root string, cache ContentCache) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, bengalerrors.DiscoveryError(fmt.Sprintf("content directory not found: %s", root)).
			WithPath(root, 0).Build()
	}

	d := &discoverer{
		root:     root,
		cache:    cache,
		sections: map[string]*page.Section{},
		visited:  map[string]bool{},
	}
	d.sections[""] = &page.Section{Name: ""}

	if err := d.walk(ctx, root, ""); err != nil {
		return nil, err
	}

	return &Result{Root: d.sections[""], Errors: d.errors}, nil
}

type discoverer struct {
	root  string
	cache ContentCache

	mu       sync.Mutex
	sections map[string]*page.Section // keyed by section path relative to root ("" = root)
	visited  map[string]bool          // real paths visited, for symlink-loop detection
	errors   []*bengalerrors.ClassifiedError
}

// walk recursively visits dir (relative path relPath from root). Section
// creation is serialized via d.mu; file parsing itself could be farmed
// out to a worker pool (spec invariant: "parsing is parallelizable,
// section-tree assembly is serialized") — this sequential walk satisfies
// that contract trivially by doing both on one goroutine, leaving the
// concurrency headroom for a future pool without changing this API.
func (d *discoverer) walk(ctx context.Context, dir, relPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolve real path of %s: %w", dir, err)
	}
	d.mu.Lock()
	if d.visited[real] {
		d.mu.Unlock()
		observability.WarnContext(ctx, "skipping symlink loop", logfields.Path(dir))
		return nil
	}
	d.visited[real] = true
	d.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read content dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	section := d.sectionFor(relPath)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		childRel := joinRel(relPath, name)
		childPath := filepath.Join(dir, name)

		if entry.IsDir() {
			if err := d.walk(ctx, childPath, childRel); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !markdownExts[ext] {
			continue
		}

		p, parseErr := d.parsePage(childPath, childRel)
		if parseErr != nil {
			d.mu.Lock()
			d.errors = append(d.errors, parseErr)
			d.mu.Unlock()
		}

		if strings.EqualFold(strings.TrimSuffix(name, ext), "_index") {
			p.Section = section
			section.Index = p
			if raw, ok := p.Metadata["cascade"]; ok {
				if m, ok := raw.(map[string]any); ok {
					section.Cascade = page.Metadata(m)
				}
			}
			continue
		}

		p.Section = section
		section.Pages = append(section.Pages, p)
	}

	return nil
}

// sectionFor returns (creating lazily, and linking into its parent) the
// section for relPath, assembling any missing intermediate ancestors.
func (d *discoverer) sectionFor(relPath string) *page.Section {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.sections[relPath]; ok {
		return s
	}

	parentRel, name := splitRel(relPath)
	parent := d.sectionForLocked(parentRel)

	s := &page.Section{Name: name, Parent: parent}
	parent.Subsections = append(parent.Subsections, s)
	d.sections[relPath] = s
	return s
}

// sectionForLocked is sectionFor without re-acquiring d.mu, for internal
// recursive ancestor construction.
func (d *discoverer) sectionForLocked(relPath string) *page.Section {
	if s, ok := d.sections[relPath]; ok {
		return s
	}
	parentRel, name := splitRel(relPath)
	parent := d.sectionForLocked(parentRel)
	s := &page.Section{Name: name, Parent: parent}
	parent.Subsections = append(parent.Subsections, s)
	d.sections[relPath] = s
	return s
}

func splitRel(relPath string) (parentRel, name string) {
	if relPath == "" {
		return "", ""
	}
	idx := strings.LastIndex(relPath, "/")
	if idx < 0 {
		return "", relPath
	}
	return relPath[:idx], relPath[idx+1:]
}

func joinRel(relPath, name string) string {
	if relPath == "" {
		return name
	}
	return relPath + "/" + name
}

// parsePage reads and parses one source file. A frontmatter parse
// failure produces an N001 error but still returns a usable page with
// empty metadata — discovery must not abort on a single bad file.
func (d *discoverer) parsePage(path, relPath string) (*page.Page, *bengalerrors.ClassifiedError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &page.Page{SourcePath: relPath, Metadata: page.Metadata{}},
			bengalerrors.New(bengalerrors.ContentFileNotFound, err.Error()).WithPath(path, 0).Build()
	}
	raw = stripBOM(raw)

	fm, body, had, _, splitErr := frontmatter.Split(raw)
	p := &page.Page{SourcePath: relPath, Body: string(body)}

	if d.cache != nil {
		d.cache.Put(relPath, string(body))
	}

	if splitErr != nil {
		p.Metadata = page.Metadata{}
		return p, bengalerrors.New(bengalerrors.FrontmatterInvalid, splitErr.Error()).
			WithPath(path, bestEffortLine(raw)).Build()
	}
	if !had {
		p.Metadata = page.Metadata{}
		return p, nil
	}

	fields, parseErr := frontmatter.ParseYAML(fm)
	if parseErr != nil {
		p.Metadata = page.Metadata{}
		return p, bengalerrors.New(bengalerrors.FrontmatterInvalid, parseErr.Error()).
			WithPath(path, bestEffortLine(raw)).Build()
	}

	// Fill in the fields a page needs to sort/render sensibly even when
	// its frontmatter is sparse. Both are deterministic in relPath alone
	// so they never perturb a page's content hash between builds.
	frontmatterops.EnsureTypeDocs(fields)
	frontmatterops.EnsureTitle(fields, titleFromRelPath(relPath))

	p.Metadata = page.Metadata(fields)
	return p, nil
}

// titleFromRelPath derives a fallback title from a content-relative path
// when frontmatter omits one: "getting-started/quick_start.md" -> "Quick Start".
func titleFromRelPath(relPath string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "index" || base == "_index" {
		base = filepath.Base(filepath.Dir(relPath))
	}

	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	if len(words) == 0 {
		return base
	}
	return strings.Join(words, " ")
}

// bestEffortLine returns the 1-based line number of the frontmatter
// opening delimiter, or 1 if it cannot be located.
func bestEffortLine(raw []byte) int {
	if bytes.HasPrefix(raw, []byte("---")) {
		return 1
	}
	return 1
}

func stripBOM(b []byte) []byte {
	const bom = "\xef\xbb\xbf"
	return bytes.TrimPrefix(b, []byte(bom))
}
