// Package orchestrator implements the build orchestrator (spec
// component C8): the strictly ordered phase pipeline that turns a
// discovered content tree into rendered output, persisting the C2/C3
// caches via C1 as a best-effort final step. Persistence runs
// synchronously on the calling goroutine before Build returns; it is not
// handed off to a background worker.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/bengal-ssg/bengal/internal/bengalerrors"
	"github.com/bengal-ssg/bengal/internal/buildctx"
	"github.com/bengal-ssg/bengal/internal/contenthash"
	"github.com/bengal-ssg/bengal/internal/discovery"
	"github.com/bengal-ssg/bengal/internal/genpagecache"
	"github.com/bengal-ssg/bengal/internal/logfields"
	"github.com/bengal-ssg/bengal/internal/metrics"
	"github.com/bengal-ssg/bengal/internal/observability"
	"github.com/bengal-ssg/bengal/internal/outputtype"
	"github.com/bengal-ssg/bengal/internal/page"
)

// Config carries the resolved paths and options for one build, the
// phase-1 "init & config resolution" result.
type Config struct {
	ContentDir  string
	TemplateDir string // optional; falls back to a built-in default template
	AssetsDir   string // optional
	OutputDir   string
	CacheDir    string // optional; "" disables cache persistence

	Site map[string]any // site-wide template values (title, base URL, ...)

	PerPage         int // paginator page size; 0 disables pagination
	RenderWorkers   int // 0 picks runtime.GOMAXPROCS(0)
	ForceSequential bool

	Recorder metrics.Recorder // nil defaults to a no-op recorder
}

func (c *Config) resolveDefaults() {
	if c.PerPage <= 0 {
		c.PerPage = 10
	}
	if c.RenderWorkers <= 0 {
		c.RenderWorkers = runtime.GOMAXPROCS(0)
	}
	if c.Recorder == nil {
		c.Recorder = metrics.NoopRecorder{}
	}
}

// Validator lets the health check orchestrator (C9) hook into phase 9
// without orchestrator depending on internal/health's concrete types.
type Validator interface {
	Validate(ctx context.Context, root *page.Section, bc *buildctx.Context) error
}

// Builder runs one build's full phase pipeline, owning the long-lived
// C2/C3 caches across incremental rebuilds.
type Builder struct {
	Config Config

	Registry *contenthash.Registry
	PageCache *genpagecache.Cache
	Validator Validator

	errSession *bengalerrors.Session
	tmpl       *template.Template
}

// NewBuilder constructs a Builder, loading the C2/C3 caches from
// Config.CacheDir if present (tolerant: a missing or corrupt cache
// yields an empty one, never an error).
func NewBuilder(cfg Config) *Builder {
	cfg.resolveDefaults()
	b := &Builder{Config: cfg, errSession: bengalerrors.NewSession(20)}

	if cfg.CacheDir != "" {
		b.Registry = contenthash.Load(filepath.Join(cfg.CacheDir, "content_hash_registry"))
		b.PageCache = genpagecache.Load(filepath.Join(cfg.CacheDir, "generated_page_cache"), genpagecache.DefaultHTMLCacheThreshold)
	} else {
		b.Registry = contenthash.New()
		b.PageCache = genpagecache.New(genpagecache.DefaultHTMLCacheThreshold)
	}

	return b
}

// Build runs the full 8-phase pipeline (plus validation and cache
// persistence) and returns the resulting Report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := newReport()
	bc := buildctx.New()
	rec := b.Config.Recorder

	buildStart := time.Now()
	defer func() { rec.ObserveBuildDuration(time.Since(buildStart)) }()

	// Phase 1: init & config resolution already happened in NewBuilder;
	// re-validate here since Config may have been mutated between calls.
	b.Config.resolveDefaults()
	rec = b.Config.Recorder

	// Phase 2: discovery.
	discStart := time.Now()
	discResult, err := discovery.Discover(ctx, b.Config.ContentDir, bc.Content)
	rec.ObserveStageDuration("discovery", time.Since(discStart))
	if err != nil {
		rec.IncStageResult("discovery", metrics.ResultFatal)
		rec.IncBuildOutcome(metrics.BuildOutcomeFailed)
		report.Errors = append(report.Errors, err)
		report.finish()
		return report, err
	}
	for _, discErr := range discResult.Errors {
		b.errSession.ShouldDisplay(discErr, "discovery", "", "discover") // recorded for the build's diagnostic summary
		report.Errors = append(report.Errors, discErr)
	}
	root := discResult.Root

	// Phase 3: section finalization.
	b.finalizeSections(root)

	// Phase 4: taxonomy & generated-page assembly.
	tagPages := b.buildTagPages(root)
	archivePages := b.paginateArchives(root)

	// Phase 5: render.
	renderStart := time.Now()
	allPages := collectPages(root)
	allPages = append(allPages, tagPages...)
	allPages = append(allPages, archivePages...)
	b.renderPages(ctx, allPages, bc, report)
	rec.ObserveStageDuration("render", time.Since(renderStart))

	// Phase 6: postprocess (aggregates).
	postStart := time.Now()
	b.writeSitemap(allPages, report)
	rec.ObserveStageDuration("postprocess", time.Since(postStart))

	// Phase 7: asset processing.
	assetStart := time.Now()
	b.processAssets(report)
	rec.ObserveStageDuration("assets", time.Since(assetStart))

	// Phase 8: output emit & summary.
	report.PagesBuilt = len(allPages)
	report.Skipped = report.PagesBuilt == 0 && len(report.ChangedOutputs) == 0

	// Phase 9: validation hook.
	if b.Validator != nil {
		if verr := b.Validator.Validate(ctx, root, bc); verr != nil {
			observability.WarnContext(ctx, "validation reported issues", logfields.Error(verr))
		}
	}

	// Phase 10: persist caches, best-effort, synchronously before returning.
	b.persistCaches(ctx)

	report.finish()

	switch {
	case len(report.Errors) > 0:
		rec.IncStageResult("render", metrics.ResultFatal)
		rec.IncBuildOutcome(metrics.BuildOutcomeFailed)
	case report.Skipped:
		rec.IncBuildOutcome(metrics.BuildOutcomeSkipped)
	default:
		rec.IncStageResult("render", metrics.ResultSuccess)
		rec.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	}

	return report, nil
}

// finalizeSections ensures every section has an index page, synthesizing
// an archive page where one was not authored, and sorts each section's
// member pages per its content-type strategy.
func (b *Builder) finalizeSections(root *page.Section) {
	var walk func(s *page.Section)
	walk = func(s *page.Section) {
		if s.Index == nil {
			sourcePath := "_index.md"
			if p := s.Path(); p != "" {
				sourcePath = p + "/_index.md"
			}
			s.Index = &page.Page{
				SourcePath:    sourcePath,
				Generated:     true,
				GeneratedType: "section-archive",
				GeneratedID:   s.Path(),
				Metadata:      page.Metadata{"title": sectionTitle(s)},
				Section:       s,
			}
		}
		contentType := s.Index.Metadata.GetString("content_type")
		s.Pages = page.StrategyFor(contentType)(s.Pages)
		for _, child := range s.Subsections {
			walk(child)
		}
	}
	walk(root)
}

func sectionTitle(s *page.Section) string {
	if s.Name == "" {
		return "Home"
	}
	words := strings.Fields(strings.ReplaceAll(s.Name, "-", " "))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// buildTagPages assembles one generated page per distinct "tags" value
// found across the tree, paginated per Config.PerPage (spec-supplemented
// feature #3), consulting C3 before rendering.
func (b *Builder) buildTagPages(root *page.Section) []*page.Page {
	byTag := map[string][]*page.Page{}
	for _, p := range collectPages(root) {
		tags, _ := p.Metadata["tags"].([]any)
		for _, t := range tags {
			if s, ok := t.(string); ok {
				byTag[s] = append(byTag[s], p)
			}
		}
	}

	tagNames := make([]string, 0, len(byTag))
	for t := range byTag {
		tagNames = append(tagNames, t)
	}
	sort.Strings(tagNames)

	var pages []*page.Page
	for _, tag := range tagNames {
		members := byTag[tag]
		memberPaths := make([]string, len(members))
		for i, m := range members {
			memberPaths[i] = m.SourcePath
		}

		paginator := page.NewPaginator(members, b.Config.PerPage)
		numPages := paginator.NumPages()

		for n := 1; n <= numPages; n++ {
			info, err := paginator.Page(n)
			if err != nil {
				continue // unreachable: n is always within [1, numPages]
			}

			sourcePath := "tags/" + tag
			generatedID := tag
			if n > 1 {
				sourcePath = fmt.Sprintf("tags/%s/page/%d", tag, n)
				generatedID = fmt.Sprintf("%s/page/%d", tag, n)
			}
			title := "Tag: " + tag
			if numPages > 1 {
				title = fmt.Sprintf("Tag: %s (page %d of %d)", tag, n, numPages)
			}

			pages = append(pages, &page.Page{
				SourcePath:    sourcePath,
				Generated:     true,
				GeneratedType: "tag",
				GeneratedID:   generatedID,
				Metadata:      page.Metadata{"title": title, "_members": memberPaths, "_member_pages": info.Items, "_pagination": info},
				Body:          archiveListing(info.Items),
			})
		}
	}
	return pages
}

// paginateArchives splits every synthesized section archive's member
// pages into Config.PerPage-sized chunks (spec-supplemented feature #3):
// the section's own Index page becomes archive page 1 in place, and any
// overflow pages (page/2, page/3, ...) are returned for the caller to
// fold into the render set.
func (b *Builder) paginateArchives(root *page.Section) []*page.Page {
	var extra []*page.Page
	var walk func(s *page.Section)
	walk = func(s *page.Section) {
		if s.Index != nil && s.Index.Generated && s.Index.GeneratedType == "section-archive" {
			extra = append(extra, b.paginateArchive(s)...)
		}
		for _, child := range s.Subsections {
			walk(child)
		}
	}
	walk(root)
	return extra
}

// paginateArchive handles one section: it fills s.Index (archive page 1)
// in place and returns any additional overflow pages.
func (b *Builder) paginateArchive(s *page.Section) []*page.Page {
	paginator := page.NewPaginator(s.Pages, b.Config.PerPage)
	numPages := paginator.NumPages()

	first, err := paginator.Page(1)
	if err != nil {
		return nil // unreachable: page 1 always exists
	}
	s.Index.Metadata["_member_pages"] = first.Items
	s.Index.Metadata["_pagination"] = first
	s.Index.Body = archiveListing(first.Items)

	if numPages <= 1 {
		return nil
	}

	title := s.Index.Title()
	extra := make([]*page.Page, 0, numPages-1)
	for n := 2; n <= numPages; n++ {
		info, perr := paginator.Page(n)
		if perr != nil {
			continue // unreachable: n is always within [1, numPages]
		}
		extra = append(extra, &page.Page{
			SourcePath:    fmt.Sprintf("%s/page/%d", s.Path(), n),
			Generated:     true,
			GeneratedType: "section-archive-page",
			GeneratedID:   fmt.Sprintf("%s/page/%d", s.Path(), n),
			Metadata:      page.Metadata{"title": fmt.Sprintf("%s (page %d of %d)", title, n, numPages), "_member_pages": info.Items, "_pagination": info},
			Body:          archiveListing(info.Items),
			Section:       s,
		})
	}
	return extra
}

// archiveListing renders a flat Markdown link list for a page of
// archive/tag members; the default page template converts it to HTML
// like any other page body.
func archiveListing(items []*page.Page) string {
	var buf strings.Builder
	for _, p := range items {
		fmt.Fprintf(&buf, "- [%s](/%s)\n", p.Title(), outputPathFor(p))
	}
	return buf.String()
}

func collectPages(s *page.Section) []*page.Page {
	var out []*page.Page
	if s.Index != nil {
		out = append(out, s.Index)
	}
	out = append(out, s.Pages...)
	for _, child := range s.Subsections {
		out = append(out, collectPages(child)...)
	}
	return out
}

// renderPages renders each page not short-circuited by the generated-page
// cache, in parallel up to Config.RenderWorkers.
func (b *Builder) renderPages(ctx context.Context, pages []*page.Page, bc *buildctx.Context, report *Report) {
	workers := b.Config.RenderWorkers
	if b.Config.ForceSequential {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, p := range pages {
		p := p
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			html, cacheHit, err := b.renderOne(p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, err)
				if classified, ok := bengalerrors.AsClassified(err); ok {
					b.errSession.ShouldDisplay(classified, "render", "", "render")
				}
				return
			}
			if cacheHit {
				report.CacheHits++
			} else {
				report.CacheMisses++
			}
			outPath := p.OutputPath
			t := outputtype.Classify(outPath, p.Generated)
			report.addChangedOutput(outPath, t, PhaseRender)

			if outPath != "" {
				if werr := writeOutput(b.Config.OutputDir, outPath, html); werr != nil {
					report.Errors = append(report.Errors, werr)
					return
				}
			}

			hash := contenthash.CombineHashes(map[string]string{p.SourcePath: html})
			p.ContentHash = hash
			b.Registry.UpdateSource(p.SourcePath, hash)
			b.Registry.UpdateOutput(outPath, hash, string(t))
		}()
	}
	wg.Wait()
}

// renderOne renders a single page to HTML, consulting the generated-page
// cache for generated pages.
func (b *Builder) renderOne(p *page.Page) (html string, cacheHit bool, err error) {
	p.OutputPath = outputPathFor(p)

	if p.Generated {
		members, _ := p.Metadata["_member_pages"].([]*page.Page)
		memberHashes := map[string]string{}
		for _, m := range members {
			memberHashes[m.SourcePath] = b.Registry.GetSourceHash(m.SourcePath)
		}
		memberPaths := make([]string, 0, len(memberHashes))
		for k := range memberHashes {
			memberPaths = append(memberPaths, k)
		}

		if !b.PageCache.ShouldRegenerate(p.GeneratedType, p.GeneratedID, memberPaths, memberHashes, "") {
			if cached, ok := b.PageCache.GetCachedHTML(p.GeneratedType, p.GeneratedID); ok {
				return cached, true, nil
			}
		}

		rendered, rerr := b.renderHTML(p)
		if rerr != nil {
			return "", false, rerr
		}
		b.PageCache.Update(p.GeneratedType, p.GeneratedID, memberPaths, memberHashes, rendered, 0, "")
		return rendered, false, nil
	}

	rendered, rerr := b.renderHTML(p)
	return rendered, false, rerr
}

// outputPathFor maps a page's SourcePath to its rendered location.
// Authored and synthesized section-archive indices both carry a literal
// "_index.md" suffix and resolve to their directory's index.html rather
// than a nested one; every other SourcePath (including generated tag and
// archive-overflow pages, which have none) becomes SourcePath/index.html.
func outputPathFor(p *page.Page) string {
	trimmed := strings.TrimSuffix(p.SourcePath, filepath.Ext(p.SourcePath))
	if strings.EqualFold(filepath.Base(trimmed), "_index") {
		dir := filepath.Dir(trimmed)
		if dir == "." {
			return "index.html"
		}
		return dir + "/index.html"
	}
	return trimmed + "/index.html"
}

// renderHTML converts a page's Markdown body and wraps it in the
// configured (or default) HTML template.
func (b *Builder) renderHTML(p *page.Page) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(p.Body), &buf); err != nil {
		return "", bengalerrors.RenderError(err.Error()).WithPath(p.SourcePath, 0).Build()
	}

	tmpl, err := b.template()
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	data := map[string]any{
		"Title":   p.Title(),
		"Content": template.HTML(buf.String()),
		"Page":    p,
		"Site":    b.Config.Site,
	}
	if err := tmpl.Execute(&out, data); err != nil {
		return "", bengalerrors.TemplateError(bengalerrors.RenderOutputError, err.Error()).WithPath(p.SourcePath, 0).Build()
	}
	return out.String(), nil
}

const defaultPageTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<meta name="bengal:content-hash" content="{{.Page.ContentHash}}"></head>
<body>{{.Content}}</body></html>`

func (b *Builder) template() (*template.Template, error) {
	if b.tmpl != nil {
		return b.tmpl, nil
	}
	if b.Config.TemplateDir != "" {
		if data, err := os.ReadFile(filepath.Join(b.Config.TemplateDir, "page.html")); err == nil {
			t, terr := template.New("page").Parse(string(data))
			if terr == nil {
				b.tmpl = t
				return t, nil
			}
		}
	}
	t, err := template.New("page").Parse(defaultPageTemplate)
	if err != nil {
		return nil, err
	}
	b.tmpl = t
	return t, nil
}

func writeOutput(outputDir, relPath, html string) error {
	full := filepath.Join(outputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(html), 0o644)
}

// writeSitemap emits sitemap.xml as a function of the final page set; its
// content hash is tracked but it is always re-emitted (spec's aggregate
// classification).
func (b *Builder) writeSitemap(pages []*page.Page, report *Report) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range pages {
		if p.OutputPath == "" {
			continue
		}
		fmt.Fprintf(&buf, "  <url><loc>/%s</loc></url>\n", p.OutputPath)
	}
	buf.WriteString(`</urlset>` + "\n")

	if err := writeOutput(b.Config.OutputDir, "sitemap.xml", buf.String()); err != nil {
		report.Errors = append(report.Errors, err)
		return
	}
	report.addChangedOutput("sitemap.xml", outputtype.AggregateFeed, PhasePostprocess)
	b.Registry.UpdateOutput("sitemap.xml", contenthash.CombineHashes(map[string]string{"sitemap.xml": buf.String()}), string(outputtype.AggregateFeed))
}

// processAssets copies the assets tree verbatim into an assets/ directory
// under the output root.
func (b *Builder) processAssets(report *Report) {
	if b.Config.AssetsDir == "" {
		return
	}
	_ = filepath.Walk(b.Config.AssetsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(b.Config.AssetsDir, path)
		if rerr != nil {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			report.Errors = append(report.Errors, rerr)
			return nil
		}
		outRel := filepath.ToSlash(filepath.Join("assets", rel))
		if werr := writeOutput(b.Config.OutputDir, outRel, string(data)); werr != nil {
			report.Errors = append(report.Errors, werr)
			return nil
		}
		report.addChangedOutput(outRel, outputtype.Classify(outRel, false), PhaseAssets)
		return nil
	})
}

// persistCaches writes C2 and C3 through C1, logging (not failing) on
// error.
func (b *Builder) persistCaches(ctx context.Context) {
	if b.Config.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(b.Config.CacheDir, 0o755); err != nil {
		observability.WarnContext(ctx, "failed to create cache dir", logfields.Path(b.Config.CacheDir), logfields.Error(err))
		return
	}
	if err := b.Registry.Save(filepath.Join(b.Config.CacheDir, "content_hash_registry")); err != nil {
		observability.WarnContext(ctx, "failed to persist content hash registry", logfields.Error(err))
	}
	if err := b.PageCache.Save(filepath.Join(b.Config.CacheDir, "generated_page_cache")); err != nil {
		observability.WarnContext(ctx, "failed to persist generated page cache", logfields.Error(err))
	}
}
