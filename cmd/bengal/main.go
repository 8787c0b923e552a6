// Command bengal is the CLI entry point for the build engine: build,
// serve (dev server with live reload), validate (health checks), and
// cache maintenance.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/bengal-ssg/bengal/internal/buildctx"
	"github.com/bengal-ssg/bengal/internal/buildqueue"
	"github.com/bengal-ssg/bengal/internal/changeclass"
	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/contenthash"
	"github.com/bengal-ssg/bengal/internal/eventstore"
	"github.com/bengal-ssg/bengal/internal/genpagecache"
	"github.com/bengal-ssg/bengal/internal/health"
	"github.com/bengal-ssg/bengal/internal/linkcheck"
	"github.com/bengal-ssg/bengal/internal/metrics"
	"github.com/bengal-ssg/bengal/internal/orchestrator"
	"github.com/bengal-ssg/bengal/internal/page"
	"github.com/bengal-ssg/bengal/internal/reload"
	"github.com/bengal-ssg/bengal/internal/retry"
	"github.com/bengal-ssg/bengal/internal/version"
	"github.com/bengal-ssg/bengal/internal/workspace"
	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CLI is the root command definition & global flags.
type CLI struct {
	Content  string           `short:"c" help:"Content directory" default:"./content"`
	Output   string           `short:"o" help:"Output directory" default:"./public"`
	CacheDir string           `name:"cache" help:"Cache directory (empty disables persistence)" default:"./.bengal-cache"`
	Config   string           `name:"config" help:"Path to bengal.yaml (optional; flags override its values)" default:""`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site once"`
	Serve    ServeCmd    `cmd:"" help:"Serve the site with live reload, rebuilding on change"`
	Validate ValidateCmd `cmd:"" help:"Run health checks against the content tree"`
	Cache    CacheCmd    `cmd:"" help:"Inspect or clear the build caches"`
	History  HistoryCmd  `cmd:"" help:"Show recent build history"`
	Fix      FixCmd      `cmd:"" help:"Normalize frontmatter across the content tree"`

	// cfg is the resolved bengal.yaml, loaded in AfterApply. Flags that
	// were left at their kong default defer to the config file; an
	// explicitly-passed flag always wins.
	cfg *config.Config
}

func (c *CLI) AfterApply() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	if c.Content == "./content" {
		c.Content = cfg.Site.ContentDir
	}
	if c.Output == "./public" {
		c.Output = cfg.Site.OutputDir
	}
	if c.CacheDir == "./.bengal-cache" {
		c.CacheDir = cfg.Site.CacheDir
	}

	level := slog.LevelInfo
	if c.Verbose || cfg.Logging.Level == config.LogLevelDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// BuildCmd runs one full build and exits.
type BuildCmd struct {
	Templates string `help:"Template directory" default:""`
	Assets    string `help:"Assets directory" default:""`
	PerPage   int    `help:"Pagination page size" default:"10"`
	Atomic    bool   `help:"Stage output in a workspace dir and swap it into place on success" default:"true"`
}

func (b *BuildCmd) Run(root *CLI) error {
	mode := config.ResolveEffectiveRenderMode(root.cfg)
	cacheDir := root.CacheDir
	if mode == config.RenderModeAlways {
		cacheDir = "" // bypass the incremental cache for this run
	}

	outputDir := root.Output
	var ws *workspace.Manager
	if b.Atomic {
		ws = workspace.NewManager(filepath.Dir(root.Output))
		if err := ws.Create(); err != nil {
			return fmt.Errorf("stage build workspace: %w", err)
		}
		outputDir = ws.GetPath()
	}

	tracker := newBuildTracker(root)
	defer tracker.close()
	buildID := newBuildID()
	ctx := context.Background()
	tracker.started(ctx, buildID, eventstore.BuildStartedMeta{RenderMode: string(mode), Atomic: b.Atomic})

	builder := newBuilder(root, b.Templates, b.Assets, b.PerPage, cacheDir)
	builder.Config.OutputDir = outputDir
	builder.Config.Recorder.SetEffectiveRenderMode(string(mode))

	start := time.Now()
	report, err := builder.Build(ctx)
	tracker.finished(ctx, buildID, report, err, time.Since(start), map[string]string{"output": root.Output})
	if err != nil {
		if ws != nil {
			_ = ws.Cleanup()
		}
		return fmt.Errorf("build: %w", err)
	}
	slog.Info("build complete", "pages", report.PagesBuilt, "errors", len(report.Errors), "cache_hits", report.CacheHits, "cache_misses", report.CacheMisses)

	if mode == config.RenderModeNever && report.CacheMisses > 0 {
		if ws != nil {
			_ = ws.Cleanup()
		}
		return fmt.Errorf("build: %d page(s) are stale but render_mode is %q; rerun without that mode to rebuild them", report.CacheMisses, mode)
	}

	if ws != nil {
		if err := swapOutputDir(ws.GetPath(), root.Output); err != nil {
			return fmt.Errorf("swap build output into place: %w", err)
		}
	}
	return nil
}

// swapOutputDir replaces target with staged using two renames (both
// atomic on the same filesystem) rather than an in-place overwrite, so a
// reader never sees a half-written output directory.
func swapOutputDir(staged, target string) error {
	previous := target + ".previous"
	_ = os.RemoveAll(previous)

	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, previous); err != nil {
			return fmt.Errorf("move aside previous output: %w", err)
		}
	}

	if err := os.Rename(staged, target); err != nil {
		_ = os.Rename(previous, target) // best-effort restore
		return fmt.Errorf("move staged output into place: %w", err)
	}

	_ = os.RemoveAll(previous)
	return nil
}

// ValidateCmd runs the health-check registry's default validators
// against a discovered content tree without writing output.
type ValidateCmd struct {
	Tier string `help:"Validator tier: build, full, or ci" default:"build" enum:"build,full,ci"`
}

func (v *ValidateCmd) Run(root *CLI) error {
	builder := newBuilder(root, "", "", 10, root.CacheDir)
	registry := health.NewRegistry()
	registry.Register(linkcheck.New())
	builder.Validator = &registryValidator{registry: registry, tier: health.Tier(v.Tier)}

	report, err := builder.Build(context.Background())
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("build produced %d error(s) during validation pass", len(report.Errors))
	}
	return nil
}

// registryValidator adapts health.Registry (tier-gated, parallel) to the
// single-error orchestrator.Validator hook the build pipeline invokes at
// phase 9.
type registryValidator struct {
	registry *health.Registry
	tier     health.Tier
}

func (a *registryValidator) Validate(ctx context.Context, root *page.Section, bc *buildctx.Context) error {
	healthReport := a.registry.Run(a.tier, root, bc)
	var failed []string
	for _, res := range healthReport.Results {
		if res.Status == health.StatusError {
			failed = append(failed, fmt.Sprintf("%s: %s", res.Validator, res.Message))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d health check(s) failed: %v", len(failed), failed)
	}
	return nil
}

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Delete all persisted cache state"`
	GC    CacheGCCmd    `cmd:"" help:"Prune cache entries whose source files no longer exist"`
}

type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(root *CLI) error {
	if root.CacheDir == "" {
		return nil
	}
	if err := os.RemoveAll(root.CacheDir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	slog.Info("cache cleared", "dir", root.CacheDir)
	return nil
}

type CacheGCCmd struct{}

func (c *CacheGCCmd) Run(root *CLI) error {
	return runCacheGC(root)
}

func runCacheGC(root *CLI) error {
	if root.CacheDir == "" {
		return nil
	}
	registryPath := filepath.Join(root.CacheDir, "content_hash_registry")
	pageCachePath := filepath.Join(root.CacheDir, "generated_page_cache")

	registry := contenthash.Load(registryPath)
	removed := registry.PruneMissingSources(func(p string) bool {
		_, err := os.Stat(filepath.Join(root.Content, p))
		return err == nil
	})
	if err := registry.Save(registryPath); err != nil {
		return fmt.Errorf("save pruned registry: %w", err)
	}

	pageCache := genpagecache.Load(pageCachePath, genpagecache.DefaultHTMLCacheThreshold)
	if err := pageCache.Save(pageCachePath); err != nil {
		return fmt.Errorf("save page cache: %w", err)
	}

	slog.Info("cache gc complete", "sources_removed", removed)
	return nil
}

// ServeCmd runs the dev server: an fsnotify watcher feeding the change
// classifier and build trigger, with reload decisions broadcast over
// whatever transport the caller wires in (left as an exercise for the
// HTTP layer; this command drives the build/reload decision loop only).
type ServeCmd struct {
	Templates   string `help:"Template directory" default:""`
	Assets      string `help:"Assets directory" default:""`
	PerPage     int    `help:"Pagination page size" default:"10"`
	MetricsAddr string `help:"Address to serve Prometheus /metrics on (empty disables)" default:""`

	RebuildInterval time.Duration `help:"Periodic full-rebuild interval (0 disables)" default:"0"`
	GCInterval      time.Duration `help:"Periodic cache-GC interval (0 disables)" default:"30m"`
}

func (s *ServeCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	builder := newBuilder(root, s.Templates, s.Assets, s.PerPage, root.CacheDir)
	if s.MetricsAddr != "" {
		reg := prom.NewRegistry()
		builder.Config.Recorder = metrics.NewPrometheusRecorder(reg)
		metricsSrv := &http.Server{Addr: s.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("metrics server stopped", "error", err)
			}
		}()
		defer func() { _ = metricsSrv.Close() }()
	}
	reloadCtl := reload.New()
	tracker := newBuildTracker(root)
	defer tracker.close()

	fmCache := changeclass.NewFrontmatterCache()
	fragmentFastPath := s.Templates == "" // no custom templates to invalidate fragment rendering

	trig := buildqueue.New(func(ctx context.Context, changes []changeclass.Change) error {
		decision := changeclass.Classify(changes, root.Content, s.Templates, fragmentFastPath, fmCache)
		slog.Info("build triggered", "decision", decision.Decision, "changed_pages", len(decision.ChangedPagePaths))

		buildID := newBuildID()
		mode := config.ResolveEffectiveRenderMode(root.cfg)
		tracker.started(ctx, buildID, eventstore.BuildStartedMeta{RenderMode: string(mode)})
		start := time.Now()
		report, err := builder.Build(ctx)
		tracker.finished(ctx, buildID, report, err, time.Since(start), map[string]string{"output": root.Output})
		if err != nil {
			return err
		}
		rdecision := reloadCtl.Decide(root.Output)
		slog.Info("build finished", "pages", report.PagesBuilt, "reload_action", rdecision.Action, "reload_reason", rdecision.Reason)
		return nil
	}, nil)
	trig.RetryPolicy = retry.FromConfig(root.cfg.Build)

	housekeeping, err := buildqueue.NewHousekeeping(ctx, trig,
		func(ctx context.Context) error { trig.TriggerBuild(ctx, nil); return nil },
		func(ctx context.Context) error { return runCacheGC(root) },
		s.RebuildInterval, s.GCInterval)
	if err != nil {
		return fmt.Errorf("start housekeeping: %w", err)
	}
	defer func() { _ = housekeeping.Stop() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, root.Content); err != nil {
		return err
	}
	if s.Templates != "" {
		_ = addDirsRecursive(watcher, s.Templates)
	}

	trig.TriggerBuild(ctx, nil)
	slog.Info("serving", "content", root.Content, "output", root.Output)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			trig.TriggerBuild(ctx, []changeclass.Change{{Path: ev.Name, Type: fsEventToChangeType(ev.Op)}})
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", werr)
		}
	}
}

func fsEventToChangeType(op fsnotify.Op) changeclass.EventType {
	switch {
	case op&fsnotify.Create != 0:
		return changeclass.EventCreated
	case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
		return changeclass.EventDeleted
	default:
		return changeclass.EventModified
	}
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			_ = watcher.Add(path)
		}
		return nil
	})
}

func newBuilder(root *CLI, templates, assets string, perPage int, cacheDir string) *orchestrator.Builder {
	return orchestrator.NewBuilder(orchestrator.Config{
		ContentDir:    root.Content,
		TemplateDir:   templates,
		AssetsDir:     assets,
		OutputDir:     root.Output,
		CacheDir:      cacheDir,
		Site:          map[string]any{"title": root.cfg.Site.Title, "base_url": root.cfg.Site.BaseURL},
		PerPage:       perPage,
		RenderWorkers: root.cfg.Build.Parallelism,
	})
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("bengal"),
		kong.Description("An incremental static-site build engine."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
