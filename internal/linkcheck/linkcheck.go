// Package linkcheck implements a health check validator (spec component
// C9) that flags internal Markdown links pointing at pages the site
// doesn't actually produce. It is the one concrete validator this build
// engine ships; custom validators register alongside it the same way.
package linkcheck

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bengal-ssg/bengal/internal/buildctx"
	"github.com/bengal-ssg/bengal/internal/health"
	"github.com/bengal-ssg/bengal/internal/markdown"
	"github.com/bengal-ssg/bengal/internal/page"
)

// Validator checks every page's Markdown body for inline/image links
// that resolve (relative to the linking page's source directory) to
// another page's source path, and reports ones that don't match any
// known page. External links (any scheme, or host-relative "//") and
// anchors/mailto are out of scope — this only validates links within
// the site's own content tree.
type Validator struct{}

// New returns a linkcheck validator.
func New() *Validator { return &Validator{} }

func (v *Validator) Name() string { return "linkcheck" }

// IsEnabled runs at every tier; it's cheap (no disk I/O when the build
// context carries cached content) and catches a common authoring mistake.
func (v *Validator) IsEnabled(tier health.Tier) bool { return true }

func (v *Validator) Validate(root *page.Section, bc *buildctx.Context) []health.CheckResult {
	pages := root.WalkPages()

	known := make(map[string]bool, len(pages)*2)
	for _, p := range pages {
		known[path.Clean(p.SourcePath)] = true
		// Authors commonly link to a section by its directory ("guide/"
		// or "guide") rather than its literal "_index.md" source path.
		if strings.EqualFold(path.Base(p.SourcePath), "_index.md") {
			known[path.Dir(p.SourcePath)] = true
		}
	}

	var results []health.CheckResult
	for _, p := range pages {
		if bc != nil && bc.IsIncremental() && !bc.PageChanged(p.SourcePath) {
			continue
		}

		body := p.Body
		if bc != nil && bc.HasCachedContent() {
			if cached, ok := bc.Content.Get(p.SourcePath); ok {
				body = cached
			}
		}

		links, err := markdown.ExtractLinks([]byte(body), markdown.Options{})
		if err != nil {
			results = append(results, health.CheckResult{
				Validator: v.Name(),
				Status:    health.StatusError,
				Message:   fmt.Sprintf("%s: failed to parse links: %v", p.SourcePath, err),
			})
			continue
		}

		for _, link := range links {
			if link.Kind == markdown.LinkKindReferenceDefinition {
				continue
			}
			if !isInternal(link.Destination) {
				continue
			}
			target := resolve(p, link.Destination)
			if target == "" || known[target] {
				continue
			}
			results = append(results, health.CheckResult{
				Validator: v.Name(),
				Status:    health.StatusWarn,
				Message:   fmt.Sprintf("%s: broken internal link %q", p.SourcePath, link.Destination),
			})
		}
	}
	return results
}

// isInternal reports whether dest is a same-site relative link: no
// scheme, not protocol-relative, and not a bare in-page anchor.
func isInternal(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	if strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "mailto:") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == ""
}

// resolve turns a link destination (possibly relative to from's source
// directory) into a content-root-relative path for lookup against known
// page source paths.
func resolve(from *page.Page, dest string) string {
	dest = strings.SplitN(dest, "#", 2)[0]
	dest = strings.SplitN(dest, "?", 2)[0]
	if dest == "" {
		return ""
	}
	if strings.HasPrefix(dest, "/") {
		return path.Clean(strings.TrimPrefix(dest, "/"))
	}
	base := path.Dir(from.SourcePath)
	return path.Clean(path.Join(base, dest))
}
