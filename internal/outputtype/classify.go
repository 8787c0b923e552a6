// Package outputtype implements the output-type classifier (spec
// component C4): a closed enumeration of output kinds and the pure
// classification function that assigns one to any output path, used by
// the generated-page cache's strategy selection and the reload
// controller's content/aggregate/asset partitioning.
package outputtype

import (
	"path/filepath"
	"strings"
)

// Type is a closed enumeration of output-file categories. It is never
// extended at runtime; new kinds require a new named constant.
type Type string

const (
	// ContentPage is HTML rendered from a Markdown source file — fully cacheable.
	ContentPage Type = "content_page"
	// GeneratedPage is a tag page, section archive, or API-reference index —
	// cached by the combined hash of its member pages.
	GeneratedPage Type = "generated_page"
	// AggregateIndex is index.json / the search index — always regenerated, still hashable.
	AggregateIndex Type = "aggregate_index"
	// AggregateFeed is sitemap.xml / rss.xml / atom.xml — always regenerated, still hashable.
	AggregateFeed Type = "aggregate_feed"
	// AggregateText is llm-full.txt / index.txt — always regenerated, still hashable.
	AggregateText Type = "aggregate_text"
	// Asset is CSS/JS/image/font output — fingerprinted separately.
	Asset Type = "asset"
	// Static is a passthrough file (favicon, robots.txt) copied verbatim.
	Static Type = "static"
)

// namedPatterns classifies by exact output filename.
var namedPatterns = map[string]Type{
	"sitemap.xml":         AggregateFeed,
	"rss.xml":             AggregateFeed,
	"atom.xml":            AggregateFeed,
	"index.json":          AggregateIndex,
	"index.json.hash":     AggregateIndex,
	"llm-full.txt":        AggregateText,
	"index.txt":           AggregateText,
	"asset-manifest.json": Asset,
	"favicon.ico":         Static,
	"robots.txt":          Static,
	".nojekyll":           Static,
	"CNAME":               Static,
}

// assetDirs names directory components treated as asset roots regardless
// of the file extension within them.
var assetDirs = map[string]bool{
	"assets": true, "static": true, "css": true, "js": true, "images": true, "fonts": true,
}

var assetExts = map[string]bool{
	".css": true, ".js": true, ".mjs": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
}

// Classify assigns an output path its Type. generated reports whether the
// page's metadata carries the generated-page marker (spec's "_generated"
// flag), since a generated page's extension alone (.html) would otherwise
// classify it as ContentPage.
//
// Classification order: explicit filename pattern, then the generated
// flag, then file extension, then containing directory, defaulting to
// Static.
func Classify(path string, generated bool) Type {
	name := filepath.Base(path)
	if t, ok := namedPatterns[name]; ok {
		return t
	}
	if generated {
		return GeneratedPage
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" {
		return ContentPage
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if assetDirs[strings.ToLower(part)] {
			return Asset
		}
	}

	if assetExts[ext] {
		return Asset
	}

	return Static
}

// IsAggregate reports whether t is always regenerated regardless of
// content change (so it should not by itself trigger a hot reload).
func IsAggregate(t Type) bool {
	switch t {
	case AggregateIndex, AggregateFeed, AggregateText:
		return true
	default:
		return false
	}
}

// IsContent reports whether t is user-visible content whose change should
// trigger a hot reload.
func IsContent(t Type) bool {
	switch t {
	case ContentPage, GeneratedPage:
		return true
	default:
		return false
	}
}
