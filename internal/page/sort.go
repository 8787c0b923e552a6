package page

import "sort"

// SortStrategy is a pure function defining a section's page iteration
// order for list/archive rendering, keyed by content type.
type SortStrategy func(pages []*Page) []*Page

// Strategies is the closed registry of content-type sort strategies
// (spec §4.8 "Determinism"): blog = date-desc, docs = weight-asc then
// title, api-ref = discovery order (stable, no reordering), changelog =
// date-desc then title-desc.
var Strategies = map[string]SortStrategy{
	"blog":      SortBlog,
	"docs":      SortDocs,
	"api-ref":   SortDiscoveryOrder,
	"changelog": SortChangelog,
}

// StrategyFor returns the sort strategy for a content type, defaulting
// to discovery order (a stable no-op) for unknown types.
func StrategyFor(contentType string) SortStrategy {
	if s, ok := Strategies[contentType]; ok {
		return s
	}
	return SortDiscoveryOrder
}

func copyPages(pages []*Page) []*Page {
	out := make([]*Page, len(pages))
	copy(out, pages)
	return out
}

// SortBlog orders pages by date, newest first. Pages without a date sort
// to the end.
func SortBlog(pages []*Page) []*Page {
	out := copyPages(pages)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date(), out[j].Date()
		if di.IsZero() && dj.IsZero() {
			return false
		}
		if di.IsZero() {
			return false
		}
		if dj.IsZero() {
			return true
		}
		return di.After(dj)
	})
	return out
}

// SortDocs orders pages by weight ascending, then title ascending.
func SortDocs(pages []*Page) []*Page {
	out := copyPages(pages)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Weight(), out[j].Weight()
		if wi != wj {
			return wi < wj
		}
		return out[i].Title() < out[j].Title()
	})
	return out
}

// SortDiscoveryOrder leaves pages in the order discovery produced them.
func SortDiscoveryOrder(pages []*Page) []*Page {
	return copyPages(pages)
}

// SortChangelog orders pages by date descending, then title descending.
func SortChangelog(pages []*Page) []*Page {
	out := copyPages(pages)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date(), out[j].Date()
		if !di.Equal(dj) {
			if di.IsZero() {
				return false
			}
			if dj.IsZero() {
				return true
			}
			return di.After(dj)
		}
		return out[i].Title() > out[j].Title()
	})
	return out
}
