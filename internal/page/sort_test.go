package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mkPage(title string, weight int, date string) *Page {
	md := Metadata{"title": title, "weight": weight}
	if date != "" {
		md["date"] = date
	}
	return &Page{Metadata: md}
}

func TestSortBlogNewestFirst(t *testing.T) {
	pages := []*Page{
		mkPage("old", 0, "2024-01-01"),
		mkPage("new", 0, "2025-06-01"),
		mkPage("undated", 0, ""),
	}
	sorted := SortBlog(pages)
	assert.Equal(t, "new", sorted[0].Title())
	assert.Equal(t, "old", sorted[1].Title())
	assert.Equal(t, "undated", sorted[2].Title())
}

func TestSortDocsWeightThenTitle(t *testing.T) {
	pages := []*Page{
		mkPage("Zebra", 1, ""),
		mkPage("Alpha", 1, ""),
		mkPage("First", 0, ""),
	}
	sorted := SortDocs(pages)
	assert.Equal(t, []string{"First", "Alpha", "Zebra"}, titles(sorted))
}

func TestSortDiscoveryOrderIsStable(t *testing.T) {
	pages := []*Page{mkPage("b", 0, ""), mkPage("a", 0, "")}
	sorted := SortDiscoveryOrder(pages)
	assert.Equal(t, []string{"b", "a"}, titles(sorted))
}

func TestSortChangelogDateDescThenTitleDesc(t *testing.T) {
	pages := []*Page{
		mkPage("v1.0", 0, "2025-01-01"),
		mkPage("v1.1", 0, "2025-01-01"),
		mkPage("v0.9", 0, "2024-01-01"),
	}
	sorted := SortChangelog(pages)
	assert.Equal(t, []string{"v1.1", "v1.0", "v0.9"}, titles(sorted))
}

func TestStrategyForDefaultsToDiscoveryOrder(t *testing.T) {
	assert.NotNil(t, StrategyFor("unknown-type"))
}

func titles(pages []*Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title()
	}
	return out
}
