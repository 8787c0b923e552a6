package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct{ entries map[string]string }

func (f *fakeCache) Put(path, body string) { f.entries[path] = body }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverBuildsSectionTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "_index.md"), "---\ntitle: Home\n---\nwelcome")
	writeFile(t, filepath.Join(root, "about.md"), "---\ntitle: About\n---\nhi")
	writeFile(t, filepath.Join(root, "docs", "_index.md"), "---\ntitle: Docs\ncascade:\n  section: docs\n---\n")
	writeFile(t, filepath.Join(root, "docs", "guide.md"), "---\ntitle: Guide\nweight: 2\n---\nbody")

	cache := &fakeCache{entries: map[string]string{}}
	result, err := Discover(context.Background(), root, cache)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	assert.Equal(t, "Home", result.Root.Index.Title())
	assert.Len(t, result.Root.Pages, 1)
	assert.Equal(t, "About", result.Root.Pages[0].Title())

	require.Len(t, result.Root.Subsections, 1)
	docs := result.Root.Subsections[0]
	assert.Equal(t, "docs", docs.Name)
	require.Len(t, docs.Pages, 1)
	assert.Equal(t, "Guide", docs.Pages[0].Title())
	assert.Equal(t, docs, docs.Pages[0].Section)

	v, ok := docs.Pages[0].CascadeValue("section")
	assert.True(t, ok)
	assert.Equal(t, "docs", v)

	assert.Contains(t, cache.entries, "about.md")
}

func TestDiscoverFillsMissingTitleAndType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "quick_start.md"), "---\nweight: 1\n---\nbody")
	writeFile(t, filepath.Join(root, "has-title.md"), "---\ntitle: Explicit\n---\nbody")

	result, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Root.Pages, 2)

	byPath := map[string]string{}
	for _, p := range result.Root.Pages {
		byPath[p.SourcePath] = p.Title()
	}
	assert.Equal(t, "Quick Start", byPath["quick_start.md"])
	assert.Equal(t, "Explicit", byPath["has-title.md"])

	for _, p := range result.Root.Pages {
		assert.Equal(t, "docs", p.Metadata["type"])
	}
}

func TestTitleFromRelPath(t *testing.T) {
	assert.Equal(t, "Quick Start", titleFromRelPath("guide/quick_start.md"))
	assert.Equal(t, "Guide", titleFromRelPath("guide/_index.md"))
	assert.Equal(t, "About", titleFromRelPath("about.md"))
}

func TestDiscoverBadFrontmatterProducesN001ButKeepsPage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.md"), "---\ntitle: Broken\nno closing delimiter")

	result, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "N001", string(result.Errors[0].Code()))

	require.Len(t, result.Root.Pages, 1)
	assert.Empty(t, result.Root.Pages[0].Metadata)
}

func TestDiscoverStripsBOM(t *testing.T) {
	root := t.TempDir()
	content := "\xef\xbb\xbf---\ntitle: BOM\n---\nbody"
	writeFile(t, filepath.Join(root, "bom.md"), content)

	result, err := Discover(context.Background(), root, nil)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Root.Pages, 1)
	assert.Equal(t, "BOM", result.Root.Pages[0].Title())
}

func TestDiscoverMissingRootIsError(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
