package genpagecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldRegenerateNoEntry(t *testing.T) {
	c := New(0)
	assert.True(t, c.ShouldRegenerate("tag", "python", []string{"a.md"}, map[string]string{"a.md": "h1"}, ""))
}

func TestShouldRegenerateContentUnchanged(t *testing.T) {
	c := New(0)
	members := []string{"content/a.md", "content/b.md"}
	cache := map[string]string{"content/a.md": "h1", "content/b.md": "h2"}

	c.Update("tag", "python", members, cache, "<html>short</html>", 12, "")
	assert.False(t, c.ShouldRegenerate("tag", "python", members, cache, ""))

	cache["content/a.md"] = "h1-changed"
	assert.True(t, c.ShouldRegenerate("tag", "python", members, cache, ""))
}

func TestShouldRegenerateTemplateChanged(t *testing.T) {
	c := New(0)
	members := []string{"content/a.md"}
	cache := map[string]string{"content/a.md": "h1"}

	c.Update("tag", "python", members, cache, "<html></html>", 1, "tmpl-v1")
	assert.False(t, c.ShouldRegenerate("tag", "python", members, cache, "tmpl-v1"))
	assert.True(t, c.ShouldRegenerate("tag", "python", members, cache, "tmpl-v2"))
}

func TestUpdateRespectsHTMLThreshold(t *testing.T) {
	c := New(10) // tiny threshold
	c.Update("tag", "python", nil, nil, "this html is definitely over ten bytes", 1, "")

	_, ok := c.GetCachedHTML("tag", "python")
	assert.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "generated_page_cache")

	c := New(0)
	members := []string{"content/a.md"}
	cache := map[string]string{"content/a.md": "h1"}
	c.Update("section-archive", "docs", members, cache, "<html>ok</html>", 5, "")
	require.NoError(t, c.Save(path))

	loaded := Load(path, 0)
	assert.False(t, loaded.ShouldRegenerate("section-archive", "docs", members, cache, ""))
	html, ok := loaded.GetCachedHTML("section-archive", "docs")
	require.True(t, ok)
	assert.Equal(t, "<html>ok</html>", html)
}
