package buildctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentCachePutGet(t *testing.T) {
	c := NewContentCache()
	assert.False(t, c.HasAny())
	c.Put("a.md", "body")
	v, ok := c.Get("a.md")
	assert.True(t, ok)
	assert.Equal(t, "body", v)
	assert.Equal(t, 1, c.Size())
}

func TestKnowledgeGraphDependencies(t *testing.T) {
	g := NewKnowledgeGraph()
	g.AddDependencies("docs/guide/index.html", []string{"docs/guide.md", "docs/_index.md"})
	assert.True(t, g.DependsOn("docs/guide/index.html", "docs/_index.md"))
	assert.ElementsMatch(t, []string{"docs/guide.md", "docs/_index.md"}, g.Dependencies("docs/guide/index.html"))

	affected := g.AffectedOutputs("docs/_index.md")
	assert.Contains(t, affected, "docs/guide/index.html")
}

func TestContextIncrementalScope(t *testing.T) {
	full := New()
	assert.False(t, full.IsIncremental())
	assert.True(t, full.PageChanged("anything.md"))

	inc := NewIncremental([]string{"docs/guide.md"})
	assert.True(t, inc.IsIncremental())
	assert.True(t, inc.PageChanged("docs/guide.md"))
	assert.False(t, inc.PageChanged("docs/other.md"))
}

func TestLazyArtifactsAndTeardown(t *testing.T) {
	c := New()
	c.PutLazyArtifact("toc:guide", []string{"h1", "h2"})
	v, ok := c.LazyArtifact("toc:guide")
	assert.True(t, ok)
	assert.Equal(t, []string{"h1", "h2"}, v)

	c.Teardown()
	_, ok = c.LazyArtifact("toc:guide")
	assert.False(t, ok)
}

func TestProvenanceForIncludesCascadeSources(t *testing.T) {
	c := New()
	c.CascadeSources["docs"] = []string{"docs/_index.md"}
	prov := c.ProvenanceFor("docs/guide.md", "docs")
	assert.ElementsMatch(t, []string{"docs/guide.md", "docs/_index.md"}, prov)
}

func TestHasCachedContentReflectsContentCache(t *testing.T) {
	c := New()
	assert.False(t, c.HasCachedContent())
	c.Content.Put("a.md", "x")
	assert.True(t, c.HasCachedContent())
}
