package changeclass

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCreatedContentIsFullRebuild(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(content, 0o755))

	result := Classify([]Change{{Path: filepath.Join(content, "new.md"), Type: EventCreated}},
		content, filepath.Join(root, "templates"), false, nil)
	assert.Equal(t, FullRebuild, result.Decision)
}

func TestClassifyTemplateChangeIsFullRebuild(t *testing.T) {
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))

	result := Classify([]Change{{Path: filepath.Join(templates, "base.html"), Type: EventModified}},
		filepath.Join(root, "content"), templates, false, nil)
	assert.Equal(t, FullRebuild, result.Decision)
}

func TestClassifyContentOnlyIsWarmIncremental(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(content, 0o755))
	p := filepath.Join(content, "guide.md")
	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: Guide\n---\nbody"), 0o644))

	result := Classify([]Change{{Path: p, Type: EventModified}},
		content, filepath.Join(root, "templates"), false, NewFrontmatterCache())
	assert.Equal(t, WarmIncremental, result.Decision)
	assert.Equal(t, []string{p}, result.ChangedPagePaths)
}

func TestClassifyNavKeyChangeEscalatesToFullRebuild(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(content, 0o755))
	p := filepath.Join(content, "guide.md")
	require.NoError(t, os.WriteFile(p, []byte("---\nweight: 5\n---\nbody"), 0o644))

	result := Classify([]Change{{Path: p, Type: EventModified}},
		content, filepath.Join(root, "templates"), false, NewFrontmatterCache())
	assert.Equal(t, FullRebuild, result.Decision)
}

func TestClassifyPureAssetsWithFastPathIsFragmentUpdate(t *testing.T) {
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	require.NoError(t, os.MkdirAll(assets, 0o755))
	p := filepath.Join(assets, "style.css")
	require.NoError(t, os.WriteFile(p, []byte("body{}"), 0o644))

	result := Classify([]Change{{Path: p, Type: EventModified}},
		filepath.Join(root, "content"), filepath.Join(root, "templates"), true, nil)
	assert.Equal(t, FragmentUpdate, result.Decision)
}

func TestClassifyMixedUnrelatedChangesIsFullRebuild(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "bengal.yaml")

	result := Classify([]Change{{Path: p, Type: EventModified}},
		filepath.Join(root, "content"), filepath.Join(root, "templates"), false, nil)
	assert.Equal(t, FullRebuild, result.Decision)
}

func TestClassifyEmptyBatchIsWarmIncremental(t *testing.T) {
	result := Classify(nil, "content", "templates", false, nil)
	assert.Equal(t, WarmIncremental, result.Decision)
}
