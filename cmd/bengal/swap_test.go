package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapOutputDirReplacesExisting(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "public")
	staged := filepath.Join(root, "bengal-build-staged")

	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "old.html"), []byte("old"), 0o644))
	require.NoError(t, os.MkdirAll(staged, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "new.html"), []byte("new"), 0o644))

	require.NoError(t, swapOutputDir(staged, target))

	assert.NoFileExists(t, filepath.Join(target, "old.html"))
	assert.FileExists(t, filepath.Join(target, "new.html"))
	assert.NoDirExists(t, staged)
	assert.NoDirExists(t, target+".previous")
}

func TestSwapOutputDirCreatesTargetWhenAbsent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "public")
	staged := filepath.Join(root, "bengal-build-staged")

	require.NoError(t, os.MkdirAll(staged, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "new.html"), []byte("new"), 0o644))

	require.NoError(t, swapOutputDir(staged, target))

	assert.FileExists(t, filepath.Join(target, "new.html"))
}
