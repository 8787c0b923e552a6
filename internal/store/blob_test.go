package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bengal-ssg/bengal/internal/bengalerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json.zst")

	in := map[string]any{"source_hashes": map[string]any{"a.md": "abc123"}}
	n, err := Save(in, path, DefaultCompressionLevel)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	var out map[string]any
	require.NoError(t, Load(path, &out))
	sources, ok := out["source_hashes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc123", sources["a.md"])
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json.zst")
	require.NoError(t, atomicWrite(path, []byte("not a valid cache blob")))

	var out map[string]any
	err := Load(path, &out)
	require.Error(t, err)
	ce, ok := bengalerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, bengalerrors.CodeCacheVersionMismatch, ce.Code())
}

func TestLoadAutoFallsBackToPlainJSON(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "registry")
	require.NoError(t, os.WriteFile(base+".json", []byte(`{"source_hashes":{"a.md":"abc"}}`), 0o600))

	var out map[string]any
	require.NoError(t, LoadAuto(base, &out))
	sources, ok := out["source_hashes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", sources["a.md"])
}

func TestMigrate(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "registry.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"source_hashes":{}}`), 0o600))

	require.NoError(t, Migrate(jsonPath, true))

	var out map[string]any
	require.NoError(t, Load(filepath.Join(dir, "registry.json.zst"), &out))

	_, err := os.Stat(jsonPath)
	assert.True(t, os.IsNotExist(err))
}
