// Package store implements the compressed versioned blob store (one spec
// component) and a content-addressable object store built on top of it
// (the persistence layer the content-hash registry and generated-page
// cache round-trip through).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/bengal-ssg/bengal/internal/bengalerrors"
)

// DefaultCompressionLevel matches the original store's level-3 default:
// a middle ground between ratio and encode speed for frequently-rewritten
// cache files.
const DefaultCompressionLevel = 3

var levelByInt = map[int]zstd.EncoderLevel{
	1: zstd.SpeedFastest,
	2: zstd.SpeedDefault,
	3: zstd.SpeedDefault,
	4: zstd.SpeedBetterCompression,
	5: zstd.SpeedBestCompression,
}

func encoderLevel(level int) zstd.EncoderLevel {
	if l, ok := levelByInt[level]; ok {
		return l
	}
	return zstd.SpeedDefault
}

// Save serializes value to JSON, compresses it with Zstandard, and writes
// it to path atomically (temp file + rename). path conventionally ends in
// ".json.zst". Returns the compressed size written.
func Save(value any, path string, level int) (int, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, bengalerrors.Internal("marshal cache value").WithCause(err).Build()
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(level)))
	if err != nil {
		return 0, bengalerrors.Internal("create zstd encoder").WithCause(err).Build()
	}
	compressed := enc.EncodeAll(raw, nil)
	_ = enc.Close()

	blob := prependHeader(compressed)

	if err := atomicWrite(path, blob); err != nil {
		return 0, bengalerrors.CacheError("write cache blob").
			WithContext("path", path).WithCause(err).Build()
	}
	return len(blob), nil
}

// atomicWrite writes data to a sibling temp file and renames it onto path,
// unlinking the temp file best-effort on any failure before the rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file onto target: %w", err)
	}
	return nil
}

// Load reads and decompresses the blob at path, verifying the version
// header and that the decoded JSON payload is a mapping. Every failure is
// a *bengalerrors.ClassifiedError carrying the matching cache error code.
func Load(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return bengalerrors.CacheError("read cache blob").
			WithContext("path", path).WithCause(err).Build()
	}

	payload, ok := validateHeader(raw)
	if !ok {
		return bengalerrors.CacheVersionMismatch(path)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return bengalerrors.Internal("create zstd decoder").WithCause(err).Build()
	}
	defer dec.Close()

	decompressed, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return bengalerrors.CacheCorruption(path, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(decompressed, &probe); err != nil {
		return bengalerrors.CacheCorruption(path, err)
	}

	if err := json.Unmarshal(decompressed, out); err != nil {
		return bengalerrors.CacheCorruption(path, err)
	}
	return nil
}

// LoadAuto tries the compressed form first, falling back to an
// uncompressed ".json" sibling so existing caches migrate with zero
// friction. basePath must not include an extension.
func LoadAuto(basePath string, out any) error {
	compressedPath := basePath + ".json.zst"
	if _, err := os.Stat(compressedPath); err == nil {
		return Load(compressedPath, out)
	}

	plainPath := basePath + ".json"
	raw, err := os.ReadFile(plainPath)
	if err != nil {
		return bengalerrors.CacheError("read cache blob").
			WithContext("path", plainPath).WithCause(err).Build()
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return bengalerrors.CacheCorruption(plainPath, err)
	}
	return nil
}

// Migrate converts an uncompressed jsonPath into the compressed ".json.zst"
// form, optionally removing the original on success.
func Migrate(jsonPath string, removeOriginal bool) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return bengalerrors.CacheError("read cache blob").
			WithContext("path", jsonPath).WithCause(err).Build()
	}

	var value map[string]json.RawMessage
	if err := json.Unmarshal(raw, &value); err != nil {
		return bengalerrors.CacheCorruption(jsonPath, err)
	}

	compressedPath := trimJSONExt(jsonPath) + ".json.zst"
	if _, err := Save(value, compressedPath, DefaultCompressionLevel); err != nil {
		return err
	}

	if removeOriginal {
		_ = os.Remove(jsonPath)
	}
	return nil
}

func trimJSONExt(path string) string {
	const ext = ".json"
	if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
		return path[:len(path)-len(ext)]
	}
	return path
}
