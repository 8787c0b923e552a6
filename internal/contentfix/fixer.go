// Package contentfix walks a content tree and normalizes each page's
// frontmatter in place: filling a uid and stable alias, a type/title/date
// when missing, and the canonical content fingerprint (bumping lastmod
// when it changes). It is the on-disk counterpart to the in-memory
// defaulting discovery applies during a build — here the result is
// written back to the source file, so it is an explicit, opt-in action
// rather than something every build performs.
package contentfix

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bengal-ssg/bengal/internal/frontmatterops"
)

var markdownExts = map[string]bool{".md": true, ".markdown": true}

// FileResult reports what changed (or failed) for a single source file.
type FileResult struct {
	Path    string
	Changed bool
	Err     error
}

// Report summarizes a fix pass over a content tree.
type Report struct {
	Files    []FileResult
	Changed  int
	DryRun   bool
}

// Fix walks root, applying frontmatter normalization to every markdown
// file it finds. now is used for the date/lastmod defaults; callers pass
// a fixed value so the operation stays reproducible in tests. When
// dryRun is true, no file is written — FileResult.Changed still reports
// what would have changed.
func Fix(root string, now time.Time, dryRun bool) (*Report, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if markdownExts[filepathExt(path)] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content tree: %w", err)
	}
	sort.Strings(paths)

	report := &Report{DryRun: dryRun}
	for _, path := range paths {
		res := fixFile(path, now, dryRun)
		report.Files = append(report.Files, res)
		if res.Changed {
			report.Changed++
		}
	}
	return report, nil
}

func fixFile(path string, now time.Time, dryRun bool) FileResult {
	res := FileResult{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res
	}

	fields, body, had, style, err := frontmatterops.Read(raw)
	if err != nil {
		res.Err = fmt.Errorf("parse frontmatter in %s: %w", path, err)
		return res
	}
	if !had {
		fields = map[string]any{}
	}

	changed := false
	if frontmatterops.EnsureTypeDocs(fields) {
		changed = true
	}
	if frontmatterops.EnsureTitle(fields, titleFallback(path)) {
		changed = true
	}
	if frontmatterops.EnsureDate(fields, time.Time{}, now) {
		changed = true
	}
	if _, uidChanged, err := frontmatterops.EnsureUID(fields); err != nil {
		res.Err = fmt.Errorf("ensure uid in %s: %w", path, err)
		return res
	} else if uidChanged {
		changed = true
	}
	if uid, ok := fields["uid"].(string); ok {
		if aliasChanged, err := frontmatterops.EnsureUIDAlias(fields, uid); err == nil && aliasChanged {
			changed = true
		}
	}
	if _, fpChanged, err := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, body, now); err != nil {
		res.Err = fmt.Errorf("compute fingerprint for %s: %w", path, err)
		return res
	} else if fpChanged {
		changed = true
	}

	res.Changed = changed
	if !changed || dryRun {
		return res
	}

	out, err := frontmatterops.Write(fields, body, true, style)
	if err != nil {
		res.Err = fmt.Errorf("serialize frontmatter for %s: %w", path, err)
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = fmt.Errorf("stat %s: %w", path, err)
		return res
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		res.Err = fmt.Errorf("write %s: %w", path, err)
		return res
	}
	return res
}

func titleFallback(path string) string {
	base := filepath.Base(path)
	base = base[:len(base)-len(filepathExt(path))]
	if base == "index" || base == "_index" {
		base = filepath.Base(filepath.Dir(path))
	}
	return base
}

func filepathExt(path string) string {
	ext := filepath.Ext(path)
	for i, r := range ext {
		if r >= 'A' && r <= 'Z' {
			ext = ext[:i] + string(r+32) + ext[i+1:]
		}
	}
	return ext
}
