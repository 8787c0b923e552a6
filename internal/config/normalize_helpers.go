package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var errConfigNil = errors.New("config: nil config")

func warnChanged(field, from, to string) string {
	return fmt.Sprintf("%s: %q normalized to %q", field, from, to)
}

func warnUnknown(field, raw, fallback string) string {
	return fmt.Sprintf("%s: unrecognized value %q, falling back to %q", field, raw, fallback)
}

// normalizeStringSlice trims, drops empties, dedupes, and sorts a string
// slice, recording a warning when anything actually changed.
func normalizeStringSlice(label string, in []string, res *NormalizationResult) []string {
	if len(in) == 0 {
		return in
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	changed := false

	for _, v := range in {
		t := strings.TrimSpace(v)
		if t == "" {
			changed = true
			continue
		}
		if _, ok := seen[t]; ok {
			changed = true
			continue
		}
		if t != v {
			changed = true
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	sort.Strings(out)
	if !changed {
		for i := range in {
			if in[i] != out[i] {
				changed = true
				break
			}
		}
	}
	if changed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("normalized %s (%d -> %d entries)", label, len(in), len(out)))
	}
	return out
}
