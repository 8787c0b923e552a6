package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the build-affecting, normalized
// configuration fields. It deliberately excludes fields that don't
// change what gets rendered (server address, log level) so a caller
// can use it as part of a cache key without busting the cache on
// every cosmetic config edit. Callers should run NormalizeConfig and
// NewDefaultApplier().ApplyDefaults first so equivalent configs hash
// identically.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	w("site.title", c.Site.Title)
	w("site.base_url", c.Site.BaseURL)
	w("site.content_dir", c.Site.ContentDir)
	w("site.ignore", strings.Join(c.Site.Ignore, ","))
	w("build.per_page", strconv.Itoa(c.Build.PerPage))
	w("build.render_mode", string(c.Build.RenderMode))

	return hex.EncodeToString(h.Sum(nil))
}
