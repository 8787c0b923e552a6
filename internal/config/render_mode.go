package config

import "strings"

// RenderMode controls how aggressively the build engine trusts its
// incremental cache.
//
//	auto:   (default) rebuild only pages whose inputs changed.
//	always: force a full rebuild, ignoring the content-hash cache.
//	never:  fail the build when any page had to be re-rendered (a cache
//	        miss) — used by CI drift checks that just want to know
//	        whether the committed output is stale.
type RenderMode string

const (
	RenderModeAuto   RenderMode = "auto"
	RenderModeAlways RenderMode = "always"
	RenderModeNever  RenderMode = "never"
)

// NormalizeRenderMode canonicalizes user input, returning empty string
// for unknown input.
func NormalizeRenderMode(raw string) RenderMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RenderModeAuto):
		return RenderModeAuto
	case string(RenderModeAlways):
		return RenderModeAlways
	case string(RenderModeNever):
		return RenderModeNever
	default:
		return ""
	}
}

// ResolveEffectiveRenderMode returns cfg.Build.RenderMode, defaulting to
// auto for a nil config or an unset mode.
func ResolveEffectiveRenderMode(cfg *Config) RenderMode {
	if cfg == nil || cfg.Build.RenderMode == "" {
		return RenderModeAuto
	}
	return cfg.Build.RenderMode
}

// NormalizeLogLevel canonicalizes user input, returning empty string for
// unknown input.
func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogLevelDebug):
		return LogLevelDebug
	case string(LogLevelInfo):
		return LogLevelInfo
	case string(LogLevelWarn):
		return LogLevelWarn
	case string(LogLevelError):
		return LogLevelError
	default:
		return ""
	}
}
