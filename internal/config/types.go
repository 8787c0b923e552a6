// Package config loads and validates bengal.yaml, the build engine's
// project configuration file: site metadata, build tuning, the dev
// server, and logging. It follows the same load pipeline shape as the
// teacher's config package (normalize, apply defaults, validate) but
// scoped to what an incremental static-site build actually needs.
package config

// Config is the root of bengal.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig holds site identity and the directory layout a build reads
// from and writes to.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	BaseURL     string         `yaml:"base_url"`
	ContentDir  string         `yaml:"content_dir"`
	OutputDir   string         `yaml:"output_dir"`
	TemplateDir string         `yaml:"template_dir"`
	AssetDir    string         `yaml:"asset_dir"`
	CacheDir    string         `yaml:"cache_dir"`
	Ignore      []string       `yaml:"ignore,omitempty"`
	UnknownKeys map[string]any `yaml:",inline"`
}

// BuildConfig holds build performance and incremental-rebuild tuning.
type BuildConfig struct {
	PerPage           int              `yaml:"per_page,omitempty"`
	Parallelism       int              `yaml:"parallelism,omitempty"`
	RenderMode        RenderMode       `yaml:"render_mode,omitempty"` // auto|always|never
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
	UnknownKeys       map[string]any   `yaml:",inline"`
}

// ServerConfig holds the dev server's listen address and reload policy.
type ServerConfig struct {
	Addr        string         `yaml:"addr,omitempty"`
	LiveReload  bool           `yaml:"live_reload"`
	UnknownKeys map[string]any `yaml:",inline"`
}

// LoggingConfig holds the two env-overridable knobs spec'd for this
// tool: verbosity and whether output is colorized.
type LoggingConfig struct {
	Level       LogLevel       `yaml:"level,omitempty"`
	Color       bool           `yaml:"color"`
	UnknownKeys map[string]any `yaml:",inline"`
}

// LogLevel enumerates the supported logging verbosities.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
