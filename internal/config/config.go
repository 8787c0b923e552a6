package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads bengal.yaml from configPath, expands ${VAR} references
// against the process environment (after loading any .env file), then
// normalizes, defaults, and validates the result. An empty configPath
// is not an error: Load returns a fully-defaulted Config as if an
// empty file had been read, so bengal runs configless by default.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "note: no .env file loaded: %v\n", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", configPath)
			}
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if res, err := NormalizeConfig(&cfg); err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	} else {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "config: %s\n", w)
		}
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Init writes an example bengal.yaml to path. If force is false, it
// refuses to overwrite an existing file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Config{
		Site: SiteConfig{
			Title:      "My Site",
			BaseURL:    "https://example.com",
			ContentDir: "./content",
			OutputDir:  "./public",
			CacheDir:   "./.bengal-cache",
			Ignore:     []string{"drafts/**"},
		},
		Build: BuildConfig{
			PerPage:      10,
			RenderMode:   RenderModeAuto,
			RetryBackoff: RetryBackoffLinear,
			MaxRetries:   2,
		},
		Server: ServerConfig{
			Addr:       "localhost:8000",
			LiveReload: true,
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			Color: true,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
