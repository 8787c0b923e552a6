package config

import "fmt"

// DomainDefaultApplier applies defaults for one configuration section.
type DomainDefaultApplier interface {
	Domain() string
	ApplyDefaults(cfg *Config) error
}

// CompositeDefaultApplier runs every domain applier in sequence.
type CompositeDefaultApplier struct {
	appliers []DomainDefaultApplier
}

// NewDefaultApplier builds the composite applier used by Load.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DomainDefaultApplier{
		&siteDefaultApplier{},
		&buildDefaultApplier{},
		&serverDefaultApplier{},
		&loggingDefaultApplier{},
	}}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

type siteDefaultApplier struct{}

func (siteDefaultApplier) Domain() string { return "site" }

func (siteDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Site
	if s.Title == "" {
		s.Title = "My Site"
	}
	if s.ContentDir == "" {
		s.ContentDir = "./content"
	}
	if s.OutputDir == "" {
		s.OutputDir = "./public"
	}
	if s.CacheDir == "" {
		s.CacheDir = "./.bengal-cache"
	}
	return nil
}

type buildDefaultApplier struct{}

func (buildDefaultApplier) Domain() string { return "build" }

func (buildDefaultApplier) ApplyDefaults(cfg *Config) error {
	b := &cfg.Build
	if b.PerPage <= 0 {
		b.PerPage = 10
	}
	if b.RenderMode == "" {
		b.RenderMode = RenderModeAuto
	}
	if b.RetryBackoff == "" {
		b.RetryBackoff = RetryBackoffLinear
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = 2
	}
	if b.RetryInitialDelay == "" {
		b.RetryInitialDelay = "1s"
	}
	if b.RetryMaxDelay == "" {
		b.RetryMaxDelay = "30s"
	}
	return nil
}

type serverDefaultApplier struct{}

func (serverDefaultApplier) Domain() string { return "server" }

func (serverDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "localhost:8000"
	}
	return nil
}

type loggingDefaultApplier struct{}

func (loggingDefaultApplier) Domain() string { return "logging" }

func (loggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	return nil
}
