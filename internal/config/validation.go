package config

import (
	"errors"
	"fmt"
)

// ValidateConfig checks a normalized, defaulted Config for constraints
// no single field's normalization could enforce on its own.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

// configurationValidator coordinates validation across config sections.
type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateServer(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	s := cv.config.Site
	if s.ContentDir == "" {
		return errors.New("site.content_dir must not be empty")
	}
	if s.OutputDir == "" {
		return errors.New("site.output_dir must not be empty")
	}
	if s.ContentDir == s.OutputDir {
		return fmt.Errorf("site.content_dir and site.output_dir must differ (both %q)", s.ContentDir)
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	b := cv.config.Build
	if b.PerPage < 0 {
		return fmt.Errorf("build.per_page must be >= 0, got %d", b.PerPage)
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("build.max_retries must be >= 0, got %d", b.MaxRetries)
	}
	switch b.RenderMode {
	case RenderModeAuto, RenderModeAlways, RenderModeNever:
	default:
		return fmt.Errorf("build.render_mode %q is not one of auto|always|never", b.RenderMode)
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	if cv.config.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}
