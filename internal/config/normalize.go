package config

import "path/filepath"

// NormalizationResult captures adjustments made by the normalization
// pass, surfaced to the caller as warnings rather than errors.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and path
// fields prior to default application. It mutates cfg in place.
func NormalizeConfig(cfg *Config) (*NormalizationResult, error) {
	if cfg == nil {
		return nil, errConfigNil
	}
	res := &NormalizationResult{}
	normalizeBuild(&cfg.Build, res)
	normalizeLogging(&cfg.Logging, res)
	normalizeSitePaths(&cfg.Site, res)
	return res, nil
}

func normalizeBuild(b *BuildConfig, res *NormalizationResult) {
	if rm := NormalizeRenderMode(string(b.RenderMode)); rm != "" {
		if b.RenderMode != rm {
			res.Warnings = append(res.Warnings, warnChanged("build.render_mode", string(b.RenderMode), string(rm)))
		}
		b.RenderMode = rm
	} else if b.RenderMode != "" {
		res.Warnings = append(res.Warnings, warnUnknown("build.render_mode", string(b.RenderMode), string(RenderModeAuto)))
		b.RenderMode = RenderModeAuto
	}

	if rb := NormalizeRetryBackoff(string(b.RetryBackoff)); rb != "" {
		b.RetryBackoff = rb
	} else if b.RetryBackoff != "" {
		res.Warnings = append(res.Warnings, warnUnknown("build.retry_backoff", string(b.RetryBackoff), string(RetryBackoffLinear)))
		b.RetryBackoff = RetryBackoffLinear
	}

	if b.Parallelism < 0 {
		b.Parallelism = 0
	}
	if b.MaxRetries < 0 {
		b.MaxRetries = 0
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		l.Level = lvl
	} else if l.Level != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
}

// normalizeSitePaths cleans any directory field the user supplied,
// leaving unset fields for the default appliers to fill in.
func normalizeSitePaths(s *SiteConfig, res *NormalizationResult) {
	clean := func(label string, p *string) {
		if *p == "" {
			return
		}
		cleaned := filepath.Clean(*p)
		if cleaned != *p {
			res.Warnings = append(res.Warnings, warnChanged(label, *p, cleaned))
			*p = cleaned
		}
	}
	clean("site.content_dir", &s.ContentDir)
	clean("site.output_dir", &s.OutputDir)
	clean("site.template_dir", &s.TemplateDir)
	clean("site.asset_dir", &s.AssetDir)
	clean("site.cache_dir", &s.CacheDir)
	s.Ignore = normalizeStringSlice("site.ignore", s.Ignore, res)
}
