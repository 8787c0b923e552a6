package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{}
	require := NewDefaultApplier()
	_ = require.ApplyDefaults(cfg)
	return cfg
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfigRejectsEmptyContentDir(t *testing.T) {
	cfg := validConfig()
	cfg.Site.ContentDir = ""
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsNegativePerPage(t *testing.T) {
	cfg := validConfig()
	cfg.Build.PerPage = -1
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsBadRenderMode(t *testing.T) {
	cfg := validConfig()
	cfg.Build.RenderMode = "nonsense"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsEmptyServerAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Addr = ""
	assert.Error(t, ValidateConfig(cfg))
}
