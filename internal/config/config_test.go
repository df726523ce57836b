package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "CONFIG_PATH", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "config.yml", cfg.ConfigPath)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("CONFIG_PATH", "/etc/quill/site.yml")
	t.Setenv("LOG_FORMAT", "Console")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.ListenAddr, "listen address from port")
	assert.Equal(t, "/etc/quill/site.yml", cfg.ConfigPath)
	assert.Equal(t, "console", cfg.LogFormat)
}
