package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, "copilot_agent", cfg.Cache.Namespace)
	assert.Equal(t, 30*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.ResponseTTL)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)

	for _, name := range []string{"hrservice", "inventoryservice", "accountingservice", "workflowservice"} {
		assert.NotEmpty(t, cfg.Services[name].BaseURL, "default base url for %s", name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
services:
  hrservice:
    base_url: http://hr.internal:8000
cache:
  namespace: test_agent
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://hr.internal:8000", cfg.Services["hrservice"].BaseURL)
	assert.Equal(t, "test_agent", cfg.Cache.Namespace)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://localhost:5004", cfg.Services["workflowservice"].BaseURL)
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
