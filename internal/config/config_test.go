package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 8080
proxy:
  endpoint: "http://proxy.test/stream"
`))
	require.NoError(t, err)

	assert.Equal(t, float32(0.7), cfg.Proxy.Temperature)
	assert.Equal(t, "openai", cfg.Proxy.Provider)
	assert.Equal(t, 50, cfg.Cache.MaxItems)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "textarea", cfg.Editor.Type)
	assert.Equal(t, 2*time.Second, cfg.Editor.ReadyWithin)
	assert.Equal(t, "memory", cfg.History.Type)
}

func TestLoadLeavesProxyTimeoutUnbounded(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
proxy:
  endpoint: "http://proxy.test/stream"
`))
	require.NoError(t, err)

	// No default here: a zero timeout lets long streams run, bounded only
	// by transport timeouts.
	assert.Equal(t, time.Duration(0), cfg.Proxy.Timeout)
}

func TestLoadHonorsExplicitProxyTimeout(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
proxy:
  endpoint: "http://proxy.test/stream"
  timeout: 90s
`))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Proxy.Timeout)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
