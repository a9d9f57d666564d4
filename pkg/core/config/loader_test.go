package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Success(t *testing.T) {
	yamlConfig := `
compilation:
  backend: zigcc
  cache_dir: /var/cache/zerohop

logging:
  verbose: 1
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "zigcc", cfg.Compilation.Backend)
	assert.Equal(t, "/var/cache/zerohop", cfg.Compilation.CacheDir)
	assert.Equal(t, 1, cfg.Logging.Verbose)
}

func TestParseConfig_EmptyString(t *testing.T) {
	cfg, err := parseConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config YAML is empty")
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	yamlConfig := `
compilation:
  backend: zigcc
  invalid_indentation
`

	cfg, err := parseConfig(yamlConfig)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestParseConfig_PartialConfig(t *testing.T) {
	// Parsing works even with a minimal config; validation is separate.
	yamlConfig := `
strategy:
  min_binary_threshold: 5
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Zero values are present for unset numeric and string fields until
	// SetDefaults runs.
	assert.Equal(t, 0, cfg.Compilation.MaxParallelCompilations)
	assert.Equal(t, 5, cfg.Strategy.MinBinaryThreshold)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(`strategy:
  min_binary_threshold: 7
`)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Strategy.MinBinaryThreshold)
	assert.Equal(t, DefaultCompilationTimeout, cfg.Compilation.CompilationTimeout)
	assert.Equal(t, DefaultCacheDir, cfg.Compilation.CacheDir)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compilation:
  cache_dir: /tmp/zerohop-cache
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/zerohop-cache", cfg.Compilation.CacheDir)
	// Defaulted and validated.
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compilation:
  backend: not-a-real-backend
`), 0o644))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "not-a-real-backend")
}
