package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaults_AllUnset(t *testing.T) {
	cfg := &Config{}

	SetDefaults(cfg)

	assert.Equal(t, DefaultCompilationTimeout, cfg.Compilation.CompilationTimeout)
	assert.Equal(t, runtime.NumCPU(), cfg.Compilation.MaxParallelCompilations)
	assert.Equal(t, DefaultCacheDir, cfg.Compilation.CacheDir)
	assert.Equal(t, DefaultMaxCacheSizeMB, cfg.Compilation.MaxCacheSizeMB)

	assert.Equal(t, DefaultDeploymentMaxThreads, cfg.Deployment.MaxThreads)
	assert.Equal(t, DefaultDeploymentTimeout, cfg.Deployment.DeploymentTimeout)
	assert.Equal(t, DefaultPartialFailurePolicy, cfg.Deployment.PartialFailurePolicy)

	assert.Equal(t, DefaultMinBinaryThreshold, cfg.Strategy.MinBinaryThreshold)

	assert.Equal(t, DefaultCompressionAlgorithm, cfg.Embedding.CompressionAlgorithm)
	assert.Equal(t, DefaultCompressionThresholdBytes, cfg.Embedding.CompressionThresholdBytes)

	assert.Equal(t, DefaultReportTimeout, cfg.Progress.ReportTimeout)
}

func TestSetDefaults_AllSet(t *testing.T) {
	cfg := &Config{
		Compilation: CompilationConfig{
			CompilationTimeout:      "60s",
			MaxParallelCompilations: 2,
			CacheDir:                "/tmp/custom-cache",
			MaxCacheSizeMB:          512,
		},
		Deployment: DeploymentConfig{
			MaxThreads:           4,
			DeploymentTimeout:    "60s",
			PartialFailurePolicy: "abort",
		},
		Strategy: StrategyConfig{
			MinBinaryThreshold: 10,
		},
		Embedding: EmbeddingConfig{
			CompressionAlgorithm:      "gzip",
			CompressionThresholdBytes: 2048,
		},
		Progress: ProgressConfig{
			ReportTimeout: "5s",
		},
	}

	SetDefaults(cfg)

	assert.Equal(t, "60s", cfg.Compilation.CompilationTimeout)
	assert.Equal(t, 2, cfg.Compilation.MaxParallelCompilations)
	assert.Equal(t, "/tmp/custom-cache", cfg.Compilation.CacheDir)
	assert.Equal(t, 512, cfg.Compilation.MaxCacheSizeMB)

	assert.Equal(t, 4, cfg.Deployment.MaxThreads)
	assert.Equal(t, "60s", cfg.Deployment.DeploymentTimeout)
	assert.Equal(t, "abort", cfg.Deployment.PartialFailurePolicy)

	assert.Equal(t, 10, cfg.Strategy.MinBinaryThreshold)

	assert.Equal(t, "gzip", cfg.Embedding.CompressionAlgorithm)
	assert.Equal(t, 2048, cfg.Embedding.CompressionThresholdBytes)

	assert.Equal(t, "5s", cfg.Progress.ReportTimeout)
}

func TestSetDefaults_PartiallySet(t *testing.T) {
	cfg := &Config{
		Compilation: CompilationConfig{
			CacheDir: "/tmp/custom-cache",
			// CompilationTimeout unset
		},
	}

	SetDefaults(cfg)

	assert.Equal(t, "/tmp/custom-cache", cfg.Compilation.CacheDir)
	assert.Equal(t, DefaultCompilationTimeout, cfg.Compilation.CompilationTimeout)
}

func TestSetDefaults_LoggingConfig(t *testing.T) {
	// Verbose 0 is valid (WARNING) so SetDefaults never overrides it.
	cfg := &Config{Logging: LoggingConfig{}}

	SetDefaults(cfg)

	assert.Equal(t, 0, cfg.Logging.Verbose)
}

func TestSetDefaults_Constants(t *testing.T) {
	assert.Equal(t, "300s", DefaultCompilationTimeout)
	assert.Equal(t, ".cache/zerohop", DefaultCacheDir)
	assert.Equal(t, 1024, DefaultMaxCacheSizeMB)
	assert.Equal(t, 8, DefaultDeploymentMaxThreads)
	assert.Equal(t, "continue", DefaultPartialFailurePolicy)
	assert.Equal(t, 3, DefaultMinBinaryThreshold)
	assert.Equal(t, "zstd", DefaultCompressionAlgorithm)
	assert.Equal(t, 1, DefaultVerbose)
	assert.False(t, DefaultAllowPlaintextSecrets)
}

func TestSetDefaults_IntegrationWithParsing(t *testing.T) {
	yamlConfig := `
compilation:
  cache_dir: /var/cache/zerohop
strategy:
  min_binary_threshold: 5
`

	cfg, err := parseConfig(yamlConfig)
	assert.NoError(t, err)

	// Before SetDefaults, unset fields should be zero.
	assert.Equal(t, "", cfg.Compilation.CompilationTimeout)

	SetDefaults(cfg)

	assert.Equal(t, DefaultCompilationTimeout, cfg.Compilation.CompilationTimeout)
	assert.Equal(t, 5, cfg.Strategy.MinBinaryThreshold)

	assert.NoError(t, cfg.Validate())
}

func TestSetDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}

	SetDefaults(cfg)
	first := cfg.Compilation.CompilationTimeout

	SetDefaults(cfg)
	second := cfg.Compilation.CompilationTimeout

	assert.Equal(t, first, second)
}
