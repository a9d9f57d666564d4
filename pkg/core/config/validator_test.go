package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{
		Compilation: CompilationConfig{
			Backend:            "",
			CompilationTimeout: "300s",
			CacheDir:           "/var/cache/zerohop",
			MaxCacheSizeMB:     1024,
		},
		Deployment: DeploymentConfig{
			MaxThreads:           8,
			DeploymentTimeout:    "1800s",
			PartialFailurePolicy: "continue",
		},
		Strategy: StrategyConfig{
			MinBinaryThreshold: 3,
			AllowPartial:       true,
		},
		Embedding: EmbeddingConfig{
			CompressionAlgorithm:      "zstd",
			CompressionThresholdBytes: 1024,
		},
		Progress: ProgressConfig{
			ReportTimeout: "10s",
		},
		Logging: LoggingConfig{Verbose: 1},
	}
	SetDefaults(cfg)
	return cfg
}

func TestValidate_Success(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Compilation.Backend = "gcc"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compilation.backend")
}

func TestValidate_InvalidCompilationTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Compilation.CompilationTimeout = "not-a-duration"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compilation.compilation_timeout")
}

func TestValidate_NonPositiveMaxParallelCompilations(t *testing.T) {
	cfg := validConfig()
	cfg.Compilation.MaxParallelCompilations = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallel_compilations")
}

func TestValidate_EmptyCacheDir(t *testing.T) {
	cfg := validConfig()
	cfg.Compilation.CacheDir = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache_dir")
}

func TestValidate_UnknownPartialFailurePolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Deployment.PartialFailurePolicy = "ignore"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "partial_failure_policy")
}

func TestValidate_NonPositiveMaxThreads(t *testing.T) {
	cfg := validConfig()
	cfg.Deployment.MaxThreads = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_threads")
}

func TestValidate_NonPositiveMinBinaryThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Strategy.MinBinaryThreshold = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_binary_threshold")
}

func TestValidate_UnknownCompressionAlgorithm(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.CompressionAlgorithm = "brotli"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compression_algorithm")
}

func TestValidate_NegativeCompressionThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.CompressionThresholdBytes = -1

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compression_threshold_bytes")
}

func TestValidate_ControllerEndpointMissingScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Progress.ControllerEndpoint = "controller.example.com"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "controller_endpoint")
}

func TestValidate_InvalidVerbose(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Verbose = 3

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.verbose")
}

func TestValidate_AggregatesMultipleViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Compilation.Backend = "bogus"
	cfg.Deployment.MaxThreads = 0
	cfg.Logging.Verbose = -1

	err := cfg.Validate()
	assert.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3)
}
