package config

import "runtime"

// Default values for configuration fields.
const (
	// DefaultCompilationBackend selects a backend automatically when unset.
	DefaultCompilationBackend = ""

	// DefaultZigBuildFallback enables falling back from zigcc to native.
	DefaultZigBuildFallback = true

	// DefaultCompilationTimeout bounds a single backend invocation.
	DefaultCompilationTimeout = "300s"

	// DefaultCacheDir is the binary cache root when unset.
	DefaultCacheDir = ".cache/zerohop"

	// DefaultMaxCacheSizeMB is the binary cache size before eviction.
	DefaultMaxCacheSizeMB = 1024

	// DefaultDeploymentMaxThreads bounds concurrent host deployments.
	DefaultDeploymentMaxThreads = 8

	// DefaultDeploymentTimeout bounds one host's full deployment sequence.
	DefaultDeploymentTimeout = "1800s"

	// DefaultPartialFailurePolicy is the plan-level response to per-host failures.
	DefaultPartialFailurePolicy = "continue"

	// DefaultMinBinaryThreshold is the starting K value.
	DefaultMinBinaryThreshold = 3

	// DefaultAllowPartial permits PartiallyCompatible tasks into descriptors.
	DefaultAllowPartial = true

	// DefaultCompressionAlgorithm is the embedder's default compression choice.
	DefaultCompressionAlgorithm = "zstd"

	// DefaultCompressionThresholdBytes is the size gate for compression.
	DefaultCompressionThresholdBytes = 1024

	// DefaultAllowPlaintextSecrets forbids the "none" encryption method
	// unless explicitly enabled.
	DefaultAllowPlaintextSecrets = false

	// DefaultReportTimeout bounds each progress-event POST.
	DefaultReportTimeout = "10s"

	// DefaultVerbose is the default log level (1 = INFO).
	DefaultVerbose = 1
)

// SetDefaults applies default values to unset configuration fields.
// This modifies the config in-place and should be called after parsing
// the configuration and before validation.
func SetDefaults(cfg *Config) {
	if cfg.Compilation.CompilationTimeout == "" {
		cfg.Compilation.CompilationTimeout = DefaultCompilationTimeout
	}
	if cfg.Compilation.MaxParallelCompilations == 0 {
		cfg.Compilation.MaxParallelCompilations = runtime.NumCPU()
	}
	if cfg.Compilation.CacheDir == "" {
		cfg.Compilation.CacheDir = DefaultCacheDir
	}
	if cfg.Compilation.MaxCacheSizeMB == 0 {
		cfg.Compilation.MaxCacheSizeMB = DefaultMaxCacheSizeMB
	}
	// ZigBuildFallback defaults to true; only a config file explicitly
	// setting it to false should disable it, which SetDefaults cannot
	// distinguish from the zero value, so the loader applies this default
	// before YAML unmarshal overwrites it with an explicit false.

	if cfg.Deployment.MaxThreads == 0 {
		cfg.Deployment.MaxThreads = DefaultDeploymentMaxThreads
	}
	if cfg.Deployment.DeploymentTimeout == "" {
		cfg.Deployment.DeploymentTimeout = DefaultDeploymentTimeout
	}
	if cfg.Deployment.PartialFailurePolicy == "" {
		cfg.Deployment.PartialFailurePolicy = DefaultPartialFailurePolicy
	}

	if cfg.Strategy.MinBinaryThreshold == 0 {
		cfg.Strategy.MinBinaryThreshold = DefaultMinBinaryThreshold
	}

	if cfg.Embedding.CompressionAlgorithm == "" {
		cfg.Embedding.CompressionAlgorithm = DefaultCompressionAlgorithm
	}
	if cfg.Embedding.CompressionThresholdBytes == 0 {
		cfg.Embedding.CompressionThresholdBytes = DefaultCompressionThresholdBytes
	}

	if cfg.Progress.ReportTimeout == "" {
		cfg.Progress.ReportTimeout = DefaultReportTimeout
	}

	// Logging.Verbose level 0 is valid (WARNING), so SetDefaults leaves it
	// alone; the loader seeds DefaultVerbose before YAML unmarshal instead.
	// AllowPartial, ZigBuildFallback, and AllowPlaintextSecrets are booleans
	// whose defaults are applied by the loader before YAML overrides them.
}
