// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides data models for zerohop's configuration file.
//
// These models represent the structure of the YAML configuration consumed by
// every subcommand in cmd/zerohop.
package config

// Config is the root configuration structure loaded from the config file.
type Config struct {
	// Compilation configures the compilation orchestrator.
	Compilation CompilationConfig `yaml:"compilation"`

	// Deployment configures the deployment driver.
	Deployment DeploymentConfig `yaml:"deployment"`

	// Strategy configures the strategy planner.
	Strategy StrategyConfig `yaml:"strategy"`

	// Embedding configures the data embedder.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Progress configures the progress reporter.
	Progress ProgressConfig `yaml:"progress"`

	// Logging configures logging behavior.
	Logging LoggingConfig `yaml:"logging"`
}

// CompilationConfig configures backend selection, timeouts, concurrency, and the
// on-disk binary cache.
type CompilationConfig struct {
	// Backend pins compilation to a single backend name ("native", "zigcc",
	// "ssh-fallback"). Empty selects automatically per the backend-selection
	// rule.
	Backend string `yaml:"backend"`

	// ZigBuildFallback enables falling back to the native backend when the
	// zigcc backend fails.
	// Default: true
	ZigBuildFallback bool `yaml:"zigbuild_fallback"`

	// CompilationTimeout bounds a single backend invocation.
	// Format: Go duration string (e.g., "300s", "5m")
	// Default: 300s
	CompilationTimeout string `yaml:"compilation_timeout"`

	// MaxParallelCompilations bounds concurrent builds.
	// Default: number of CPUs
	MaxParallelCompilations int `yaml:"max_parallel_compilations"`

	// CacheDir is the root of the on-disk binary cache.
	// Default: .cache/zerohop (relative to the working directory)
	CacheDir string `yaml:"cache_dir"`

	// MaxCacheSizeMB is the aggregate binary cache size before LRU eviction
	// kicks in, evicting down to 50% of this limit.
	// Default: 1024
	MaxCacheSizeMB int `yaml:"max_cache_size_mb"`
}

// DeploymentConfig configures the deployment driver's transport, concurrency,
// and timeouts.
type DeploymentConfig struct {
	// MaxThreads bounds concurrent (binary, host) deployment pairs.
	// Default: 8
	MaxThreads int `yaml:"max_threads"`

	// DeploymentTimeout bounds one host's full transfer-verify-execute-cleanup
	// sequence.
	// Format: Go duration string (e.g., "1800s", "30m")
	// Default: 1800s
	DeploymentTimeout string `yaml:"deployment_timeout"`

	// PartialFailurePolicy selects the plan-level response to per-host
	// failures: "abort", "continue", or "rollback".
	// Default: continue
	PartialFailurePolicy string `yaml:"partial_failure_policy"`
}

// StrategyConfig configures the strategy planner's thresholds.
type StrategyConfig struct {
	// MinBinaryThreshold is the starting minimum number of qualifying tasks
	// (K) a target-triple partition needs before a binary descriptor is
	// emitted for it. Subject to dynamic adjustment.
	// Default: 3
	MinBinaryThreshold int `yaml:"min_binary_threshold"`

	// AllowPartial permits PartiallyCompatible tasks into a binary
	// descriptor's task set.
	// Default: true
	AllowPartial bool `yaml:"allow_partial"`
}

// EmbeddingConfig configures the data embedder.
type EmbeddingConfig struct {
	// CompressionAlgorithm selects "none", "gzip", "lz4", or "zstd".
	// Default: zstd
	CompressionAlgorithm string `yaml:"compression_algorithm"`

	// CompressionThresholdBytes is the minimum payload size before
	// compression is applied.
	// Default: 1024
	CompressionThresholdBytes int `yaml:"compression_threshold_bytes"`

	// AllowPlaintextSecrets must be explicitly true for the "none" secret
	// encryption method to be accepted.
	// Default: false
	AllowPlaintextSecrets bool `yaml:"allow_plaintext_secrets"`
}

// ProgressConfig configures the progress reporter.
type ProgressConfig struct {
	// ControllerEndpoint, if set, receives one HTTP POST per progress event
	// at "/api/v1/progress".
	ControllerEndpoint string `yaml:"controller_endpoint"`

	// ReportTimeout bounds each progress-event POST.
	// Format: Go duration string (e.g., "10s")
	// Default: 10s
	ReportTimeout string `yaml:"report_timeout"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Verbose controls log level: 0=WARNING, 1=INFO, 2=DEBUG
	// Default: 1
	Verbose int `yaml:"verbose"`
}
