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

package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError aggregates every configuration violation found by
// Validate, rather than stopping at the first one, so a user fixing a
// config file sees the whole list in one pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration (%d violation(s)):\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

var validBackends = map[string]bool{"": true, "native": true, "zigcc": true, "ssh-fallback": true}
var validPartialFailurePolicies = map[string]bool{"abort": true, "continue": true, "rollback": true}
var validCompressionAlgorithms = map[string]bool{"none": true, "gzip": true, "lz4": true, "zstd": true}

// Validate performs structural validation on the configuration, aggregating
// every violation found across all sections into a single *ValidationError
// instead of failing fast on the first problem.
//
// Must be called after SetDefaults, so zero-valued duration/int fields are
// treated as misconfiguration rather than "not yet defaulted".
func (c *Config) Validate() error {
	var violations []string

	violations = append(violations, validateCompilation(&c.Compilation)...)
	violations = append(violations, validateDeployment(&c.Deployment)...)
	violations = append(violations, validateStrategy(&c.Strategy)...)
	violations = append(violations, validateEmbedding(&c.Embedding)...)
	violations = append(violations, validateProgress(&c.Progress)...)
	violations = append(violations, validateLogging(&c.Logging)...)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func validateCompilation(cc *CompilationConfig) []string {
	var v []string

	if !validBackends[cc.Backend] {
		v = append(v, fmt.Sprintf("compilation.backend: unknown backend %q (must be one of native, zigcc, ssh-fallback, or empty for automatic selection)", cc.Backend))
	}

	if _, err := parseDuration("compilation.compilation_timeout", cc.CompilationTimeout); err != nil {
		v = append(v, err.Error())
	}

	if cc.MaxParallelCompilations < 1 {
		v = append(v, fmt.Sprintf("compilation.max_parallel_compilations: must be >= 1, got %d", cc.MaxParallelCompilations))
	}

	if cc.CacheDir == "" {
		v = append(v, "compilation.cache_dir: must not be empty")
	}

	if cc.MaxCacheSizeMB < 1 {
		v = append(v, fmt.Sprintf("compilation.max_cache_size_mb: must be >= 1, got %d", cc.MaxCacheSizeMB))
	}

	return v
}

func validateDeployment(dc *DeploymentConfig) []string {
	var v []string

	if dc.MaxThreads < 1 {
		v = append(v, fmt.Sprintf("deployment.max_threads: must be >= 1, got %d", dc.MaxThreads))
	}

	if _, err := parseDuration("deployment.deployment_timeout", dc.DeploymentTimeout); err != nil {
		v = append(v, err.Error())
	}

	if !validPartialFailurePolicies[dc.PartialFailurePolicy] {
		v = append(v, fmt.Sprintf("deployment.partial_failure_policy: unknown policy %q (must be one of abort, continue, rollback)", dc.PartialFailurePolicy))
	}

	return v
}

func validateStrategy(sc *StrategyConfig) []string {
	var v []string

	if sc.MinBinaryThreshold < 1 {
		v = append(v, fmt.Sprintf("strategy.min_binary_threshold: must be >= 1, got %d", sc.MinBinaryThreshold))
	}

	return v
}

func validateEmbedding(ec *EmbeddingConfig) []string {
	var v []string

	if !validCompressionAlgorithms[ec.CompressionAlgorithm] {
		v = append(v, fmt.Sprintf("embedding.compression_algorithm: unknown algorithm %q (must be one of none, gzip, lz4, zstd)", ec.CompressionAlgorithm))
	}

	if ec.CompressionThresholdBytes < 0 {
		v = append(v, fmt.Sprintf("embedding.compression_threshold_bytes: must be >= 0, got %d", ec.CompressionThresholdBytes))
	}

	return v
}

func validateProgress(pc *ProgressConfig) []string {
	var v []string

	if pc.ControllerEndpoint != "" && !strings.HasPrefix(pc.ControllerEndpoint, "http://") && !strings.HasPrefix(pc.ControllerEndpoint, "https://") {
		v = append(v, fmt.Sprintf("progress.controller_endpoint: must start with http:// or https://, got %q", pc.ControllerEndpoint))
	}

	if _, err := parseDuration("progress.report_timeout", pc.ReportTimeout); err != nil {
		v = append(v, err.Error())
	}

	return v
}

func validateLogging(lc *LoggingConfig) []string {
	if lc.Verbose < 0 || lc.Verbose > 2 {
		return []string{fmt.Sprintf("logging.verbose: must be 0 (WARNING), 1 (INFO), or 2 (DEBUG), got %d", lc.Verbose)}
	}
	return nil
}

// parseDuration validates a Go duration string field, returning a
// descriptive violation on failure so callers can append it to the
// aggregated violation list.
func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("%s: must not be empty", field)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %v", field, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %q", field, value)
	}
	return d, nil
}
