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

// Package errs provides the typed error taxonomy for zerohop's eight
// error-reporting subsystems (plan, inventory, analysis, template, embed,
// compilation, deployment, cache), each with a closed-string Kind, a
// human message, an optional wrapped Cause, and actionable Hints.
package errs

import "fmt"

// PlanErrorKind enumerates plan parse/validate failure kinds.
type PlanErrorKind string

const (
	PlanErrorInvalidJSON       PlanErrorKind = "invalid-json"
	PlanErrorInvalidYAML       PlanErrorKind = "invalid-yaml"
	PlanErrorSchemaViolation   PlanErrorKind = "schema-violation"
	PlanErrorMissingDependency PlanErrorKind = "missing-dependency"
	PlanErrorCycle             PlanErrorKind = "cycle"
)

// PlanError represents a plan parse or validation failure.
type PlanError struct {
	Kind    PlanErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *PlanError) Error() string { return formatError("plan", string(e.Kind), e.Message, e.Cause) }
func (e *PlanError) Unwrap() error { return e.Cause }

// NewCycleError reports a dependency cycle in the task graph.
func NewCycleError(cycle []string) *PlanError {
	return &PlanError{
		Kind:    PlanErrorCycle,
		Message: fmt.Sprintf("circular dependency detected: %v", cycle),
		Hints: []string{
			"Remove one of the dependency edges in the reported cycle",
			"Dependencies must form a directed acyclic graph",
		},
	}
}

// NewMissingDependencyError reports a task referencing an unknown dependency id.
func NewMissingDependencyError(taskID, depID string) *PlanError {
	return &PlanError{
		Kind:    PlanErrorMissingDependency,
		Message: fmt.Sprintf("task %q depends on unknown task %q", taskID, depID),
		Hints:   []string{"Every id in dependencies must refer to a task in the same plan"},
	}
}

// InventoryErrorKind enumerates inventory ingestion failure kinds.
type InventoryErrorKind string

const (
	InventoryErrorInvalidFormat       InventoryErrorKind = "invalid-format"
	InventoryErrorDuplicateHost       InventoryErrorKind = "duplicate-host"
	InventoryErrorMissingGroup        InventoryErrorKind = "missing-group"
	InventoryErrorCircularGroup       InventoryErrorKind = "circular-group"
	InventoryErrorMissingArchitecture InventoryErrorKind = "missing-architecture"
)

// InventoryError represents a failure ingesting or resolving an inventory.
type InventoryError struct {
	Kind    InventoryErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *InventoryError) Error() string {
	return formatError("inventory", string(e.Kind), e.Message, e.Cause)
}
func (e *InventoryError) Unwrap() error { return e.Cause }

// NewCircularGroupError reports a cycle in group parentage.
func NewCircularGroupError(cycle []string) *InventoryError {
	return &InventoryError{
		Kind:    InventoryErrorCircularGroup,
		Message: fmt.Sprintf("circular group inheritance detected: %v", cycle),
		Hints:   []string{"Group children references must not form a cycle"},
	}
}

// NewMissingArchitectureError reports a host with insufficient target info.
func NewMissingArchitectureError(host string) *InventoryError {
	return &InventoryError{
		Kind:    InventoryErrorMissingArchitecture,
		Message: fmt.Sprintf("host %q has no target_triple, ansible_architecture/ansible_os_family, or usable connection default", host),
		Hints: []string{
			"Set target_triple explicitly on the host or a parent group",
			"Set ansible_architecture and ansible_os_family variables",
		},
	}
}

// AnalysisErrorKind enumerates strategy-analysis failure kinds.
type AnalysisErrorKind string

const (
	AnalysisErrorInsufficientData     AnalysisErrorKind = "insufficient-data"
	AnalysisErrorInvalidConfig        AnalysisErrorKind = "invalid-config"
	AnalysisErrorPerfPredictionFailed AnalysisErrorKind = "performance-prediction-failed"
)

// AnalysisError represents a strategy planner failure.
type AnalysisError struct {
	Kind    AnalysisErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *AnalysisError) Error() string {
	return formatError("analysis", string(e.Kind), e.Message, e.Cause)
}
func (e *AnalysisError) Unwrap() error { return e.Cause }

// TemplateErrorKind enumerates template synthesis failure kinds.
type TemplateErrorKind string

const (
	TemplateErrorGenerationFailed TemplateErrorKind = "generation-failed"
	TemplateErrorEmbedFailed      TemplateErrorKind = "embed-failed"
	TemplateErrorRenderFailed     TemplateErrorKind = "render-failed"
)

// TemplateError represents a template synthesizer failure.
type TemplateError struct {
	Kind    TemplateErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *TemplateError) Error() string {
	return formatError("template", string(e.Kind), e.Message, e.Cause)
}
func (e *TemplateError) Unwrap() error { return e.Cause }

// EmbedErrorKind enumerates data-embedder failure kinds.
type EmbedErrorKind string

const (
	EmbedErrorCompression   EmbedErrorKind = "compression"
	EmbedErrorEncryption    EmbedErrorKind = "encryption"
	EmbedErrorIO            EmbedErrorKind = "io"
	EmbedErrorSerialization EmbedErrorKind = "serialization"
)

// EmbedError represents a data embedder failure.
type EmbedError struct {
	Kind    EmbedErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *EmbedError) Error() string { return formatError("embed", string(e.Kind), e.Message, e.Cause) }
func (e *EmbedError) Unwrap() error { return e.Cause }

// NewPlaintextSecretError reports a secret embedded with encryption method
// "none" while AllowPlaintextSecrets is not explicitly enabled.
func NewPlaintextSecretError(secretName string) *EmbedError {
	return &EmbedError{
		Kind:    EmbedErrorEncryption,
		Message: fmt.Sprintf("secret %q requests encryption method \"none\" but allow_plaintext_secrets is not enabled", secretName),
		Hints: []string{
			"Register a key id for this target and use it as the encryption method",
			"Set embedding.allow_plaintext_secrets: true only for development configs",
		},
	}
}

// CompilationErrorKind enumerates compilation orchestrator failure kinds.
type CompilationErrorKind string

const (
	CompilationErrorBackendMissing    CompilationErrorKind = "backend-missing"
	CompilationErrorCargoFailed       CompilationErrorKind = "cargo-failed"
	CompilationErrorZigbuildFailed    CompilationErrorKind = "zigbuild-failed"
	CompilationErrorBinaryNotFound    CompilationErrorKind = "binary-not-found"
	CompilationErrorTimeout           CompilationErrorKind = "timeout"
	CompilationErrorDiskSpace         CompilationErrorKind = "disk-space"
	CompilationErrorCacheCorruption   CompilationErrorKind = "cache-corruption"
	CompilationErrorUnsupportedTarget CompilationErrorKind = "unsupported-target"
)

// CompilationError represents a compilation backend failure, always carrying
// the affected target triple.
type CompilationError struct {
	Kind    CompilationErrorKind
	Target  string
	Message string
	Cause   error
	Hints   []string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compilation[%s] %s: %s%s", e.Target, e.Kind, e.Message, causeSuffix(e.Cause))
}
func (e *CompilationError) Unwrap() error { return e.Cause }

// NewBackendMissingError reports that no compilation backend is available.
func NewBackendMissingError(target, backend string) *CompilationError {
	return &CompilationError{
		Kind:    CompilationErrorBackendMissing,
		Target:  target,
		Message: fmt.Sprintf("backend %q is not installed", backend),
		Hints:   []string{"Run the install-deps subcommand to see what is missing"},
	}
}

// NewCompilationTimeoutError reports a backend invocation that exceeded its timeout.
func NewCompilationTimeoutError(target string, timeoutSeconds float64) *CompilationError {
	return &CompilationError{
		Kind:    CompilationErrorTimeout,
		Target:  target,
		Message: fmt.Sprintf("compilation exceeded %.0fs timeout", timeoutSeconds),
		Hints:   []string{"Increase compilation.compilation_timeout", "Check for a hung toolchain process"},
	}
}

// NewCompilationFailedError wraps a backend's non-zero exit with its stderr.
func NewCompilationFailedError(kind CompilationErrorKind, target, stderr string) *CompilationError {
	return &CompilationError{
		Kind:    kind,
		Target:  target,
		Message: "toolchain invocation failed",
		Cause:   fmt.Errorf("%s", stderr),
		Hints:   []string{"Inspect the toolchain stderr above for the root cause"},
	}
}

// NewBinaryNotFoundError reports that the expected output binary was not
// found after a backend reported success.
func NewBinaryNotFoundError(target, workDir string) *CompilationError {
	return &CompilationError{
		Kind:    CompilationErrorBinaryNotFound,
		Target:  target,
		Message: fmt.Sprintf("no output binary found under %s", workDir),
		Hints:   []string{"Check the backend's expected output path convention"},
	}
}

// DeploymentErrorKind enumerates deployment driver failure kinds.
type DeploymentErrorKind string

const (
	DeploymentErrorTransferFailed     DeploymentErrorKind = "transfer-failed"
	DeploymentErrorVerificationFailed DeploymentErrorKind = "verification-failed"
	DeploymentErrorExecutionFailed    DeploymentErrorKind = "execution-failed"
	DeploymentErrorCleanupFailed      DeploymentErrorKind = "cleanup-failed"
)

// DeploymentError represents a per-host deployment failure, always carrying
// the affected host name.
type DeploymentError struct {
	Kind    DeploymentErrorKind
	Host    string
	Message string
	Cause   error
	Hints   []string
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment[%s] %s: %s%s", e.Host, e.Kind, e.Message, causeSuffix(e.Cause))
}
func (e *DeploymentError) Unwrap() error { return e.Cause }

// NewVerificationFailedError reports a checksum mismatch after transfer.
func NewVerificationFailedError(host, expected, actual string) *DeploymentError {
	return &DeploymentError{
		Kind:    DeploymentErrorVerificationFailed,
		Host:    host,
		Message: fmt.Sprintf("checksum mismatch: expected %s, got %s", expected, actual),
		Hints: []string{
			"The transferred binary may have been corrupted or tampered with in transit",
			"Retry the transfer; if it persists, inspect the transport path for interference",
		},
	}
}

// CacheErrorKind enumerates template/binary cache failure kinds.
type CacheErrorKind string

const (
	CacheErrorNotFound            CacheErrorKind = "not-found"
	CacheErrorExpired             CacheErrorKind = "expired"
	CacheErrorSerializationFailed CacheErrorKind = "serialization-failed"
	CacheErrorIOFailed            CacheErrorKind = "io-failed"
)

// CacheError represents a cache subsystem failure.
type CacheError struct {
	Kind    CacheErrorKind
	Message string
	Cause   error
	Hints   []string
}

func (e *CacheError) Error() string { return formatError("cache", string(e.Kind), e.Message, e.Cause) }
func (e *CacheError) Unwrap() error { return e.Cause }

func formatError(subsystem, kind, message string, cause error) string {
	return fmt.Sprintf("%s[%s]: %s%s", subsystem, kind, message, causeSuffix(cause))
}

func causeSuffix(cause error) string {
	if cause == nil {
		return ""
	}
	return fmt.Sprintf(": %v", cause)
}
