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

// Package plan holds the execution plan data model: the immutable
// description of tasks, modules, and deployment configuration that
// arrives from an upstream planner and drives the rest of the pipeline.
package plan

// ExecutionPlan is the complete, immutable plan handed to zerohop.
type ExecutionPlan struct {
	Metadata         PlanMetadata        `json:"metadata" yaml:"metadata"`
	Tasks            []Task              `json:"tasks" yaml:"tasks"`
	Inventory        InventorySpec       `json:"inventory" yaml:"inventory"`
	Strategy         ExecutionStrategy   `json:"strategy" yaml:"strategy"`
	FactsTemplate    FactsTemplate       `json:"facts_template" yaml:"facts_template"`
	DeploymentConfig DeploymentConfig    `json:"deployment_config" yaml:"deployment_config"`
	Modules          []ModuleDeclaration `json:"modules" yaml:"modules"`
}

// PlanMetadata identifies a plan and the planner that produced it.
type PlanMetadata struct {
	Version     string   `json:"version" yaml:"version"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	PlanVersion string   `json:"plan_version" yaml:"plan_version"`
	PlanID      string   `json:"plan_id" yaml:"plan_id"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Task is a single unit of work in the plan, addressable by ID and
// orderable via Dependencies. The analyzer (pkg/analyzer) classifies
// each task for binary-compilation fitness; the plan layer itself
// only carries the data and enforces acyclicity.
type Task struct {
	ID                string         `json:"task_id" yaml:"task_id"`
	Name              string         `json:"name" yaml:"name"`
	ModuleName        string         `json:"module_name" yaml:"module_name"`
	Args              map[string]any `json:"args" yaml:"args"`
	Dependencies      []string       `json:"dependencies" yaml:"dependencies"`
	Conditions        []Condition    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	TargetSelector    TargetSelector `json:"target_selector" yaml:"target_selector"`
	Timeout           string         `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryPolicy       *RetryPolicy   `json:"retry_policy,omitempty" yaml:"retry_policy,omitempty"`
	FailurePolicy     string         `json:"failure_policy" yaml:"failure_policy"`
	EstimatedDuration float64        `json:"estimated_duration" yaml:"estimated_duration"`
	RiskLevel         string         `json:"risk_level" yaml:"risk_level"`
}

// Condition gates task execution on a runtime fact.
type Condition struct {
	Variable string `json:"variable" yaml:"variable"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// TargetSelector names which hosts or groups a task applies to. Exactly
// one of Groups, Hosts, or Expression is meaningful for a non-"all" kind.
type TargetSelector struct {
	Kind       string   `json:"kind" yaml:"kind"` // "all" | "groups" | "hosts" | "expression"
	Groups     []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Hosts      []string `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Expression string   `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// RetryPolicy controls per-task retry behavior on failure.
type RetryPolicy struct {
	MaxRetries   int     `json:"max_retries" yaml:"max_retries"`
	DelaySeconds float64 `json:"delay_seconds" yaml:"delay_seconds"`
	Backoff      string  `json:"backoff" yaml:"backoff"` // "fixed" | "linear" | "exponential"
}

// ModuleDeclaration names a module referenced by one or more tasks,
// along with the hints the registry (pkg/registry) and analyzer use to
// classify it.
type ModuleDeclaration struct {
	Name              string   `json:"name" yaml:"name"`
	EstimatedClass    string   `json:"estimated_class,omitempty" yaml:"estimated_class,omitempty"`
	BuildRequirements []string `json:"build_requirements,omitempty" yaml:"build_requirements,omitempty"`
	RuntimeDeps       []string `json:"runtime_deps,omitempty" yaml:"runtime_deps,omitempty"`
	StaticLink        bool     `json:"static_link,omitempty" yaml:"static_link,omitempty"`
}

// ExecutionStrategy controls plan-level concurrency and failure handling,
// distinct from the binary-vs-ssh strategy pkg/strategy computes.
type ExecutionStrategy struct {
	ParallelLimit     int  `json:"parallel_limit,omitempty" yaml:"parallel_limit,omitempty"`
	FailFast          bool `json:"fail_fast" yaml:"fail_fast"`
	RetryFailed       bool `json:"retry_failed" yaml:"retry_failed"`
	RollbackOnFailure bool `json:"rollback_on_failure" yaml:"rollback_on_failure"`
}

// FactsTemplate describes which host facts the plan depends on.
type FactsTemplate struct {
	GlobalFacts []string                  `json:"global_facts,omitempty" yaml:"global_facts,omitempty"`
	HostFacts   []string                  `json:"host_facts,omitempty" yaml:"host_facts,omitempty"`
	CustomFacts map[string]FactDefinition `json:"custom_facts,omitempty" yaml:"custom_facts,omitempty"`
}

// FactDefinition describes how to gather and parse a custom fact.
type FactDefinition struct {
	Command  string `json:"command" yaml:"command"`
	Parser   string `json:"parser" yaml:"parser"` // "json" | "yaml" | "text" | "regex" | "custom"
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// DeploymentConfig carries plan-level deployment defaults; pkg/deploy
// may override per-host via inventory variables.
type DeploymentConfig struct {
	TargetPath        string `json:"target_path" yaml:"target_path"`
	BackupPrevious    bool   `json:"backup_previous" yaml:"backup_previous"`
	VerifyDeployment  bool   `json:"verify_deployment" yaml:"verify_deployment"`
	CleanupOnSuccess  bool   `json:"cleanup_on_success" yaml:"cleanup_on_success"`
	DeploymentTimeout string `json:"deployment_timeout,omitempty" yaml:"deployment_timeout,omitempty"`
}

// InventorySpec is the plan's pointer to inventory data; pkg/inventory
// does the actual parsing and resolution once the referenced source is
// read.
type InventorySpec struct {
	Format    string          `json:"format" yaml:"format"` // "yaml" | "json" | "ini" | "dynamic"
	Source    InventorySource `json:"source" yaml:"source"`
	Groups    map[string]any  `json:"groups,omitempty" yaml:"groups,omitempty"`
	Hosts     map[string]any  `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Variables map[string]any  `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// InventorySource names where inventory content comes from.
type InventorySource struct {
	Kind    string `json:"kind" yaml:"kind"` // "inline" | "file" | "url" | "dynamic"
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Script  string `json:"script,omitempty" yaml:"script,omitempty"`
}

// BinaryDeploymentDescriptor names the tasks bundled into one compiled
// binary for a given target. TaskIDs is the single canonical field;
// no legacy tasks alias is read or written.
type BinaryDeploymentDescriptor struct {
	TargetTriple string   `json:"target_triple" yaml:"target_triple"`
	TaskIDs      []string `json:"task_ids" yaml:"task_ids"`
}
