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

// Package pipeline wires the four core subsystems into the single
// top-level operation the CLI surface drives: Plan + Inventory ->
// analyzer -> strategy -> template synthesis -> compilation -> deployment,
// with progress events published at every stage boundary. It has no
// long-lived state of its own; a Pipeline is built once per process and
// Run is called once per deploy invocation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zerohop/pkg/compile"
	"zerohop/pkg/core/errs"
	"zerohop/pkg/deploy"
	"zerohop/pkg/inventory"
	"zerohop/pkg/plan"
	"zerohop/pkg/progress"
	"zerohop/pkg/registry"
	"zerohop/pkg/strategy"
	"zerohop/pkg/target"
	"zerohop/pkg/template"
)

// Pipeline holds the constructed, long-lived components every Run call
// drives. All fields are required except Prober, which may be nil if no
// host in the fleet resolves its target triple via SSH probing.
type Pipeline struct {
	Registry    *registry.Registry
	Synthesizer *template.Synthesizer
	Compiler    *compile.Orchestrator
	Deployer    *deploy.Deployer
	Reporter    *progress.Reporter
	Logger      *slog.Logger
	Prober      target.Prober

	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics

	StrategyConfig strategy.Config
}

// DescriptorOutcome is one binary deployment descriptor's full result:
// the compiled binary (if compilation succeeded) and every host's
// deployment outcome.
type DescriptorOutcome struct {
	Descriptor  strategy.Descriptor
	Binary      compile.CompiledBinary
	HostResults []deploy.HostResult
	// FellBackToSSH is set when this descriptor produced no binary: template
	// synthesis failed, compilation failed, or no compilation backend could
	// handle its target triple (the SshFallbackBackend signal). Its task
	// ids were folded into Result.ResidualTaskIDs instead of being
	// deployed as a binary.
	FellBackToSSH bool
}

// Result is a full pipeline run's outcome.
type Result struct {
	ExecID          string
	Strategy        strategy.Selection
	Descriptors     []DescriptorOutcome
	ResidualTaskIDs []string
	Succeeded       int
	Failed          int
	Duration        time.Duration
}

// RunOptions carries the per-run knobs that come from the CLI flags
// rather than the plan or a static config (dry-run mode, controller
// endpoint override).
type RunOptions struct {
	ControllerEndpoint string
	DryRun             bool
	DeployPolicy       deploy.PartialFailurePolicy
	Args               []string // passed to the deployed binary on execution
}

// Run validates the plan, resolves the inventory, detects every host's
// target triple, computes the deployment strategy, and — unless DryRun —
// synthesizes, compiles, and deploys a binary per qualifying descriptor.
func (p *Pipeline) Run(ctx context.Context, ep *plan.ExecutionPlan, inv *inventory.Inventory, opts RunOptions) (*Result, error) {
	execID := uuid.NewString()
	start := time.Now()

	if err := plan.Validate(ep); err != nil {
		p.Reporter.Emit(progress.NewExecutionFailed(err))
		return nil, err
	}

	resolvedHosts, err := inventory.Resolve(inv)
	if err != nil {
		p.Reporter.Emit(progress.NewExecutionFailed(err))
		return nil, err
	}

	hostTriples, hostGroups, hostByName, err := p.detectTargets(resolvedHosts)
	if err != nil {
		p.Reporter.Emit(progress.NewExecutionFailed(err))
		return nil, err
	}

	stratResult, err := strategy.Plan(ep.Tasks, hostTriples, hostGroups, p.Registry, p.StrategyConfig, nil)
	if err != nil {
		p.Reporter.Emit(progress.NewExecutionFailed(err))
		return nil, err
	}

	p.Reporter.Emit(progress.NewExecutionStarted(execID, len(ep.Tasks)))

	result := &Result{
		ExecID:          execID,
		Strategy:        stratResult.Strategy,
		ResidualTaskIDs: append([]string{}, stratResult.ResidualTaskIDs...),
	}

	if opts.DryRun {
		result.Duration = time.Since(start)
		p.Reporter.Emit(progress.NewExecutionCompleted(progress.ExecutionResult{
			ExecID: execID, TotalTasks: len(ep.Tasks), DurationMs: result.Duration.Milliseconds(),
		}))
		return result, nil
	}

	for _, descriptor := range stratResult.Descriptors {
		outcome := p.runDescriptor(ctx, ep, descriptor, hostByName, opts)
		result.Descriptors = append(result.Descriptors, outcome)

		if outcome.FellBackToSSH {
			result.ResidualTaskIDs = append(result.ResidualTaskIDs, descriptor.TaskIDs...)
			continue
		}
		for _, hr := range outcome.HostResults {
			if hr.Err != nil {
				result.Failed++
			} else {
				result.Succeeded++
			}
			p.Metrics.observeHost(hr.Err == nil)
		}
	}

	result.Duration = time.Since(start)
	p.Metrics.observeRun(result.Duration.Seconds())
	p.Reporter.Emit(progress.NewExecutionCompleted(progress.ExecutionResult{
		ExecID:     execID,
		TotalTasks: len(ep.Tasks),
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		DurationMs: result.Duration.Milliseconds(),
	}))

	return result, nil
}

// runDescriptor synthesizes, compiles, and deploys one binary deployment
// descriptor, publishing a TaskStarted/TaskCompleted pair around it.
func (p *Pipeline) runDescriptor(ctx context.Context, ep *plan.ExecutionPlan, descriptor strategy.Descriptor, hostByName map[string]*inventory.ResolvedHost, opts RunOptions) DescriptorOutcome {
	label := fmt.Sprintf("binary[%s]", descriptor.TargetTriple)
	p.Reporter.Emit(progress.NewTaskStarted(descriptor.TargetTriple, label))
	taskStart := time.Now()

	bdd := plan.BinaryDeploymentDescriptor{TargetTriple: descriptor.TargetTriple, TaskIDs: descriptor.TaskIDs}

	tmpl, err := p.Synthesizer.Synthesize(ep, bdd, descriptor.TargetTriple, opts.ControllerEndpoint)
	if err != nil {
		p.completeTask(descriptor.TargetTriple, taskStart, err)
		return DescriptorOutcome{Descriptor: descriptor, FellBackToSSH: true}
	}

	bin, err := p.Compiler.Compile(ctx, tmpl)
	if err != nil {
		if compErr, ok := asUnsupportedTarget(err); ok {
			p.Logger.Warn("no compilation backend available, falling back to SSH execution", "target", descriptor.TargetTriple, "error", compErr)
			p.Metrics.observeCompilation("fallback", 0)
			p.completeTask(descriptor.TargetTriple, taskStart, nil)
			return DescriptorOutcome{Descriptor: descriptor, FellBackToSSH: true}
		}
		p.Metrics.observeCompilation("failed", 0)
		p.completeTask(descriptor.TargetTriple, taskStart, err)
		return DescriptorOutcome{Descriptor: descriptor, FellBackToSSH: true}
	}
	p.Metrics.observeCompilation("succeeded", bin.CompilationTime.Seconds())

	hosts := make([]*inventory.ResolvedHost, 0, len(descriptor.Hosts))
	for _, name := range descriptor.Hosts {
		if h, ok := hostByName[name]; ok {
			hosts = append(hosts, h)
		}
	}

	req := deploy.Request{
		Binary:           bin.Bytes,
		Checksum:         bin.Checksum,
		TargetPath:       ep.DeploymentConfig.TargetPath,
		Transport:        deploy.TransportSSH,
		BackupPrevious:   ep.DeploymentConfig.BackupPrevious,
		VerifyDeployment: ep.DeploymentConfig.VerifyDeployment,
		CleanupOnSuccess: ep.DeploymentConfig.CleanupOnSuccess,
		Args:             opts.Args,
	}
	policy := opts.DeployPolicy
	if policy == "" {
		policy = deploy.PolicyContinue
	}

	hostResults, _ := p.Deployer.DeployAll(ctx, hosts, req, policy)
	p.completeTask(descriptor.TargetTriple, taskStart, firstHostError(hostResults))

	return DescriptorOutcome{Descriptor: descriptor, Binary: bin, HostResults: hostResults}
}

func (p *Pipeline) completeTask(taskID string, start time.Time, err error) {
	result := progress.TaskResult{
		TaskID:     taskID,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	p.Reporter.Emit(progress.NewTaskCompleted(result))
}

func firstHostError(results []deploy.HostResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func asUnsupportedTarget(err error) (*errs.CompilationError, bool) {
	compErr, ok := err.(*errs.CompilationError)
	if ok && compErr.Kind == errs.CompilationErrorUnsupportedTarget {
		return compErr, true
	}
	return nil, false
}

// detectTargets resolves every host's target triple, builds the
// host-groups map strategy.Plan's selector matcher needs, and drops hosts
// whose triple isn't in the static support table so they fall through to
// the fallback transport instead of being offered as a binary partition.
func (p *Pipeline) detectTargets(resolved map[string]inventory.ResolvedHost) (map[string]string, map[string][]string, map[string]*inventory.ResolvedHost, error) {
	hostTriples := make(map[string]string, len(resolved))
	hostGroups := make(map[string][]string, len(resolved))
	hostByName := make(map[string]*inventory.ResolvedHost, len(resolved))

	for name, rh := range resolved {
		rh := rh
		hostByName[name] = &rh
		hostGroups[name] = rh.Host.Groups

		info := target.HostInfo{
			Name:             name,
			ConnectionMethod: rh.Host.Connection.Method,
			ExplicitTriple:   rh.Host.TargetTriple,
			Arch:             stringVar(rh.Variables, "ansible_architecture"),
			OSFamily:         stringVar(rh.Variables, "ansible_os_family"),
		}
		if info.ExplicitTriple == "" {
			if tt, ok := rh.Variables["target_triple"].(string); ok {
				info.ExplicitTriple = tt
			}
		}

		triple, err := target.Detect(info, p.Prober)
		if err != nil {
			return nil, nil, nil, err
		}
		if !target.Supported(triple) {
			continue
		}
		hostTriples[name] = triple
	}

	return hostTriples, hostGroups, hostByName, nil
}

func stringVar(vars map[string]any, key string) string {
	if v, ok := vars[key].(string); ok {
		return v
	}
	return ""
}
