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

package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/inventory"
)

// DefaultMaxDeploymentThreads is the default for max_deployment_threads.
const DefaultMaxDeploymentThreads = 8

// Deployer drives one binary's deployment across a set of hosts: per-host
// transfer, verification, execution, and cleanup, bounded in aggregate
// by MaxThreads.
type Deployer struct {
	pool       *ConnectionPool
	runner     ProcessRunner
	MaxThreads int

	// HostTimeout bounds one host's full transfer-verify-execute-cleanup
	// sequence (the deployment timeout). Zero disables the bound.
	HostTimeout time.Duration
}

// New builds a Deployer. runner may be nil if no SCP/rsync/custom
// transport will ever be used.
func New(pool *ConnectionPool, runner ProcessRunner, maxThreads int) *Deployer {
	if maxThreads <= 0 {
		maxThreads = DefaultMaxDeploymentThreads
	}
	if runner == nil {
		runner = ExecProcessRunner{}
	}
	return &Deployer{pool: pool, runner: runner, MaxThreads: maxThreads}
}

// DeployToHost runs the full per-host state machine: transfer, optional
// verify and smoke test, execute, optional cleanup.
func (d *Deployer) DeployToHost(ctx context.Context, host *inventory.ResolvedHost, req Request) HostResult {
	name := host.Host.Name
	result := HostResult{Host: name, State: StatePending}

	if d.HostTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.HostTimeout)
		defer cancel()
	}

	client, err := d.pool.Acquire(ctx, host.Host)
	if err != nil {
		result.State = StateFailed
		result.Err = &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: name, Message: "failed to open connection", Cause: err}
		return result
	}
	defer d.pool.Release(name)

	result.State = StateTransferring
	transferStart := time.Now()
	if err := d.transfer(ctx, client, host.Host, req); err != nil {
		result.State = StateFailed
		result.Err = err
		return result
	}
	result.TransferDuration = time.Since(transferStart)
	result.State = StateDeployed

	if req.VerifyDeployment {
		verifyStart := time.Now()
		if err := d.verifyChecksum(ctx, client, name, req); err != nil {
			result.State = StateVerificationFailed
			result.Err = err
			return result
		}
		if req.SmokeTest {
			if err := d.smokeTest(ctx, client, name, req); err != nil {
				result.State = StateVerificationFailed
				result.Err = err
				return result
			}
		}
		result.VerifyDuration = time.Since(verifyStart)
		result.State = StateVerified
	}

	exec, err := d.execute(ctx, client, name, req)
	if err != nil {
		result.State = StateFailed
		result.Err = err
		return result
	}
	result.Execution = &exec

	if req.CleanupOnSuccess {
		if err := d.cleanup(ctx, client, name, req); err != nil {
			// Cleanup failure doesn't undo a successful deployment and
			// execution; surface it without downgrading the state.
			result.Err = err
		}
	}

	return result
}

func (d *Deployer) runRemote(ctx context.Context, client SSHClient, host, cmd string, kind errs.DeploymentErrorKind, message string) error {
	_, stderr, exitCode, err := client.Run(ctx, cmd)
	if err != nil {
		return &errs.DeploymentError{Kind: kind, Host: host, Message: message, Cause: err}
	}
	if exitCode != 0 {
		return &errs.DeploymentError{Kind: kind, Host: host, Message: fmt.Sprintf("%s: exit %d: %s", message, exitCode, strings.TrimSpace(stderr))}
	}
	return nil
}

// verifyChecksum compares a remote sha256sum of the deployed binary
// against req.Checksum.
func (d *Deployer) verifyChecksum(ctx context.Context, client SSHClient, host string, req Request) error {
	stdout, stderr, exitCode, err := client.Run(ctx, fmt.Sprintf("sha256sum %s", shellQuote(req.TargetPath)))
	if err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorVerificationFailed, Host: host, Message: "checksum command failed", Cause: err}
	}
	if exitCode != 0 {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorVerificationFailed, Host: host, Message: "checksum command failed: " + strings.TrimSpace(stderr)}
	}

	fields := strings.Fields(stdout)
	if len(fields) == 0 {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorVerificationFailed, Host: host, Message: "unparseable sha256sum output"}
	}
	actual := fields[0]
	if actual != req.Checksum {
		return errs.NewVerificationFailedError(host, req.Checksum, actual)
	}
	return nil
}

// smokeTest runs "<target> --version" and treats a non-zero exit as a
// verification failure.
func (d *Deployer) smokeTest(ctx context.Context, client SSHClient, host string, req Request) error {
	cmd := fmt.Sprintf("%s --version", shellQuote(req.TargetPath))
	_, stderr, exitCode, err := client.Run(ctx, cmd)
	if err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorVerificationFailed, Host: host, Message: "smoke test failed to run", Cause: err}
	}
	if exitCode != 0 {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorVerificationFailed, Host: host, Message: "smoke test exited non-zero: " + strings.TrimSpace(stderr)}
	}
	return nil
}

// execute runs the deployed binary with req.Args and captures its
// output, exit code, and duration.
func (d *Deployer) execute(ctx context.Context, client SSHClient, host string, req Request) (ExecutionResult, error) {
	cmd := shellQuote(req.TargetPath)
	for _, a := range req.Args {
		cmd += " " + shellQuote(a)
	}

	start := time.Now()
	stdout, stderr, exitCode, err := client.Run(ctx, cmd)
	duration := time.Since(start)
	if err != nil {
		return ExecutionResult{}, &errs.DeploymentError{Kind: errs.DeploymentErrorExecutionFailed, Host: host, Message: "execution failed to run", Cause: err}
	}
	return ExecutionResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Duration: duration}, nil
}

// cleanup removes the deployed binary (rm -f target).
func (d *Deployer) cleanup(ctx context.Context, client SSHClient, host string, req Request) error {
	cmd := fmt.Sprintf("rm -f %s", shellQuote(req.TargetPath))
	return d.runRemote(ctx, client, host, cmd, errs.DeploymentErrorCleanupFailed, "cleanup failed")
}
