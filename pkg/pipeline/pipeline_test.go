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

package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerohop/pkg/compile"
	"zerohop/pkg/deploy"
	"zerohop/pkg/embed"
	"zerohop/pkg/events"
	"zerohop/pkg/inventory"
	"zerohop/pkg/plan"
	"zerohop/pkg/progress"
	"zerohop/pkg/registry"
	"zerohop/pkg/strategy"
	"zerohop/pkg/template"
)

// fakeBackend deterministically "compiles" any template into a fixed
// byte payload so the pipeline test never shells out to a real
// toolchain.
type fakeBackend struct{}

func (fakeBackend) Name() string                                { return "fake" }
func (fakeBackend) CanHandle(string, compile.Capabilities) bool { return true }
func (fakeBackend) Capabilities() compile.BackendCapabilities {
	return compile.BackendCapabilities{}
}
func (fakeBackend) Compile(ctx context.Context, tmpl *template.Template, workDir string) (compile.CompiledBinary, error) {
	payload := []byte("binary-for-" + tmpl.TargetTriple)
	sum := sha256.Sum256(payload)
	return compile.CompiledBinary{
		TargetTriple: tmpl.TargetTriple,
		Bytes:        payload,
		Checksum:     fmt.Sprintf("%x", sum),
		Size:         int64(len(payload)),
	}, nil
}

type fakeSSHClient struct{ checksum string }

func (f *fakeSSHClient) Upload(ctx context.Context, data []byte, remotePath string) error { return nil }
func (f *fakeSSHClient) Run(ctx context.Context, cmd string) (string, string, int, error) {
	return f.checksum + "  /opt/zerohop/run", "", 0, nil
}
func (f *fakeSSHClient) Close() error { return nil }

func testPlan() *plan.ExecutionPlan {
	return &plan.ExecutionPlan{
		Metadata: plan.PlanMetadata{PlanID: "p1", Version: "1", PlanVersion: "1", CreatedAt: "2026-01-01T00:00:00Z"},
		Tasks: []plan.Task{
			{ID: "t1", ModuleName: "debug", Args: map[string]any{"msg": "hi"}, TargetSelector: plan.TargetSelector{Kind: "all"}, FailurePolicy: "abort", EstimatedDuration: 1},
			{ID: "t2", ModuleName: "debug", Args: map[string]any{"msg": "hi2"}, TargetSelector: plan.TargetSelector{Kind: "all"}, FailurePolicy: "abort", EstimatedDuration: 1},
			{ID: "t3", ModuleName: "set_fact", Args: map[string]any{"x": "1"}, TargetSelector: plan.TargetSelector{Kind: "all"}, FailurePolicy: "abort", EstimatedDuration: 1},
		},
		DeploymentConfig: plan.DeploymentConfig{TargetPath: "/opt/zerohop/run", VerifyDeployment: false},
	}
}

func testInventory() *inventory.Inventory {
	return &inventory.Inventory{
		Hosts: map[string]*inventory.Host{
			"h1": {Name: "h1", Address: "h1", Connection: inventory.Connection{Method: "ssh"}, Variables: map[string]any{"ansible_architecture": "x86_64", "ansible_os_family": "debian"}},
		},
		Groups:    map[string]*inventory.Group{},
		Variables: map[string]any{},
	}
}

func newTestPipeline(t *testing.T, checksum string) *Pipeline {
	t.Helper()

	embedder := embed.New(embed.Config{CompressionAlgorithm: embed.CompressionNone})
	synth, err := template.New(nil, embedder)
	require.NoError(t, err)

	orch := compile.New([]compile.Backend{fakeBackend{}}, nil, compile.Capabilities{}, compile.Config{MaxParallelCompilations: 2})

	client := &fakeSSHClient{checksum: checksum}
	pool := deploy.NewConnectionPool(func(ctx context.Context, host *inventory.Host) (deploy.SSHClient, error) {
		return client, nil
	})
	deployer := deploy.New(pool, nil, 4)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewEventBus(16)
	reporter := progress.New(logger, bus, progress.Config{})

	return &Pipeline{
		Registry:       registry.New(),
		Synthesizer:    synth,
		Compiler:       orch,
		Deployer:       deployer,
		Reporter:       reporter,
		Logger:         logger,
		StrategyConfig: strategy.Config{MinBinaryThreshold: 1, AllowPartial: true},
	}
}

func TestPipeline_Run_BinaryOnlyDeploysSuccessfully(t *testing.T) {
	payload := []byte("binary-for-x86_64-unknown-linux-gnu")
	sum := sha256.Sum256(payload)
	checksum := fmt.Sprintf("%x", sum)

	p := newTestPipeline(t, checksum)
	result, err := p.Run(context.Background(), testPlan(), testInventory(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, strategy.BinaryOnly, result.Strategy)
	require.Len(t, result.Descriptors, 1)
	assert.False(t, result.Descriptors[0].FellBackToSSH)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.ResidualTaskIDs)
}

func TestPipeline_Run_DryRunSkipsCompilationAndDeployment(t *testing.T) {
	p := newTestPipeline(t, "irrelevant")
	result, err := p.Run(context.Background(), testPlan(), testInventory(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, result.Descriptors)
}

func TestPipeline_Run_RejectsCyclicPlan(t *testing.T) {
	p := newTestPipeline(t, "x")
	cyclic := testPlan()
	cyclic.Tasks = []plan.Task{
		{ID: "a", ModuleName: "debug", Dependencies: []string{"b"}, TargetSelector: plan.TargetSelector{Kind: "all"}, FailurePolicy: "abort"},
		{ID: "b", ModuleName: "debug", Dependencies: []string{"a"}, TargetSelector: plan.TargetSelector{Kind: "all"}, FailurePolicy: "abort"},
	}
	_, err := p.Run(context.Background(), cyclic, testInventory(), RunOptions{})
	require.Error(t, err)
}

func TestPipeline_Run_VerificationMismatchFailsHostOnly(t *testing.T) {
	p := newTestPipeline(t, "0000000000000000000000000000000000000000000000000000000000000000")
	pl := testPlan()
	pl.DeploymentConfig.VerifyDeployment = true

	result, err := p.Run(context.Background(), pl, testInventory(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, result.Descriptors, 1)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
}
