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

package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerohop/pkg/plan"
	"zerohop/pkg/registry"
)

func debugTask(id string) plan.Task {
	return plan.Task{ID: id, ModuleName: "debug", Args: map[string]any{"msg": "hi"}, EstimatedDuration: 10}
}

func packageTask(id string) plan.Task {
	return plan.Task{ID: id, ModuleName: "package", Args: map[string]any{"name": "nginx", "state": "present"}, EstimatedDuration: 20}
}

func TestPlan_PackageOnlyFallsBackToSsh(t *testing.T) {
	reg := registry.New()
	tasks := []plan.Task{packageTask("t1")}
	hostTriples := map[string]string{"h1": "x86_64-unknown-linux-gnu"}

	result, err := Plan(tasks, hostTriples, nil, reg, Config{MinBinaryThreshold: 3, AllowPartial: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, SshOnly, result.Strategy)
	assert.Empty(t, result.Descriptors)
	assert.Equal(t, []string{"t1"}, result.ResidualTaskIDs)
}

func TestPlan_MixedThresholdEmitsHybridDescriptor(t *testing.T) {
	reg := registry.New()
	tasks := []plan.Task{
		debugTask("d1"), debugTask("d2"), debugTask("d3"), debugTask("d4"), debugTask("d5"),
		packageTask("p1"),
	}
	hostTriples := map[string]string{"h1": "x86_64-unknown-linux-gnu"}

	result, err := Plan(tasks, hostTriples, nil, reg, Config{MinBinaryThreshold: 3, AllowPartial: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, Hybrid, result.Strategy)
	require.Len(t, result.Descriptors, 1)
	assert.ElementsMatch(t, []string{"d1", "d2", "d3", "d4", "d5"}, result.Descriptors[0].TaskIDs)
	assert.Equal(t, []string{"p1"}, result.ResidualTaskIDs)
}

func TestPlan_AllFullyCompatibleSelectsBinaryOnly(t *testing.T) {
	reg := registry.New()
	tasks := []plan.Task{debugTask("d1"), debugTask("d2"), debugTask("d3")}
	hostTriples := map[string]string{"h1": "x86_64-unknown-linux-gnu"}

	result, err := Plan(tasks, hostTriples, nil, reg, Config{MinBinaryThreshold: 3, AllowPartial: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, BinaryOnly, result.Strategy)
	require.Len(t, result.Descriptors, 1)
	assert.Equal(t, "x86_64-unknown-linux-gnu", result.Descriptors[0].TargetTriple)
}

func TestPlan_BelowThresholdFallsThroughToResidual(t *testing.T) {
	reg := registry.New()
	tasks := []plan.Task{debugTask("d1")}
	hostTriples := map[string]string{"h1": "x86_64-unknown-linux-gnu"}

	result, err := Plan(tasks, hostTriples, nil, reg, Config{MinBinaryThreshold: 1, AllowPartial: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Descriptors)
	assert.Equal(t, []string{"d1"}, result.ResidualTaskIDs)
}

func TestPlan_EmptyTasksIsInsufficientData(t *testing.T) {
	reg := registry.New()
	_, err := Plan(nil, map[string]string{"h1": "x86_64-unknown-linux-gnu"}, nil, reg, Config{MinBinaryThreshold: 3}, nil)
	require.Error(t, err)
}

func TestPlan_InvalidThresholdRejected(t *testing.T) {
	reg := registry.New()
	_, err := Plan([]plan.Task{debugTask("d1")}, map[string]string{"h1": "x"}, nil, reg, Config{MinBinaryThreshold: 0}, nil)
	require.Error(t, err)
}

func TestPlan_SelectorExcludesUnmatchedPartition(t *testing.T) {
	reg := registry.New()
	tasks := []plan.Task{
		{ID: "d1", ModuleName: "debug", EstimatedDuration: 5, TargetSelector: plan.TargetSelector{Kind: "hosts", Hosts: []string{"h2"}}},
	}
	hostTriples := map[string]string{"h1": "x86_64-unknown-linux-gnu"}

	result, err := Plan(tasks, hostTriples, nil, reg, Config{MinBinaryThreshold: 1, AllowPartial: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Descriptors)
	assert.Equal(t, []string{"d1"}, result.ResidualTaskIDs)
}

func TestPartition_GroupsHostsByTriple(t *testing.T) {
	parts := Partition(map[string]string{
		"h1": "x86_64-unknown-linux-gnu",
		"h2": "x86_64-unknown-linux-gnu",
		"h3": "aarch64-apple-darwin",
	})
	assert.ElementsMatch(t, []string{"h1", "h2"}, parts["x86_64-unknown-linux-gnu"])
	assert.ElementsMatch(t, []string{"h3"}, parts["aarch64-apple-darwin"])
}

func TestDefaultSelectorMatch(t *testing.T) {
	assert.True(t, DefaultSelectorMatch(plan.TargetSelector{Kind: "all"}, "h1", nil))
	assert.True(t, DefaultSelectorMatch(plan.TargetSelector{Kind: "hosts", Hosts: []string{"h1"}}, "h1", nil))
	assert.False(t, DefaultSelectorMatch(plan.TargetSelector{Kind: "hosts", Hosts: []string{"h2"}}, "h1", nil))
	assert.True(t, DefaultSelectorMatch(plan.TargetSelector{Kind: "groups", Groups: []string{"web"}}, "h1", []string{"web"}))
	assert.False(t, DefaultSelectorMatch(plan.TargetSelector{Kind: "groups", Groups: []string{"db"}}, "h1", []string{"web"}))
}
