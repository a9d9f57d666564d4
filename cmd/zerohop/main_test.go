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

package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerohop/pkg/core/config"
)

func TestLoadConfig_DefaultsWhenNoPathOrEnv(t *testing.T) {
	t.Setenv("ZEROHOP_CONFIG", "")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMinBinaryThreshold, cfg.Strategy.MinBinaryThreshold)
	assert.Equal(t, config.DefaultCompilationTimeout, cfg.Compilation.CompilationTimeout)
}

func TestLoadConfig_MissingFileIsConfigError(t *testing.T) {
	_, err := loadConfig("/nonexistent/zerohop.yaml")

	var coded *exitCodeError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, exitConfigError, coded.code)
}

func TestStrategyConfigForMode(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)

	auto, err := strategyConfigForMode(cfg, "auto")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMinBinaryThreshold, auto.MinBinaryThreshold)

	off, err := strategyConfigForMode(cfg, "off")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, off.MinBinaryThreshold)

	aggressive, err := strategyConfigForMode(cfg, "aggressive")
	require.NoError(t, err)
	assert.Equal(t, 1, aggressive.MinBinaryThreshold)
	assert.True(t, aggressive.AllowPartial)

	_, err = strategyConfigForMode(cfg, "turbo")
	assert.Error(t, err)
}

func TestReadPlan_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"metadata": {"plan_id": "p1"},
		"tasks": [{"task_id": "t1", "module_name": "debug", "args": {"msg": "hi"}}]
	}`), 0o644))

	ep, err := readPlan(jsonPath)
	require.NoError(t, err)
	require.Len(t, ep.Tasks, 1)
	assert.Equal(t, "debug", ep.Tasks[0].ModuleName)

	yamlPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
metadata:
  plan_id: p2
tasks:
  - task_id: t1
    module_name: copy
    args:
      src: /a
      dest: /b
`), 0o644))

	ep, err = readPlan(yamlPath)
	require.NoError(t, err)
	require.Len(t, ep.Tasks, 1)
	assert.Equal(t, "copy", ep.Tasks[0].ModuleName)
}

func TestReadInventory_ByExtension(t *testing.T) {
	dir := t.TempDir()

	iniPath := filepath.Join(dir, "hosts")
	require.NoError(t, os.WriteFile(iniPath, []byte(`[web]
h1 ansible_host=10.0.0.1 ansible_architecture=x86_64
`), 0o644))

	inv, err := readInventory(context.Background(), iniPath)
	require.NoError(t, err)
	require.Contains(t, inv.Hosts, "h1")
	assert.Equal(t, "10.0.0.1", inv.Hosts["h1"].Address)
}

func TestReadInventory_DynamicScript(t *testing.T) {
	dir := t.TempDir()

	scriptPath := filepath.Join(dir, "inventory.sh")
	script := `#!/bin/sh
cat <<'JSON'
{"web": {"hosts": ["h1"]}, "_meta": {"hostvars": {"h1": {"ansible_host": "10.0.0.9"}}}}
JSON
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))

	inv, err := readInventory(context.Background(), scriptPath)
	require.NoError(t, err)
	require.Contains(t, inv.Hosts, "h1")
	assert.Equal(t, "10.0.0.9", inv.Hosts["h1"].Address)
}
