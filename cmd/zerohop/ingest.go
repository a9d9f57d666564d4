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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"zerohop/pkg/inventory"
	"zerohop/pkg/plan"
)

// readPlan ingests an execution plan from path, choosing the parser by
// file extension (JSON or YAML against the fixed schema).
func readPlan(path string) (*plan.ExecutionPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %q: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return plan.ParseJSON(data)
	}
	return plan.ParseYAML(data)
}

// readInventory ingests an inventory from path. An executable file is a
// dynamic inventory: it is run and its stdout parsed as Ansible dynamic
// JSON. Otherwise the parser is chosen by extension, defaulting to
// INI, the conventional extensionless inventory format.
func readInventory(ctx context.Context, path string) (*inventory.Inventory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat inventory %q: %w", path, err)
	}

	if info.Mode()&0o111 != 0 && !info.IsDir() {
		return runDynamicInventory(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return inventory.ParseJSON(data)
	case ".yml", ".yaml":
		return inventory.ParseYAML(data)
	default:
		return inventory.ParseINI(data)
	}
}

// runDynamicInventory executes a dynamic-inventory script with --list
// and parses its JSON output.
func runDynamicInventory(ctx context.Context, path string) (*inventory.Inventory, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve inventory script %q: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, abs, "--list")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dynamic inventory %q: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return inventory.ParseJSON(stdout.Bytes())
}
