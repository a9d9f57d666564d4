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

// Package analyzer classifies individual tasks for binary-compilation
// fitness by combining the module compatibility registry with a set of
// syntactic, side-effect-free probes over each task's module and args.
package analyzer

import (
	"strings"

	"zerohop/pkg/plan"
	"zerohop/pkg/registry"
)

// Result is one task's final classification plus its binary efficiency
// score in [0,1].
type Result struct {
	TaskID      string
	Class       registry.Class
	Limitations []string
	Reasons     []string
	Efficiency  float64
}

var systemBinaries = []string{
	"systemctl", "useradd", "mount", "fdisk", "lsblk", "df", "lsof",
}

var moduleWeights = map[string]float64{
	"debug": 0.95, "set_fact": 0.95, "assert": 0.95,
	"copy": 0.85, "template": 0.85,
	"command": 0.6, "shell": 0.6,
	"package": 0.3, "service": 0.3,
}

const defaultModuleWeight = 0.5

// Analyze classifies a single task, given its owning registry.
func Analyze(reg *registry.Registry, task plan.Task) Result {
	rec := reg.Lookup(task.ModuleName)
	limitations := probe(task)

	result := Result{TaskID: task.ID}

	switch rec.Class {
	case registry.Incompatible:
		result.Class = registry.Incompatible
		result.Reasons = rec.Reasons
	default:
		allLimitations := append(append([]string{}, rec.Limitations...), limitations...)
		if len(allLimitations) == 0 {
			result.Class = registry.FullyCompatible
		} else {
			result.Class = registry.PartiallyCompatible
			result.Limitations = allLimitations
		}
	}

	result.Efficiency = binaryEfficiency(result, task.ModuleName)
	return result
}

// AnalyzeAll classifies every task in tasks, preserving order.
func AnalyzeAll(reg *registry.Registry, tasks []plan.Task) []Result {
	out := make([]Result, len(tasks))
	for i, t := range tasks {
		out[i] = Analyze(reg, t)
	}
	return out
}

// probe runs the five syntactic probes over a task and returns every
// matched limitation description. Probes never execute or inspect
// anything beyond the task's own module name and args.
func probe(task plan.Task) []string {
	var limitations []string

	if isInteractive(task) {
		limitations = append(limitations, "interactive input")
	}
	if hasDynamicTemplating(task) {
		limitations = append(limitations, "dynamic argument references")
	}
	if isComplexFileOp(task) {
		limitations = append(limitations, "complex file operation semantics")
	}
	if hasNetworkDependency(task) {
		limitations = append(limitations, "network dependency")
	}
	if hasSystemDependency(task) {
		limitations = append(limitations, "system dependency")
	}

	return limitations
}

func isInteractive(task plan.Task) bool {
	switch task.ModuleName {
	case "pause", "prompt", "expect":
		return true
	}
	return argsContainAny(task.Args, "prompt", "interactive", "stdin")
}

func hasDynamicTemplating(task plan.Task) bool {
	for _, v := range task.Args {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if strings.Contains(s, "{{") || strings.Contains(s, "ansible_") ||
			strings.Contains(s, "hostvars") || strings.Contains(s, "group_names") {
			return true
		}
	}
	return false
}

func isComplexFileOp(task plan.Task) bool {
	switch task.ModuleName {
	case "synchronize", "unarchive", "archive":
		return true
	case "copy", "template":
		return argsContainAny(task.Args, "remote_src", "backup", "directory_mode")
	}
	return false
}

func hasNetworkDependency(task plan.Task) bool {
	switch task.ModuleName {
	case "uri", "get_url", "git", "subversion":
		return true
	case "package":
		return !argsContainAny(task.Args, "deb", "rpm")
	}
	for _, v := range task.Args {
		if s, ok := v.(string); ok && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")) {
			return true
		}
	}
	return false
}

func hasSystemDependency(task plan.Task) bool {
	switch task.ModuleName {
	case "user", "group", "mount", "filesystem", "lvg", "lvol", "service", "systemd", "package":
		return true
	case "command", "shell":
		for _, v := range task.Args {
			s, ok := v.(string)
			if !ok {
				continue
			}
			for _, bin := range systemBinaries {
				if strings.Contains(s, bin) {
					return true
				}
			}
		}
	}
	return false
}

func argsContainAny(args map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := args[key]; ok {
			return true
		}
		for _, v := range args {
			if s, ok := v.(string); ok && strings.Contains(s, key) {
				return true
			}
		}
	}
	return false
}

// binaryEfficiency computes a class-derived base score
// scaled by a per-module weight.
func binaryEfficiency(r Result, moduleName string) float64 {
	var base float64
	switch r.Class {
	case registry.FullyCompatible:
		base = 0.9
	case registry.PartiallyCompatible:
		base = 0.7 - 0.1*float64(len(r.Limitations))
		if base < 0.1 {
			base = 0.1
		}
	case registry.Incompatible:
		base = 0.0
	}

	weight, ok := moduleWeights[moduleName]
	if !ok {
		weight = defaultModuleWeight
	}
	return base * weight
}
