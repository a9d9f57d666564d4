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

// Package strategy implements the strategy planner: it partitions
// hosts by target triple, decides per partition whether enough tasks
// qualify for a compiled binary, and picks the plan-level strategy
// (BinaryOnly / Hybrid / SshOnly) from the aggregate compatibility ratio
// and mean binary efficiency.
package strategy

import (
	"sort"

	"zerohop/pkg/analyzer"
	"zerohop/pkg/core/errs"
	"zerohop/pkg/plan"
	"zerohop/pkg/registry"
)

// Selection is the plan-level deployment strategy.
type Selection string

const (
	BinaryOnly Selection = "binary-only"
	Hybrid     Selection = "hybrid"
	SshOnly    Selection = "ssh-only"
)

// Descriptor is one binary deployment descriptor: the set of hosts
// sharing a target triple, and the task subset bundled for compilation.
type Descriptor struct {
	TargetTriple     string
	Hosts            []string
	TaskIDs          []string
	EstimatedSavings float64 // seconds, the predicted-savings formula
}

// Result is the strategy planner's full output for one plan.
type Result struct {
	Strategy        Selection
	Descriptors     []Descriptor
	ResidualTaskIDs []string // tasks falling through to the fallback transport
	CompatRatio     float64
	MeanEfficiency  float64
}

// Config controls the planner's thresholds (mirrors pkg/core/config.StrategyConfig
// without importing it, keeping this package free of the config package's
// YAML concerns).
type Config struct {
	MinBinaryThreshold int
	AllowPartial       bool
}

// HostSelectorMatcher reports whether a task's target selector includes a
// given host. pkg/inventory's resolved hosts carry group membership;
// callers build this from that data so pkg/strategy doesn't need to know
// about inventory internals beyond host/group names.
type HostSelectorMatcher func(selector plan.TargetSelector, hostName string, hostGroups []string) bool

// DefaultSelectorMatch implements TargetSelector matching: "all" matches
// every host; "groups"/"hosts" match by membership; "expression" is
// treated as always-matching since plan authoring and its expression
// language live upstream of this tool.
func DefaultSelectorMatch(selector plan.TargetSelector, hostName string, hostGroups []string) bool {
	switch selector.Kind {
	case "", "all":
		return true
	case "hosts":
		for _, h := range selector.Hosts {
			if h == hostName {
				return true
			}
		}
		return false
	case "groups":
		for _, g := range selector.Groups {
			for _, hg := range hostGroups {
				if g == hg {
					return true
				}
			}
		}
		return false
	case "expression":
		return true
	default:
		return false
	}
}

// Partition groups host names by target triple. hostTriples maps host
// name to its already-detected target triple (pkg/target's output);
// unresolved hosts must be excluded by the caller before calling Plan.
func Partition(hostTriples map[string]string) map[string][]string {
	out := map[string][]string{}
	for host, triple := range hostTriples {
		out[triple] = append(out[triple], host)
	}
	for _, hosts := range out {
		sort.Strings(hosts)
	}
	return out
}

// Plan computes the full strategy result for a set of tasks against a
// partitioned host fleet.
func Plan(
	tasks []plan.Task,
	hostTriples map[string]string,
	hostGroups map[string][]string,
	reg *registry.Registry,
	cfg Config,
	match HostSelectorMatcher,
) (*Result, error) {
	if len(tasks) == 0 {
		return nil, &errs.AnalysisError{
			Kind:    errs.AnalysisErrorInsufficientData,
			Message: "plan has no tasks to analyze",
		}
	}
	if cfg.MinBinaryThreshold < 1 {
		return nil, &errs.AnalysisError{
			Kind:    errs.AnalysisErrorInvalidConfig,
			Message: "min_binary_threshold must be >= 1",
		}
	}
	if match == nil {
		match = DefaultSelectorMatch
	}

	results := analyzer.AnalyzeAll(reg, tasks)
	resultByID := make(map[string]analyzer.Result, len(results))
	taskByID := make(map[string]plan.Task, len(tasks))
	for i, r := range results {
		resultByID[r.TaskID] = r
		taskByID[r.TaskID] = tasks[i]
	}

	compatRatio, meanEfficiency := aggregate(results)

	partitions := Partition(hostTriples)
	partitionNames := make([]string, 0, len(partitions))
	for triple := range partitions {
		partitionNames = append(partitionNames, triple)
	}
	sort.Strings(partitionNames)

	k := dynamicThreshold(cfg.MinBinaryThreshold, compatRatio)

	var descriptors []Descriptor
	residualSet := map[string]bool{}
	for _, t := range tasks {
		residualSet[t.ID] = true
	}

	for _, triple := range partitionNames {
		hosts := partitions[triple]

		var qualifying []string
		for _, t := range tasks {
			r := resultByID[t.ID]
			if r.Class == registry.Incompatible {
				continue
			}
			if r.Class == registry.PartiallyCompatible && !cfg.AllowPartial {
				continue
			}
			if !appliesToAnyHost(t.TargetSelector, hosts, hostGroups, match) {
				continue
			}
			qualifying = append(qualifying, t.ID)
		}

		if len(qualifying) < k {
			continue
		}

		var savings float64
		for _, id := range qualifying {
			savings += taskByID[id].EstimatedDuration * meanEfficiency
		}
		if cap := totalDuration(qualifying, taskByID) * 0.4; savings > cap {
			savings = cap
		}

		for _, id := range qualifying {
			delete(residualSet, id)
		}

		descriptors = append(descriptors, Descriptor{
			TargetTriple:     triple,
			Hosts:            hosts,
			TaskIDs:          qualifying,
			EstimatedSavings: savings,
		})
	}

	residual := make([]string, 0, len(residualSet))
	for _, t := range tasks {
		if residualSet[t.ID] {
			residual = append(residual, t.ID)
		}
	}

	return &Result{
		Strategy:        selectStrategy(compatRatio, meanEfficiency),
		Descriptors:     descriptors,
		ResidualTaskIDs: residual,
		CompatRatio:     compatRatio,
		MeanEfficiency:  meanEfficiency,
	}, nil
}

func appliesToAnyHost(selector plan.TargetSelector, hosts []string, hostGroups map[string][]string, match HostSelectorMatcher) bool {
	for _, h := range hosts {
		if match(selector, h, hostGroups[h]) {
			return true
		}
	}
	return false
}

func totalDuration(ids []string, taskByID map[string]plan.Task) float64 {
	var total float64
	for _, id := range ids {
		total += taskByID[id].EstimatedDuration
	}
	return total
}

// aggregate computes the fully-compatible ratio and mean binary
// efficiency over every analyzed task, the inputs to both the top-level
// strategy selection and the dynamic-K floor.
func aggregate(results []analyzer.Result) (compatRatio, meanEfficiency float64) {
	if len(results) == 0 {
		return 0, 0
	}
	var fully int
	var effSum float64
	for _, r := range results {
		if r.Class == registry.FullyCompatible {
			fully++
		}
		effSum += r.Efficiency
	}
	return float64(fully) / float64(len(results)), effSum / float64(len(results))
}

// dynamicThreshold adjusts K: the configured value is a floor,
// raised further as the compatibility ratio drops.
func dynamicThreshold(configuredK int, compatRatio float64) int {
	var floor int
	switch {
	case compatRatio > 0.9:
		floor = 3
	case compatRatio > 0.7:
		floor = 5
	default:
		floor = 10
	}
	if configuredK > floor {
		return configuredK
	}
	return floor
}

// selectStrategy implements the BinaryOnly/Hybrid/SshOnly rule.
func selectStrategy(compatRatio, meanEfficiency float64) Selection {
	switch {
	case compatRatio > 0.9 && meanEfficiency > 0.8:
		return BinaryOnly
	case compatRatio > 0.6 && meanEfficiency > 0.5:
		return Hybrid
	default:
		return SshOnly
	}
}
