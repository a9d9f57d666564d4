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
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zerohop/pkg/analyzer"
	"zerohop/pkg/inventory"
	"zerohop/pkg/plan"
	"zerohop/pkg/registry"
	"zerohop/pkg/strategy"
	"zerohop/pkg/target"
)

var analyzeConfigPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <plan> <inventory>",
	Short: "Report per-task compatibility and the deployment strategy",
	Long: `Analyze an execution plan against an inventory without compiling or
deploying anything.

Reports each task's binary-compatibility class and efficiency score,
the host partitioning by target triple, the selected strategy
(binary-only, hybrid, or ssh-only), and the binary deployment
descriptors that a deploy run would produce.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "",
		"Path to the zerohop config file (env: ZEROHOP_CONFIG)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(analyzeConfigPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	ep, err := readPlan(args[0])
	if err != nil {
		return err
	}
	if err := plan.Validate(ep); err != nil {
		return err
	}

	inv, err := readInventory(ctx, args[1])
	if err != nil {
		return err
	}
	resolved, err := inventory.Resolve(inv)
	if err != nil {
		return err
	}

	prober := target.NewSSHProber(inv.Hosts, 10*time.Second)
	hostTriples := map[string]string{}
	hostGroups := map[string][]string{}
	for name, rh := range resolved {
		hostGroups[name] = rh.Host.Groups

		info := target.HostInfo{
			Name:             name,
			ConnectionMethod: rh.Host.Connection.Method,
			ExplicitTriple:   rh.Host.TargetTriple,
		}
		if v, ok := rh.Variables["ansible_architecture"].(string); ok {
			info.Arch = v
		}
		if v, ok := rh.Variables["ansible_os_family"].(string); ok {
			info.OSFamily = v
		}
		if info.ExplicitTriple == "" {
			if v, ok := rh.Variables["target_triple"].(string); ok {
				info.ExplicitTriple = v
			}
		}

		triple, err := target.Detect(info, prober)
		if err != nil {
			return err
		}
		if !target.Supported(triple) {
			logger.Warn("host target is outside the support matrix; it will use SSH fallback", "host", name, "target", triple)
			continue
		}
		hostTriples[name] = triple
	}

	reg := registry.New()
	results := analyzer.AnalyzeAll(reg, ep.Tasks)

	fmt.Println("Task analysis:")
	for _, r := range results {
		line := fmt.Sprintf("  %-20s %-22s efficiency=%.2f", r.TaskID, r.Class, r.Efficiency)
		if len(r.Limitations) > 0 {
			line += "  limitations: " + strings.Join(r.Limitations, "; ")
		}
		if len(r.Reasons) > 0 {
			line += "  reasons: " + strings.Join(r.Reasons, "; ")
		}
		fmt.Println(line)
	}

	stratResult, err := strategy.Plan(ep.Tasks, hostTriples, hostGroups, reg, strategy.Config{
		MinBinaryThreshold: cfg.Strategy.MinBinaryThreshold,
		AllowPartial:       cfg.Strategy.AllowPartial,
	}, nil)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Strategy: %s (compatible ratio %.2f, mean efficiency %.2f)\n",
		stratResult.Strategy, stratResult.CompatRatio, stratResult.MeanEfficiency)

	if len(stratResult.Descriptors) == 0 {
		fmt.Println("No binary deployment descriptors; every task uses the fallback transport.")
	}
	for _, d := range stratResult.Descriptors {
		fmt.Printf("  binary[%s]: %d hosts, %d tasks, estimated savings %.1fs\n",
			d.TargetTriple, len(d.Hosts), len(d.TaskIDs), d.EstimatedSavings)
	}
	if len(stratResult.ResidualTaskIDs) > 0 {
		fmt.Printf("  fallback transport: %d tasks (%s)\n",
			len(stratResult.ResidualTaskIDs), strings.Join(stratResult.ResidualTaskIDs, ", "))
	}

	moduleNames := map[string]bool{}
	var names []string
	for _, t := range ep.Tasks {
		if !moduleNames[t.ModuleName] {
			moduleNames[t.ModuleName] = true
			names = append(names, t.ModuleName)
		}
	}
	summary := reg.AnalyzeSet(names)
	fmt.Println()
	fmt.Printf("Modules: %d total (%d fully, %d partially, %d incompatible, %d unknown), perf score %.2f\n",
		summary.Total, summary.Fully, summary.Partially, summary.Incompatible, summary.Unknown, summary.PerfScore)

	return nil
}
