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
	"fmt"
	"log/slog"
	"math"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"zerohop/pkg/cache"
	"zerohop/pkg/compile"
	"zerohop/pkg/core/config"
	"zerohop/pkg/deploy"
	"zerohop/pkg/metrics"
	"zerohop/pkg/pipeline"
	"zerohop/pkg/progress"
	"zerohop/pkg/registry"
	"zerohop/pkg/strategy"
	"zerohop/pkg/target"
	"zerohop/pkg/template"

	embedpkg "zerohop/pkg/embed"
)

var (
	deployConfigPath       string
	deployOptimizationMode string
	deployDryRun           bool
	deployRunArgs          []string
	deployMetricsAddr      string
)

var deployCmd = &cobra.Command{
	Use:   "deploy <plan> <inventory>",
	Short: "Compile and deploy a plan against an inventory",
	Long: `Compile and deploy an execution plan against an inventory.

The plan is analyzed per task, hosts are partitioned by target triple,
and one binary is compiled and deployed per qualifying partition. Tasks
that cannot run from a binary fall back to per-task SSH execution.

Example usage:
  # Deploy with defaults
  zerohop deploy plan.yaml inventory.ini

  # Show what would be deployed without compiling or transferring
  zerohop deploy plan.yaml inventory.ini --dry-run

  # Use the lowest binary threshold and admit partially compatible tasks
  zerohop deploy plan.yaml inventory.ini --optimization-mode aggressive`,
	Args: cobra.ExactArgs(2),
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployConfigPath, "config", "",
		"Path to the zerohop config file (env: ZEROHOP_CONFIG)")
	deployCmd.Flags().StringVar(&deployOptimizationMode, "optimization-mode", "auto",
		"Binary optimization mode: off, auto, or aggressive")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false,
		"Analyze and plan only; compile and transfer nothing")
	deployCmd.Flags().StringSliceVar(&deployRunArgs, "run-arg", nil,
		"Argument passed to the deployed binary on execution (repeatable)")
	deployCmd.Flags().StringVar(&deployMetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address for the run's duration (empty disables)")

	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(deployConfigPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	logResourceLimits(logger)

	stratCfg, err := strategyConfigForMode(cfg, deployOptimizationMode)
	if err != nil {
		return &exitCodeError{code: exitConfigError, err: err}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	ep, err := readPlan(args[0])
	if err != nil {
		return err
	}
	inv, err := readInventory(ctx, args[1])
	if err != nil {
		return err
	}

	logger.Info("inputs loaded",
		"plan", args[0],
		"tasks", len(ep.Tasks),
		"inventory", args[1],
		"hosts", len(inv.Hosts))

	p, closePipeline, err := buildPipeline(ctx, cfg, logger, stratCfg)
	if err != nil {
		return err
	}
	defer closePipeline()
	p.Prober = target.NewSSHProber(inv.Hosts, 10*time.Second)

	if deployMetricsAddr != "" {
		promRegistry := prometheus.NewRegistry()
		p.Metrics = pipeline.NewMetrics(promRegistry)
		go func() {
			if err := metrics.NewServer(deployMetricsAddr, promRegistry).Start(ctx); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	result, err := p.Run(ctx, ep, inv, pipeline.RunOptions{
		ControllerEndpoint: cfg.Progress.ControllerEndpoint,
		DryRun:             deployDryRun,
		DeployPolicy:       deploy.PartialFailurePolicy(cfg.Deployment.PartialFailurePolicy),
		Args:               deployRunArgs,
	})
	if err != nil {
		return &exitCodeError{code: exitTotalFailure, err: err}
	}

	logger.Info("deployment run complete",
		"strategy", result.Strategy,
		"descriptors", len(result.Descriptors),
		"residual_tasks", len(result.ResidualTaskIDs),
		"hosts_succeeded", result.Succeeded,
		"hosts_failed", result.Failed,
		"duration", result.Duration)

	switch {
	case result.Failed == 0:
		return nil
	case result.Succeeded > 0:
		return &exitCodeError{code: exitPartialFailure,
			err: fmt.Errorf("deployment partially failed: %d of %d hosts failed", result.Failed, result.Succeeded+result.Failed)}
	default:
		return &exitCodeError{code: exitTotalFailure,
			err: fmt.Errorf("deployment failed on all %d hosts", result.Failed)}
	}
}

// strategyConfigForMode maps the --optimization-mode flag onto the
// planner's knobs: "off" raises the descriptor threshold beyond any real
// plan so every task takes the fallback transport, "aggressive" sets the
// configured threshold to 1 and admits partially compatible tasks (the
// planner's compatibility-based floor of 3, 5 or 10 tasks per partition
// still applies), "auto" uses the config file's values.
func strategyConfigForMode(cfg *config.Config, mode string) (strategy.Config, error) {
	base := strategy.Config{
		MinBinaryThreshold: cfg.Strategy.MinBinaryThreshold,
		AllowPartial:       cfg.Strategy.AllowPartial,
	}

	switch mode {
	case "auto":
		return base, nil
	case "off":
		base.MinBinaryThreshold = math.MaxInt32
		return base, nil
	case "aggressive":
		base.MinBinaryThreshold = 1
		base.AllowPartial = true
		return base, nil
	default:
		return strategy.Config{}, fmt.Errorf("invalid optimization mode %q: must be off, auto, or aggressive", mode)
	}
}

// buildPipeline assembles every long-lived component from a validated
// config. The returned close function releases the connection pool.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, stratCfg strategy.Config) (*pipeline.Pipeline, func(), error) {
	embedder := embedpkg.New(embedpkg.Config{
		CompressionAlgorithm:      embedpkg.CompressionAlgorithm(cfg.Embedding.CompressionAlgorithm),
		CompressionThresholdBytes: cfg.Embedding.CompressionThresholdBytes,
		AllowPlaintextSecrets:     cfg.Embedding.AllowPlaintextSecrets,
	})

	synthesizer, err := template.New(cache.NewTemplateCache(cache.DefaultMaxSize, cache.DefaultTTL), embedder)
	if err != nil {
		return nil, nil, err
	}

	binCache, err := cache.Open(cfg.Compilation.CacheDir, cfg.Compilation.MaxCacheSizeMB)
	if err != nil {
		return nil, nil, err
	}

	compilationTimeout, err := time.ParseDuration(cfg.Compilation.CompilationTimeout)
	if err != nil {
		return nil, nil, &exitCodeError{code: exitConfigError, err: err}
	}
	deploymentTimeout, err := time.ParseDuration(cfg.Deployment.DeploymentTimeout)
	if err != nil {
		return nil, nil, &exitCodeError{code: exitConfigError, err: err}
	}
	reportTimeout, err := time.ParseDuration(cfg.Progress.ReportTimeout)
	if err != nil {
		return nil, nil, &exitCodeError{code: exitConfigError, err: err}
	}

	maxParallel := cfg.Compilation.MaxParallelCompilations
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}

	caps := compile.DetectCapabilities(ctx, compile.ExecProber{}, target.NativeTriple())
	orchestrator := compile.New(backendsForConfig(cfg.Compilation.Backend), binCache, caps, compile.Config{
		MaxParallelCompilations: maxParallel,
		Timeout:                 compilationTimeout,
		DisableZigBuildFallback: !cfg.Compilation.ZigBuildFallback,
	})

	pool := deploy.NewConnectionPool(deploy.NewDialer(30 * time.Second))
	deployer := deploy.New(pool, nil, cfg.Deployment.MaxThreads)
	deployer.HostTimeout = deploymentTimeout

	reporter := progress.New(logger, nil, progress.Config{
		ControllerEndpoint: cfg.Progress.ControllerEndpoint,
		ReportTimeout:      reportTimeout,
	})

	p := &pipeline.Pipeline{
		Registry:       registry.New(),
		Synthesizer:    synthesizer,
		Compiler:       orchestrator,
		Deployer:       deployer,
		Reporter:       reporter,
		Logger:         logger,
		StrategyConfig: stratCfg,
	}
	return p, pool.CloseAll, nil
}

// backendsForConfig returns the backend priority list, honoring a pinned
// backend name from the config. An empty name selects automatically per
// the rule: zig-cc if it can handle the triple, native otherwise,
// SSH fallback last.
func backendsForConfig(pinned string) []compile.Backend {
	switch pinned {
	case "native":
		return []compile.Backend{compile.NativeGoBackend{}, compile.SshFallbackBackend{}}
	case "zigcc":
		return []compile.Backend{compile.ZigCCBackend{}, compile.SshFallbackBackend{}}
	case "ssh-fallback":
		return []compile.Backend{compile.SshFallbackBackend{}}
	default:
		return []compile.Backend{compile.ZigCCBackend{}, compile.NativeGoBackend{}, compile.SshFallbackBackend{}}
	}
}
