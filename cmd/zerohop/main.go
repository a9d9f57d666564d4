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

// Package main provides the CLI entrypoint for zerohop.
//
// zerohop compiles a declarative execution plan into self-contained
// binaries and deploys them across a host fleet, replacing N SSH
// round-trips with one deploy-and-run per target triple. Subcommands:
//
//   - deploy: analyze, compile, and deploy a plan against an inventory
//   - analyze: report per-task compatibility and the chosen strategy
//   - check-capabilities: probe the local compilation toolchain
//   - install-deps: report which toolchain pieces are missing
//
// Configuration is loaded from a YAML file (--config flag, ZEROHOP_CONFIG
// env var) with defaults for unset fields. The VERBOSE environment
// variable (0 = WARNING, 1 = INFO, 2 = DEBUG) controls log level.
//
// Exit codes: 0 success, 1 partial success, 2 total failure,
// 3 configuration error.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"runtime/debug"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/spf13/cobra"

	"zerohop/pkg/core/config"
	"zerohop/pkg/core/logging"
)

const version = "v0.1.0"

// Exit codes per the deployment CLI surface.
const (
	exitSuccess        = 0
	exitPartialFailure = 1
	exitTotalFailure   = 2
	exitConfigError    = 3
)

// exitCodeError carries a specific process exit code up through cobra's
// RunE error path to main.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:     "zerohop",
	Short:   "Compile execution plans into deployable binaries",
	Version: version,
	Long: `zerohop turns a declarative execution plan into statically linked
binaries, one per target triple, and deploys them across a host fleet.

Tasks whose modules cannot run from a compiled binary fall back to
per-task SSH execution; the analyze subcommand shows the split before
anything is compiled or transferred.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var coded *exitCodeError
		if errors.As(err, &coded) {
			os.Exit(coded.code)
		}
		os.Exit(exitTotalFailure)
	}
}

// setupLogger builds the process logger and installs it as the slog
// default. The VERBOSE environment variable overrides the config file's
// logging.verbose: 0 = WARNING, 1 = INFO (default), 2 = DEBUG.
func setupLogger(cfg *config.Config) *slog.Logger {
	verbose := cfg.Logging.Verbose
	switch os.Getenv("VERBOSE") {
	case "0":
		verbose = 0
	case "1":
		verbose = 1
	case "2":
		verbose = 2
	}

	logger := logging.NewLoggerFromVerbose(verbose)
	slog.SetDefault(logger)
	return logger
}

// logResourceLimits logs GOMAXPROCS and GOMEMLIMIT for observability.
func logResourceLimits(logger *slog.Logger) {
	gomaxprocs := runtime.GOMAXPROCS(0)
	var gomemlimit string
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		gomemlimit = fmt.Sprintf("%d bytes (%.2f MiB)", limit, float64(limit)/(1024*1024))
	} else {
		gomemlimit = "unlimited"
	}

	logger.Info("zerohop starting",
		"version", version,
		"gomaxprocs", gomaxprocs,
		"gomemlimit", gomemlimit)
}

// loadConfig resolves the config path (flag > ZEROHOP_CONFIG env var) and
// loads it, or returns a default config when neither is set. Any load or
// validation failure is a configuration error (exit code 3).
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("ZEROHOP_CONFIG")
	}

	if path == "" {
		cfg := &config.Config{
			Compilation: config.CompilationConfig{ZigBuildFallback: config.DefaultZigBuildFallback},
			Strategy:    config.StrategyConfig{AllowPartial: config.DefaultAllowPartial},
			Logging:     config.LoggingConfig{Verbose: config.DefaultVerbose},
		}
		config.SetDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &exitCodeError{code: exitConfigError, err: err}
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &exitCodeError{code: exitConfigError, err: err}
	}
	return cfg, nil
}
