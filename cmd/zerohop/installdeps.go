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

	"github.com/spf13/cobra"

	"zerohop/pkg/compile"
	"zerohop/pkg/target"
)

var (
	installDepsZigBuild bool
	installDepsZig      bool
)

var installDepsCmd = &cobra.Command{
	Use:   "install-deps",
	Short: "Report which compilation dependencies are missing",
	Long: `Check for the toolchain pieces zerohop's compilation backends need and
report what is missing, with the command or download location for each.

Nothing is installed; the report is meant to be acted on by the
operator or a provisioning script.`,
	Args: cobra.NoArgs,
	RunE: runInstallDeps,
}

func init() {
	installDepsCmd.Flags().BoolVar(&installDepsZigBuild, "zigbuild", false,
		"Only check the zig-backed cross-compilation path")
	installDepsCmd.Flags().BoolVar(&installDepsZig, "zig", false,
		"Only check for the zig toolchain itself")

	rootCmd.AddCommand(installDepsCmd)
}

func runInstallDeps(cmd *cobra.Command, args []string) error {
	caps := compile.DetectCapabilities(cmd.Context(), compile.ExecProber{}, target.NativeTriple())

	checkZigOnly := installDepsZig || installDepsZigBuild
	missing := 0

	if !checkZigOnly {
		if caps.GoAvailable {
			fmt.Printf("ok      go (%s)\n", caps.GoVersion)
		} else {
			missing++
			fmt.Println("missing go: install from https://go.dev/dl/")
		}
	}

	switch {
	case caps.ZigCCAvailable:
		fmt.Println("ok      zig cc")
	case caps.ZigAvailable:
		missing++
		fmt.Println("missing zig cc: zig is installed but `zig cc --version` failed; check the installation")
	default:
		missing++
		fmt.Println("missing zig: install from https://ziglang.org/download/")
	}

	if installDepsZigBuild && caps.ZigCCAvailable && !caps.GoAvailable {
		missing++
		fmt.Println("missing go: zig cc alone cannot build; install from https://go.dev/dl/")
	}

	if missing == 0 {
		fmt.Println("\nAll compilation dependencies are present.")
		return nil
	}
	fmt.Printf("\n%d dependency problem(s) found.\n", missing)
	return nil
}
