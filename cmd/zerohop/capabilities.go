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
	"sort"

	"github.com/spf13/cobra"

	"zerohop/pkg/compile"
	"zerohop/pkg/target"
)

var capabilitiesVerbose bool

var capabilitiesCmd = &cobra.Command{
	Use:   "check-capabilities",
	Short: "Probe the local compilation toolchain",
	Long: `Probe the local host for compilation tooling and report which target
triples it can build for.

The capability level determines which deployment strategies are
available: "full" (go + zig cc) covers every supported triple including
musl static linking, "limited" (go only) covers pure-Go cross targets,
and "insufficient" forces SSH fallback for everything.`,
	Args: cobra.NoArgs,
	RunE: runCheckCapabilities,
}

func init() {
	capabilitiesCmd.Flags().BoolVarP(&capabilitiesVerbose, "verbose", "v", false,
		"Also list per-triple buildability and setup recommendations")

	rootCmd.AddCommand(capabilitiesCmd)
}

func runCheckCapabilities(cmd *cobra.Command, args []string) error {
	caps := compile.DetectCapabilities(cmd.Context(), compile.ExecProber{}, target.NativeTriple())

	fmt.Printf("Capability level: %s\n", caps.Level)
	fmt.Printf("Native target:    %s\n", caps.NativeTarget)
	if caps.GoAvailable {
		fmt.Printf("Go toolchain:     %s\n", caps.GoVersion)
	} else {
		fmt.Println("Go toolchain:     not found")
	}
	if caps.ZigCCAvailable {
		fmt.Println("zig cc:           available")
	} else if caps.ZigAvailable {
		fmt.Println("zig cc:           zig found but cc subcommand unusable")
	} else {
		fmt.Println("zig cc:           not found")
	}

	if !capabilitiesVerbose {
		return nil
	}

	fmt.Println("\nTarget triples:")
	backends := []compile.Backend{compile.ZigCCBackend{}, compile.NativeGoBackend{}}
	triples := target.SupportedTriples()
	sort.Strings(triples)
	for _, triple := range triples {
		handler := "ssh-fallback"
		for _, b := range backends {
			if b.CanHandle(triple, caps) {
				handler = b.Name()
				break
			}
		}
		fmt.Printf("  %-28s -> %s\n", triple, handler)
	}

	recs := compile.Recommendations(caps)
	if len(recs) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range recs {
			fmt.Printf("  [%s] %s\n      %s\n      %s\n", r.Impact, r.Improvement, r.Description, r.Command)
		}
	}

	return nil
}
