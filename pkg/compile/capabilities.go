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

package compile

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CapabilityLevel summarizes how much compilation this host can do
// without operator intervention.
type CapabilityLevel string

const (
	CapabilityFull         CapabilityLevel = "full"         // go toolchain + zig cc available
	CapabilityLimited      CapabilityLevel = "limited"      // go toolchain only, some cross targets work natively
	CapabilityMinimal      CapabilityLevel = "minimal"      // go toolchain only, native target only
	CapabilityInsufficient CapabilityLevel = "insufficient" // no usable toolchain
)

// Capabilities is the result of probing the local host for compilation
// tooling, backing the check-capabilities subcommand.
type Capabilities struct {
	GoVersion      string
	GoAvailable    bool
	ZigAvailable   bool
	ZigCCAvailable bool
	NativeTarget   string
	Level          CapabilityLevel
}

// SetupRecommendation names one concrete action to improve Capabilities.
type SetupRecommendation struct {
	Improvement string
	Impact      string // "critical" | "high" | "medium" | "low"
	Command     string
	Description string
}

// Prober runs external toolchain probes. Production code uses
// exec.Command via ExecProber; tests substitute a stub.
type Prober interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// ExecProber runs real subprocesses via os/exec.
type ExecProber struct{}

func (ExecProber) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// DetectCapabilities probes for a go toolchain and zig cc.
func DetectCapabilities(ctx context.Context, prober Prober, nativeTarget string) Capabilities {
	caps := Capabilities{NativeTarget: nativeTarget, Level: CapabilityInsufficient}

	if out, err := prober.Run(ctx, "go", "version"); err == nil {
		caps.GoAvailable = true
		caps.GoVersion = strings.TrimSpace(out)
		caps.Level = CapabilityMinimal
	}

	if _, err := prober.Run(ctx, "zig", "version"); err == nil {
		caps.ZigAvailable = true
		if _, err := prober.Run(ctx, "zig", "cc", "--version"); err == nil {
			caps.ZigCCAvailable = true
			if caps.GoAvailable {
				caps.Level = CapabilityFull
			}
		}
	}

	if caps.GoAvailable && !caps.ZigCCAvailable {
		caps.Level = CapabilityLimited
	}

	return caps
}

// Recommendations turns a Capabilities snapshot into actionable setup
// steps, most critical first.
func Recommendations(caps Capabilities) []SetupRecommendation {
	var recs []SetupRecommendation

	if !caps.GoAvailable {
		recs = append(recs, SetupRecommendation{
			Improvement: "Install the Go toolchain",
			Impact:      "critical",
			Command:     "https://go.dev/dl/",
			Description: "a Go toolchain is required for all compilation functionality",
		})
	}
	if !caps.ZigAvailable {
		recs = append(recs, SetupRecommendation{
			Improvement: "Install zig for cross-compilation",
			Impact:      "high",
			Command:     "https://ziglang.org/download/",
			Description: "zig cc enables CGO cross-compilation to targets other than the host triple",
		})
	} else if !caps.ZigCCAvailable {
		recs = append(recs, SetupRecommendation{
			Improvement: "Verify the zig installation exposes the cc subcommand",
			Impact:      "high",
			Command:     "zig cc --version",
			Description: "zig was found but zig cc did not respond",
		})
	}

	return recs
}
