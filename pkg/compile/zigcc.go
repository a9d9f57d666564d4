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
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/template"
)

// zigTargetForTriple maps a supported target triple to the zig cc
// `-target` value and the GOOS/GOARCH pair to pair it with, covering the
// musl and static-linking cases NativeGoBackend can't handle alone.
var zigTargetForTriple = map[string]struct {
	zig          string
	goos, goarch string
}{
	"x86_64-unknown-linux-gnu":   {"x86_64-linux-gnu", "linux", "amd64"},
	"aarch64-unknown-linux-gnu":  {"aarch64-linux-gnu", "linux", "arm64"},
	"x86_64-unknown-linux-musl":  {"x86_64-linux-musl", "linux", "amd64"},
	"aarch64-unknown-linux-musl": {"aarch64-linux-musl", "linux", "arm64"},
	"x86_64-apple-darwin":        {"x86_64-macos", "darwin", "amd64"},
	"aarch64-apple-darwin":       {"aarch64-macos", "darwin", "arm64"},
}

// ZigCCBackend cross-compiles CGO-enabled binaries by driving `go build`
// with CC set to `zig cc -target <triple>`, covering the musl and
// static-linking targets the plain toolchain cannot reach.
type ZigCCBackend struct{}

// zigBackendName identifies this backend in the orchestrator's fallback
// gate: a zig-cc failure only falls through to the native toolchain when
// zigbuild_fallback is enabled.
const zigBackendName = "zig-cc"

func (ZigCCBackend) Name() string { return zigBackendName }

func (ZigCCBackend) Capabilities() BackendCapabilities {
	targets := make([]string, 0, len(zigTargetForTriple))
	for t := range zigTargetForTriple {
		targets = append(targets, t)
	}
	return BackendCapabilities{
		SupportedTargets:         targets,
		SupportsCrossCompilation: true,
		SupportsStaticLinking:    true,
		SupportsLTO:              false,
		RequiresToolchain:        true,
	}
}

func (ZigCCBackend) CanHandle(targetTriple string, caps Capabilities) bool {
	if !caps.GoAvailable || !caps.ZigCCAvailable {
		return false
	}
	_, ok := zigTargetForTriple[targetTriple]
	return ok
}

func (ZigCCBackend) Compile(ctx context.Context, tmpl *template.Template, workDir string) (CompiledBinary, error) {
	start := time.Now()

	if err := materializeSources(workDir, tmpl.SourceFiles); err != nil {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorZigbuildFailed, Target: tmpl.TargetTriple, Message: "failed to materialize source tree", Cause: err}
	}

	env, ok := zigTargetForTriple[tmpl.TargetTriple]
	if !ok {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorUnsupportedTarget, Target: tmpl.TargetTriple, Message: "no zig cc target mapping"}
	}

	outputName := "zerohop-runner"
	if env.goos == "windows" {
		outputName += ".exe"
	}
	outputPath := filepath.Join(workDir, outputName)

	args := append([]string{"build", "-o", outputPath}, goBuildArgs(tmpl.OptimizationLevel)...)
	args = append(args, ".")

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"GOOS="+env.goos,
		"GOARCH="+env.goarch,
		"CGO_ENABLED=1",
		"CC=zig cc -target "+env.zig,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return CompiledBinary{}, errs.NewCompilationFailedError(errs.CompilationErrorZigbuildFailed, tmpl.TargetTriple, string(out))
	}

	return finishBinary(tmpl.TargetTriple, outputPath, "zig-cc", tmpl.OptimizationLevel, start)
}
