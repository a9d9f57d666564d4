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
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/template"
)

// goEnvForTriple maps a supported target triple to the GOOS/GOARCH pair
// the Go toolchain understands. CGO is disabled here since pure cross
// compilation never needs a C toolchain; triples that do (musl static
// linking) go through ZigCCBackend instead.
var goEnvForTriple = map[string][2]string{
	"x86_64-unknown-linux-gnu":  {"linux", "amd64"},
	"aarch64-unknown-linux-gnu": {"linux", "arm64"},
	"x86_64-apple-darwin":       {"darwin", "amd64"},
	"aarch64-apple-darwin":      {"darwin", "arm64"},
	"x86_64-pc-windows-msvc":    {"windows", "amd64"},
}

// NativeGoBackend compiles with the host's `go build`, cross-compiling
// via GOOS/GOARCH when the toolchain supports it natively (no CGO).
type NativeGoBackend struct{}

func (NativeGoBackend) Name() string { return "native-go" }

func (NativeGoBackend) Capabilities() BackendCapabilities {
	targets := make([]string, 0, len(goEnvForTriple))
	for t := range goEnvForTriple {
		targets = append(targets, t)
	}
	return BackendCapabilities{
		SupportedTargets:         targets,
		SupportsCrossCompilation: true,
		SupportsStaticLinking:    false,
		SupportsLTO:              false,
		RequiresToolchain:        true,
	}
}

func (NativeGoBackend) CanHandle(targetTriple string, caps Capabilities) bool {
	if !caps.GoAvailable {
		return false
	}
	_, ok := goEnvForTriple[targetTriple]
	return ok
}

// Compile materializes tmpl.SourceFiles into workDir and invokes `go
// build` with GOOS/GOARCH set for tmpl.TargetTriple.
func (NativeGoBackend) Compile(ctx context.Context, tmpl *template.Template, workDir string) (CompiledBinary, error) {
	start := time.Now()

	if err := materializeSources(workDir, tmpl.SourceFiles); err != nil {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorCargoFailed, Target: tmpl.TargetTriple, Message: "failed to materialize source tree", Cause: err}
	}

	env, ok := goEnvForTriple[tmpl.TargetTriple]
	if !ok {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorUnsupportedTarget, Target: tmpl.TargetTriple, Message: "no GOOS/GOARCH mapping for target"}
	}

	outputName := "zerohop-runner"
	if env[0] == "windows" {
		outputName += ".exe"
	}
	outputPath := filepath.Join(workDir, outputName)

	args := append([]string{"build", "-o", outputPath}, goBuildArgs(tmpl.OptimizationLevel)...)
	args = append(args, ".")

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"GOOS="+env[0],
		"GOARCH="+env[1],
		"CGO_ENABLED=0",
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return CompiledBinary{}, errs.NewCompilationFailedError(errs.CompilationErrorCargoFailed, tmpl.TargetTriple, string(out))
	}

	return finishBinary(tmpl.TargetTriple, outputPath, "native-go", tmpl.OptimizationLevel, start)
}

// materializeSources writes tmpl.SourceFiles under dir, creating parent
// directories as needed.
func materializeSources(dir string, files map[string][]byte) error {
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// finishBinary reads the compiled output, computes its checksum, and
// builds the CompiledBinary record.
func finishBinary(targetTriple, outputPath, backend string, level template.OptimizationLevel, start time.Time) (CompiledBinary, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorBinaryNotFound, Target: targetTriple, Message: fmt.Sprintf("expected output at %s", outputPath), Cause: err}
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorBinaryNotFound, Target: targetTriple, Message: "failed to read compiled binary", Cause: err}
	}

	sum := sha256.Sum256(data)
	return CompiledBinary{
		TargetTriple:      targetTriple,
		Bytes:             data,
		Checksum:          fmt.Sprintf("%x", sum),
		Size:              info.Size(),
		CompilationTime:   time.Since(start),
		OptimizationLevel: level,
		Backend:           backend,
		CreatedAt:         time.Now(),
	}, nil
}
