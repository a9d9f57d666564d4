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

// Package compile implements the compilation orchestrator: backend
// selection, build-flow sequencing against a working directory, retry and
// fallback, and bounded concurrency across a batch of binaries.
package compile

import (
	"context"
	"time"

	"zerohop/pkg/template"
)

// CompiledBinary is one backend invocation's output.
type CompiledBinary struct {
	CompilationID     string
	TargetTriple      string
	Bytes             []byte
	Checksum          string
	Size              int64
	CompilationTime   time.Duration
	OptimizationLevel template.OptimizationLevel
	Backend           string
	CreatedAt         time.Time
}

// BackendCapabilities describes what one compilation backend can do,
// mirrored from the original implementation's capability struct so the
// selection rule has the same shape.
type BackendCapabilities struct {
	SupportedTargets         []string
	SupportsCrossCompilation bool
	SupportsStaticLinking    bool
	SupportsLTO              bool
	RequiresToolchain        bool
}

// Backend is one compilation strategy. Implementations must be safe for
// concurrent use across targets.
type Backend interface {
	Name() string
	CanHandle(targetTriple string, caps Capabilities) bool
	Capabilities() BackendCapabilities
	Compile(ctx context.Context, tmpl *template.Template, workDir string) (CompiledBinary, error)
}
