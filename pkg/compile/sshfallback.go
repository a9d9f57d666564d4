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

	"zerohop/pkg/core/errs"
	"zerohop/pkg/template"
)

// SshFallbackBackend performs no compilation: it always reports it can
// handle any target, so the selection rule only reaches it when
// neither ZigCCBackend nor NativeGoBackend can. Compile always fails,
// signaling the orchestrator to hand the descriptor's tasks to the
// per-task SSH driver instead of a compiled binary.
type SshFallbackBackend struct{}

func (SshFallbackBackend) Name() string { return "ssh-fallback" }

func (SshFallbackBackend) Capabilities() BackendCapabilities {
	return BackendCapabilities{RequiresToolchain: false}
}

func (SshFallbackBackend) CanHandle(string, Capabilities) bool { return true }

func (SshFallbackBackend) Compile(ctx context.Context, tmpl *template.Template, workDir string) (CompiledBinary, error) {
	return CompiledBinary{}, &errs.CompilationError{
		Kind:    errs.CompilationErrorUnsupportedTarget,
		Target:  tmpl.TargetTriple,
		Message: "no compilation backend available; falling back to per-task SSH execution",
		Hints:   []string{"Run the install-deps subcommand to add a compiler for this target"},
	}
}
