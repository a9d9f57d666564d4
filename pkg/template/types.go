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

// Package template implements the template synthesizer: it turns
// an execution plan, a binary deployment descriptor, and target info into
// a complete, target-specific Go source tree ready for compilation.
package template

import (
	"zerohop/pkg/embed"
)

// OptimizationLevel is the one enum every compilation backend maps to its
// own flags (pkg/compile/flags.go); no backend-private enum exists.
type OptimizationLevel string

const (
	// OptimizationDebug is reserved for dry-run/test paths; the
	// synthesizer never selects it from task-count buckets.
	OptimizationDebug        OptimizationLevel = "debug"
	OptimizationRelease      OptimizationLevel = "release"
	OptimizationReleaseLTO   OptimizationLevel = "release-lto"
	OptimizationReleaseSmall OptimizationLevel = "release-small"
)

// Platform identifies which per-platform code module variant a template
// was synthesized with.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
)

// ManifestDependency is one entry of the generated go.mod-equivalent
// dependency list.
type ManifestDependency struct {
	Path    string
	Version string
}

// Manifest is the generated build manifest: a fixed base
// dependency set unioned with per-module additions.
type Manifest struct {
	ModulePath   string
	GoVersion    string
	Dependencies []ManifestDependency
}

// Template is the complete synthesizer output for one (plan, descriptor,
// target) combination (the Template type).
type Template struct {
	TemplateID        string
	CacheKey          string
	SourceFiles       map[string][]byte
	Manifest          Manifest
	EmbeddedData      embed.EmbeddedData
	TargetTriple      string
	Platform          Platform
	CompilationFlags  []string
	OptimizationLevel OptimizationLevel
	EstimatedSize     int64
}
