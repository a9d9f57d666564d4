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

package template

import "sort"

// baseDependencies is the fixed dependency set every synthesized binary
// carries regardless of which modules it runs.
var baseDependencies = []ManifestDependency{
	{Path: "zerohop/internal/runtime", Version: "v0.0.0"},
	{Path: "github.com/google/uuid", Version: "v1.6.0"},
}

// moduleDependencyHints maps an exact module name to the additional
// dependency it pulls in when present in a plan's module declarations.
var moduleDependencyHints = map[string]ManifestDependency{
	"get_url": {Path: "net/http", Version: "stdlib"},
	"uri":     {Path: "net/http", Version: "stdlib"},
	"package": {Path: "regexp", Version: "stdlib"},
	"apt":     {Path: "regexp", Version: "stdlib"},
	"yum":     {Path: "regexp", Version: "stdlib"},
}

// BuildManifest unions the base dependency set with the per-module
// additions each declared module name triggers.
func BuildManifest(modulePath string, moduleNames []string) Manifest {
	seen := map[string]ManifestDependency{}
	for _, dep := range baseDependencies {
		seen[dep.Path] = dep
	}
	for _, name := range moduleNames {
		if dep, ok := moduleDependencyHints[name]; ok {
			seen[dep.Path] = dep
		}
	}

	deps := make([]ManifestDependency, 0, len(seen))
	for _, dep := range seen {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

	return Manifest{
		ModulePath:   modulePath,
		GoVersion:    "1.25",
		Dependencies: deps,
	}
}
