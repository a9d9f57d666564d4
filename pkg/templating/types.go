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

// Package templating renders the template synthesizer's source-tree
// templates: the generated main source, per-platform modules, and any
// auxiliary files a target needs. Templates compile once at engine
// construction so syntax errors surface before a build starts, and
// rendered output can be normalized through per-template post-processors.
package templating

// EngineType selects the template dialect.
type EngineType int

const (
	// EngineTypeGonja renders with the Gonja engine (Jinja2-like
	// syntax), the one dialect the synthesizer's templates are written
	// in.
	EngineTypeGonja EngineType = iota
)

// String returns the engine type's name.
func (e EngineType) String() string {
	switch e {
	case EngineTypeGonja:
		return "gonja"
	default:
		return "unknown"
	}
}
