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

import "strings"

// SelectOptimizationLevel implements the task-count buckets:
// fewer than 10 tasks favors the smallest binary, 10-50 favors LTO, more
// than 50 favors plain release (LTO's compile-time cost stops paying for
// itself once the dispatch table gets this large).
func SelectOptimizationLevel(taskCount int) OptimizationLevel {
	switch {
	case taskCount < 10:
		return OptimizationReleaseSmall
	case taskCount <= 50:
		return OptimizationReleaseLTO
	default:
		return OptimizationRelease
	}
}

// CompilationFlags attaches the template-level flags: always
// release-mode, LTO for release-lto, size optimization for release-small
// (plain release adds neither), crt-static when the target triple
// demands static linking, and an optional strip.
func CompilationFlags(level OptimizationLevel, targetTriple string, strip bool) []string {
	flags := []string{"release"}

	switch level {
	case OptimizationReleaseLTO:
		flags = append(flags, "lto")
	case OptimizationReleaseSmall:
		flags = append(flags, "opt-size")
	}

	if requiresStaticLinking(targetTriple) {
		flags = append(flags, "target-feature=+crt-static")
	}
	if strip {
		flags = append(flags, "strip")
	}
	return flags
}

// requiresStaticLinking reports whether the triple's libc demands static
// linking to run without a matching runtime installed on the target
// (musl and Windows MSVC targets in this table).
func requiresStaticLinking(targetTriple string) bool {
	return strings.Contains(targetTriple, "musl") || strings.Contains(targetTriple, "windows")
}
