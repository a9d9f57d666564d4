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

import "zerohop/pkg/template"

// goBuildArgs maps the one OptimizationLevel enum (pkg/template) onto
// this backend's own `go build` flags. No backend-private enum exists;
// every backend does this translation at its own call site.
func goBuildArgs(level template.OptimizationLevel) []string {
	switch level {
	case template.OptimizationReleaseLTO:
		// Go has no separate LTO pass; -trimpath plus full dead-code
		// elimination under -ldflags "-s -w" is the closest equivalent
		// this toolchain offers.
		return []string{"-trimpath", "-ldflags=-s -w"}
	case template.OptimizationReleaseSmall:
		return []string{"-trimpath", "-ldflags=-s -w", "-gcflags=-l=4"}
	case template.OptimizationRelease:
		return []string{"-trimpath"}
	default:
		return nil
	}
}
