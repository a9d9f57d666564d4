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

package templating

import "github.com/nikolalohinski/gonja/v2"

// ValidateTemplate checks templateStr's syntax without executing it or
// requiring context variables. Used to vet a template before it is
// handed to an engine, e.g. an operator-supplied auxiliary-file
// template arriving alongside a plan.
func ValidateTemplate(templateStr string, engineType EngineType) error {
	if engineType != EngineTypeGonja {
		return NewUnsupportedEngineError(engineType)
	}

	if _, err := gonja.FromString(templateStr); err != nil {
		return NewCompilationError("template", templateStr, err)
	}
	return nil
}
