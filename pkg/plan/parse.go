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

package plan

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"zerohop/pkg/core/errs"
)

// ParseJSON decodes a plan from its JSON wire form.
func ParseJSON(data []byte) (*ExecutionPlan, error) {
	var p ExecutionPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &errs.PlanError{
			Kind:    errs.PlanErrorInvalidJSON,
			Message: "failed to unmarshal plan JSON",
			Cause:   err,
		}
	}
	return &p, nil
}

// ParseYAML decodes a plan from its YAML wire form.
func ParseYAML(data []byte) (*ExecutionPlan, error) {
	var p ExecutionPlan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &errs.PlanError{
			Kind:    errs.PlanErrorInvalidYAML,
			Message: "failed to unmarshal plan YAML",
			Cause:   err,
		}
	}
	return &p, nil
}
