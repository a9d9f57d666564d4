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
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"zerohop/pkg/core/errs"
)

// taskSchema is the structural schema every task must satisfy before the
// dependency graph is even considered. It mirrors the Task invariants
// named alongside the type: task_id and module_name are mandatory and
// non-empty; dependencies, when present, is an array of task ids or null
// (a task with no dependencies); everything else may be absent at the
// wire level and is filled in by earlier defaulting stages.
func taskSchema() *openapi3.Schema {
	objectType := openapi3.Types{"object"}
	stringType := openapi3.Types{"string"}
	arrayType := openapi3.Types{"array"}

	return &openapi3.Schema{
		Type:     &objectType,
		Required: []string{"task_id", "module_name"},
		Properties: openapi3.Schemas{
			"task_id":     &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType, MinLength: 1}},
			"module_name": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType, MinLength: 1}},
			"dependencies": &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:     &arrayType,
				Nullable: true,
				Items:&openapi3.SchemaRef{Value: &openapi3.Schema{Type: &stringType}},
			}},
		},
	}
}

// Validate checks structural schema conformance, dependency resolution,
// and acyclicity for a parsed plan. It returns a *errs.PlanError on the
// first class of violation found; schema violations are reported before
// graph violations since a malformed task cannot be safely graphed.
func Validate(p *ExecutionPlan) error {
	schema := taskSchema()

	for _, task := range p.Tasks {
		data, err := json.Marshal(task)
		if err != nil {
			return &errs.PlanError{
				Kind:    errs.PlanErrorSchemaViolation,
				Message: fmt.Sprintf("task %q failed to marshal for validation", task.ID),
				Cause:   err,
			}
		}

		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return &errs.PlanError{
				Kind:    errs.PlanErrorSchemaViolation,
				Message: fmt.Sprintf("task %q failed to unmarshal for validation", task.ID),
				Cause:   err,
			}
		}

		if err := schema.VisitJSON(value); err != nil {
			return &errs.PlanError{
				Kind:    errs.PlanErrorSchemaViolation,
				Message: fmt.Sprintf("task %q violates the task schema", task.ID),
				Cause:   err,
			}
		}
	}

	ids := make(map[string]bool, len(p.Tasks))
	for _, task := range p.Tasks {
		ids[task.ID] = true
	}
	for _, task := range p.Tasks {
		for _, dep := range task.Dependencies {
			if !ids[dep] {
				return errs.NewMissingDependencyError(task.ID, dep)
			}
		}
	}

	if cycle, found := DetectCycle(p.Tasks); found {
		return errs.NewCycleError(cycle)
	}

	return nil
}

// DetectCycle runs a depth-first search over the task dependency graph
// and reports the first cycle found as an ordered slice of task ids.
// It does not mutate tasks.
func DetectCycle(tasks []Task) ([]string, bool) {
	deps := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		deps[t.ID] = t.Dependencies
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(tasks))
	var stack []string

	var visit func(id string) ([]string, bool)
	visit = func(id string) ([]string, bool) {
		state[id] = visiting
		stack = append(stack, id)

		for _, dep := range deps[id] {
			switch state[dep] {
			case visiting:
				// Found the back-edge; extract the cycle portion of the stack.
				start := 0
				for i, v := range stack {
					if v == dep {
						start = i
						break
					}
				}
				cycle := append([]string{}, stack[start:]...)
				cycle = append(cycle, dep)
				return cycle, true
			case unvisited:
				if cycle, found := visit(dep); found {
					return cycle, true
				}
			}
		}

		state[id] = done
		stack = stack[:len(stack)-1]
		return nil, false
	}

	for _, t := range tasks {
		if state[t.ID] == unvisited {
			if cycle, found := visit(t.ID); found {
				return cycle, true
			}
		}
	}
	return nil, false
}
