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
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"zerohop/pkg/core/errs"
)

// CanonicalJSON serializes a plan so that two semantically equal plans
// that differ only in map key order produce byte-identical output.
// encoding/json already sorts map[string]any keys alphabetically when
// marshaling, so round-tripping through a generic value canonicalizes
// nested maps produced by hand-built structs as well.
func CanonicalJSON(p *ExecutionPlan) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, &errs.PlanError{
			Kind:    errs.PlanErrorInvalidJSON,
			Message: "failed to marshal plan",
			Cause:   err,
		}
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &errs.PlanError{
			Kind:    errs.PlanErrorInvalidJSON,
			Message: "failed to canonicalize plan",
			Cause:   err,
		}
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, &errs.PlanError{
			Kind:    errs.PlanErrorInvalidJSON,
			Message: "failed to re-marshal canonical plan",
			Cause:   err,
		}
	}
	return canonical, nil
}

// CacheKey computes the SHA-256 hex digest over the canonical plan JSON,
// the target triple, and the optimization level. Two invocations for the
// same plan+target+level always agree; any difference in
// the inputs changes the digest.
func CacheKey(p *ExecutionPlan, targetTriple, optimizationLevel string) (string, error) {
	canonical, err := CanonicalJSON(p)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte{0})
	h.Write([]byte(targetTriple))
	h.Write([]byte{0})
	h.Write([]byte(optimizationLevel))
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
