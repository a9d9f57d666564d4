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

package inventory

import "zerohop/pkg/core/errs"

// DetectGroupCycle walks each group's children edges and reports the
// first cycle found as an ordered slice of group names.
func DetectGroupCycle(groups map[string]*Group) ([]string, bool) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(groups))
	var path []string

	var visit func(name string) ([]string, bool)
	visit = func(name string) ([]string, bool) {
		state[name] = visiting
		path = append(path, name)

		group, ok := groups[name]
		if ok {
			for _, child := range group.Children {
				switch state[child] {
				case visiting:
					start := 0
					for i, v := range path {
						if v == child {
							start = i
							break
						}
					}
					cycle := append([]string{}, path[start:]...)
					cycle = append(cycle, child)
					return cycle, true
				case unvisited:
					if cycle, found := visit(child); found {
						return cycle, true
					}
				}
			}
		}

		state[name] = done
		path = path[:len(path)-1]
		return nil, false
	}

	for name := range groups {
		if state[name] == unvisited {
			if cycle, found := visit(name); found {
				return cycle, true
			}
		}
	}
	return nil, false
}

// Resolve computes each host's fully-resolved variable set: global
// variables (the "all" group), then each containing group's variables
// with parent groups applied before children so a more specific group
// wins, then the host's own variables (highest priority). Group
// membership cycles are rejected before any resolution is attempted.
func Resolve(inv *Inventory) (map[string]ResolvedHost, error) {
	if cycle, found := DetectGroupCycle(inv.Groups); found {
		return nil, errs.NewCircularGroupError(cycle)
	}

	resolved := make(map[string]ResolvedHost, len(inv.Hosts))
	for name, host := range inv.Hosts {
		vars := map[string]any{}
		for k, v := range inv.Variables {
			vars[k] = v
		}

		for _, groupName := range host.Groups {
			applyGroupChain(inv.Groups, groupName, vars, map[string]bool{})
		}

		for k, v := range host.Variables {
			vars[k] = v
		}

		resolved[name] = ResolvedHost{Host: host, Variables: vars}
	}
	return resolved, nil
}

// applyGroupChain applies a group's ancestor chain before the group
// itself, so a child group's variables override its parents'.
func applyGroupChain(groups map[string]*Group, name string, vars map[string]any, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true

	group, ok := groups[name]
	if !ok {
		return
	}

	for parentName, parent := range groups {
		for _, child := range parent.Children {
			if child == name {
				applyGroupChain(groups, parentName, vars, seen)
			}
		}
	}

	for k, v := range group.Variables {
		vars[k] = v
	}
}
