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

// Package inventory parses and resolves the hosts and groups a plan
// targets: multi-format ingestion, variable-inheritance resolution, and
// group-cycle detection, ahead of target-triple detection in pkg/target.
package inventory

// Host is a single deployment target, keyed by its inventory name.
type Host struct {
	Name       string         `json:"-" yaml:"-"`
	Address    string         `json:"ansible_host,omitempty" yaml:"ansible_host,omitempty"`
	Connection Connection     `json:"-" yaml:"-"`
	Groups     []string       `json:"-" yaml:"-"`
	Variables  map[string]any `json:"-" yaml:"-"`

	// TargetTriple, when present, short-circuits architecture detection
	// in pkg/target entirely.
	TargetTriple string `json:"target_triple,omitempty" yaml:"target_triple,omitempty"`
}

// Connection describes how zerohop reaches a host.
type Connection struct {
	Method         string `json:"ansible_connection,omitempty" yaml:"ansible_connection,omitempty"`
	Username       string `json:"ansible_user,omitempty" yaml:"ansible_user,omitempty"`
	Port           int    `json:"ansible_port,omitempty" yaml:"ansible_port,omitempty"`
	PrivateKeyFile string `json:"ansible_ssh_private_key_file,omitempty" yaml:"ansible_ssh_private_key_file,omitempty"`
}

// Group is a named collection of hosts with inherited variables. Children
// are resolved parent-first so that a more specific group's variables win
// (resolution order: global, then group chain, then host).
type Group struct {
	Name      string         `json:"-" yaml:"-"`
	Hosts     []string       `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Children  []string       `json:"children,omitempty" yaml:"children,omitempty"`
	Variables map[string]any `json:"vars,omitempty" yaml:"vars,omitempty"`
}

// Inventory is the fully parsed, not-yet-resolved set of hosts and groups.
type Inventory struct {
	Hosts     map[string]*Host
	Groups    map[string]*Group
	Variables map[string]any // global variables, equivalent to group "all"
}

// ResolvedHost carries a host's fully-resolved variable set after
// Resolve has walked its group chain.
type ResolvedHost struct {
	Host      *Host
	Variables map[string]any
}
