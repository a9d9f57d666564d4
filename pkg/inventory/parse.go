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

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"zerohop/pkg/core/errs"
)

// ansibleDynamicDoc mirrors the Ansible dynamic-inventory JSON shape: one
// key per group plus a reserved "_meta.hostvars" map of per-host variables.
type ansibleDynamicDoc map[string]json.RawMessage

type ansibleGroupBody struct {
	Hosts    []string       `json:"hosts"`
	Children []string       `json:"children"`
	Vars     map[string]any `json:"vars"`
}

type ansibleMeta struct {
	HostVars map[string]map[string]any `json:"hostvars"`
}

// ParseJSON parses an Ansible dynamic-inventory JSON document: one key per
// group (each either a host/children list or a bare host array), plus the
// reserved "_meta.hostvars" map. A script-driven dynamic source
// produces the same shape and is parsed identically.
func ParseJSON(data []byte) (*Inventory, error) {
	var doc ansibleDynamicDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &errs.InventoryError{
			Kind:    errs.InventoryErrorInvalidFormat,
			Message: "failed to unmarshal inventory JSON",
			Cause:   err,
		}
	}

	inv := &Inventory{
		Hosts:     map[string]*Host{},
		Groups:    map[string]*Group{},
		Variables: map[string]any{},
	}

	var hostVars map[string]map[string]any
	if rawMeta, ok := doc["_meta"]; ok {
		var meta ansibleMeta
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, &errs.InventoryError{
				Kind:    errs.InventoryErrorInvalidFormat,
				Message: "failed to unmarshal _meta.hostvars",
				Cause:   err,
			}
		}
		hostVars = meta.HostVars
	}

	for name, raw := range doc {
		if name == "_meta" {
			continue
		}

		var body ansibleGroupBody
		if err := json.Unmarshal(raw, &body); err != nil {
			// A bare array of hostnames is also valid Ansible shorthand.
			var hosts []string
			if arrErr := json.Unmarshal(raw, &hosts); arrErr != nil {
				return nil, &errs.InventoryError{
					Kind:    errs.InventoryErrorInvalidFormat,
					Message: fmt.Sprintf("group %q has an unrecognized shape", name),
					Cause:   err,
				}
			}
			body.Hosts = hosts
		}

		group := &Group{Name: name, Hosts: body.Hosts, Children: body.Children, Variables: body.Vars}
		if name == "all" {
			for k, v := range body.Vars {
				inv.Variables[k] = v
			}
		}
		inv.Groups[name] = group

		for _, hostName := range body.Hosts {
			ensureHost(inv, hostName).Groups = appendUnique(ensureHost(inv, hostName).Groups, name)
		}
	}

	for hostName, vars := range hostVars {
		h := ensureHost(inv, hostName)
		applyHostVars(h, vars)
	}

	return inv, nil
}

// ParseYAML parses an Ansible-style YAML inventory: a tree of group names,
// each with optional "hosts", "children", and "vars" maps.
func ParseYAML(data []byte) (*Inventory, error) {
	var doc map[string]struct {
		Hosts    map[string]map[string]any `yaml:"hosts"`
		Children map[string]any            `yaml:"children"`
		Vars     map[string]any            `yaml:"vars"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errs.InventoryError{
			Kind:    errs.InventoryErrorInvalidFormat,
			Message: "failed to unmarshal inventory YAML",
			Cause:   err,
		}
	}

	inv := &Inventory{
		Hosts:     map[string]*Host{},
		Groups:    map[string]*Group{},
		Variables: map[string]any{},
	}

	for name, body := range doc {
		group := &Group{Name: name, Variables: body.Vars}
		for child := range body.Children {
			group.Children = append(group.Children, child)
		}
		for hostName, vars := range body.Hosts {
			group.Hosts = append(group.Hosts, hostName)
			h := ensureHost(inv, hostName)
			h.Groups = appendUnique(h.Groups, name)
			applyHostVars(h, vars)
		}
		if name == "all" {
			for k, v := range body.Vars {
				inv.Variables[k] = v
			}
		}
		inv.Groups[name] = group
	}

	return inv, nil
}

// ParseINI parses the narrow Ansible-INI subset zerohop supports: a
// `[group]` header followed by "host key=value ..." lines, and
// `[group:children]` / `[group:vars]` sections. There is no third-party
// INI library in the retrieved example set and the dialect here diverges
// from general INI (inline key=value host variables, ":children"/":vars"
// section suffixes), so a small hand-rolled scanner is used instead.
func ParseINI(data []byte) (*Inventory, error) {
	inv := &Inventory{
		Hosts:     map[string]*Host{},
		Groups:    map[string]*Group{},
		Variables: map[string]any{},
	}

	var currentGroup string
	var sectionKind string // "", "children", "vars"

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			header := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			parts := strings.SplitN(header, ":", 2)
			currentGroup = parts[0]
			sectionKind = ""
			if len(parts) == 2 {
				sectionKind = parts[1]
			}
			if _, ok := inv.Groups[currentGroup]; !ok {
				inv.Groups[currentGroup] = &Group{Name: currentGroup, Variables: map[string]any{}}
			}
			continue
		}

		if currentGroup == "" {
			return nil, &errs.InventoryError{
				Kind:    errs.InventoryErrorInvalidFormat,
				Message: "host or variable line appears before any [group] header",
			}
		}
		group := inv.Groups[currentGroup]

		switch sectionKind {
		case "children":
			group.Children = append(group.Children, line)
		case "vars":
			k, v := parseINIKeyValue(line)
			group.Variables[k] = v
			if currentGroup == "all" {
				inv.Variables[k] = v
			}
		default:
			fields := strings.Fields(line)
			hostName := fields[0]
			group.Hosts = append(group.Hosts, hostName)
			h := ensureHost(inv, hostName)
			h.Groups = appendUnique(h.Groups, currentGroup)
			vars := map[string]any{}
			for _, kv := range fields[1:] {
				k, v := parseINIKeyValue(kv)
				vars[k] = v
			}
			applyHostVars(h, vars)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &errs.InventoryError{Kind: errs.InventoryErrorInvalidFormat, Message: "failed to scan INI inventory", Cause: err}
	}

	return inv, nil
}

func parseINIKeyValue(kv string) (string, any) {
	parts := strings.SplitN(kv, "=", 2)
	if len(parts) != 2 {
		return kv, ""
	}
	key, raw := parts[0], strings.Trim(parts[1], `"`)
	if n, err := strconv.Atoi(raw); err == nil {
		return key, n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return key, b
	}
	return key, raw
}

func ensureHost(inv *Inventory, name string) *Host {
	if h, ok := inv.Hosts[name]; ok {
		return h
	}
	h := &Host{Name: name, Variables: map[string]any{}}
	inv.Hosts[name] = h
	return h
}

func applyHostVars(h *Host, vars map[string]any) {
	for k, v := range vars {
		h.Variables[k] = v
	}
	if v, ok := vars["ansible_host"].(string); ok {
		h.Address = v
	}
	if v, ok := vars["target_triple"].(string); ok {
		h.TargetTriple = v
	}
	if v, ok := vars["ansible_connection"].(string); ok {
		h.Connection.Method = v
	}
	if v, ok := vars["ansible_user"].(string); ok {
		h.Connection.Username = v
	}
	if v, ok := vars["ansible_ssh_private_key_file"].(string); ok {
		h.Connection.PrivateKeyFile = v
	}
	switch port := vars["ansible_port"].(type) {
	case int:
		h.Connection.Port = port
	case float64:
		h.Connection.Port = int(port)
	}
}

func appendUnique(list []string, item string) []string {
	for _, v := range list {
		if v == item {
			return list
		}
	}
	return append(list, item)
}
