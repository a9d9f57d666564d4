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

// Package target maps hosts to compilation target triples:
// explicit inventory variable first, then the (arch, os_family) mapping
// table, then a connection-method default, then an SSH probe as the
// last resort. A host that resolves through none of these fails rather
// than silently receiving a default triple.
package target

import (
	"fmt"
	"runtime"
	"strings"

	"zerohop/pkg/core/errs"
)

// HostInfo is the detector's view of one host: the inventory variables
// and connection method relevant to triple resolution, nothing else.
type HostInfo struct {
	Name             string
	ConnectionMethod string // "ssh" | "winrm" | "local"
	ExplicitTriple   string // target_triple inventory variable, if set
	Arch             string // ansible_architecture, if set
	OSFamily         string // ansible_os_family, if set
}

// supportedTriples is the static support matrix: every triple the
// compilation orchestrator may be asked to build for, and whether the
// zig-cc cross-compilation path covers it. Triples outside this table
// force SSH fallback.
var supportedTriples = map[string]struct{ zigBuildable bool }{
	"x86_64-unknown-linux-gnu":   {true},
	"aarch64-unknown-linux-gnu":  {true},
	"x86_64-unknown-linux-musl":  {true},
	"aarch64-unknown-linux-musl": {true},
	"x86_64-apple-darwin":        {true},
	"aarch64-apple-darwin":       {true},
	"x86_64-pc-windows-msvc":     {false},
}

// Supported reports whether triple is in the static support matrix.
func Supported(triple string) bool {
	_, ok := supportedTriples[triple]
	return ok
}

// ZigBuildable reports whether the zig-cc path covers triple. False for
// both unsupported triples and supported-but-native-only ones.
func ZigBuildable(triple string) bool {
	entry, ok := supportedTriples[triple]
	return ok && entry.zigBuildable
}

// SupportedTriples returns the support matrix keys in unspecified order.
func SupportedTriples() []string {
	out := make([]string, 0, len(supportedTriples))
	for t := range supportedTriples {
		out = append(out, t)
	}
	return out
}

// Detect resolves info to a target triple by the precedence chain.
// prober may be nil; it is only consulted when every other source is
// exhausted and the host's connection method is "ssh".
func Detect(info HostInfo, prober Prober) (string, error) {
	if info.ExplicitTriple != "" {
		return info.ExplicitTriple, nil
	}

	if info.Arch != "" && info.OSFamily != "" {
		triple, ok := tripleForVars(info.Arch, info.OSFamily)
		if !ok {
			return "", &errs.InventoryError{
				Kind:    errs.InventoryErrorMissingArchitecture,
				Message: fmt.Sprintf("host %q: no triple mapping for architecture %q on os family %q", info.Name, info.Arch, info.OSFamily),
				Hints:   []string{"Set target_triple explicitly on the host or a parent group"},
			}
		}
		return triple, nil
	}

	switch info.ConnectionMethod {
	case "local":
		return NativeTriple(), nil
	case "winrm":
		return "x86_64-pc-windows-msvc", nil
	case "ssh":
		if prober != nil {
			return probeTriple(info, prober)
		}
	}

	return "", errs.NewMissingArchitectureError(info.Name)
}

// probeTriple resolves a host over SSH: run uname, map its output
// through the same arch normalization the variable path uses. A probe
// that fails to connect or parse is an error, never a silent default.
func probeTriple(info HostInfo, prober Prober) (string, error) {
	machine, sysname, err := prober.Probe(info.Name)
	if err != nil {
		return "", &errs.InventoryError{
			Kind:    errs.InventoryErrorMissingArchitecture,
			Message: fmt.Sprintf("host %q: architecture probe failed", info.Name),
			Cause:   err,
			Hints: []string{
				"Set ansible_architecture and ansible_os_family variables to skip probing",
				"Check that the host is reachable over SSH and has uname",
			},
		}
	}

	arch, ok := normalizeArch(machine)
	if !ok {
		return "", &errs.InventoryError{
			Kind:    errs.InventoryErrorMissingArchitecture,
			Message: fmt.Sprintf("host %q: probe returned unrecognized machine type %q", info.Name, machine),
		}
	}

	switch strings.ToLower(strings.TrimSpace(sysname)) {
	case "linux":
		// uname alone can't distinguish glibc from musl; glibc is the
		// common case and musl hosts should set ansible_os_family=Alpine.
		return arch + "-unknown-linux-gnu", nil
	case "darwin":
		return arch + "-apple-darwin", nil
	default:
		return "", &errs.InventoryError{
			Kind:    errs.InventoryErrorMissingArchitecture,
			Message: fmt.Sprintf("host %q: probe returned unrecognized system %q", info.Name, sysname),
		}
	}
}

// tripleForVars maps normalized (arch, os_family) inventory variables to
// a triple via the fixed distribution table.
func tripleForVars(rawArch, rawFamily string) (string, bool) {
	arch, ok := normalizeArch(rawArch)
	if !ok {
		return "", false
	}

	switch strings.ToLower(strings.TrimSpace(rawFamily)) {
	case "debian", "ubuntu", "redhat", "rhel", "centos", "fedora", "rocky", "suse", "archlinux":
		return arch + "-unknown-linux-gnu", true
	case "alpine":
		return arch + "-unknown-linux-musl", true
	case "darwin", "macos":
		return arch + "-apple-darwin", true
	case "windows":
		if arch != "x86_64" {
			return "", false
		}
		return "x86_64-pc-windows-msvc", true
	default:
		return "", false
	}
}

// normalizeArch folds the machine-type spellings uname and Ansible
// produce into triple vocabulary.
func normalizeArch(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "x86_64", "amd64":
		return "x86_64", true
	case "aarch64", "arm64":
		return "aarch64", true
	default:
		return "", false
	}
}

// NativeTriple returns the triple of the process's own platform, used
// for connection method "local" and for the compiler capability probe.
func NativeTriple() string {
	arch := "x86_64"
	if runtime.GOARCH == "arm64" {
		arch = "aarch64"
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return "x86_64-pc-windows-msvc"
	default:
		return arch + "-unknown-linux-gnu"
	}
}
