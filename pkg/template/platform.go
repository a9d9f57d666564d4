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

// PlatformFromTriple selects the per-platform code module variant for a
// target triple. Linux/macOS/Windows variants differ in
// signal setup, privilege checks, and system-info extraction; this
// selection only picks which variant source to emit, the variants
// themselves live in platformSource.
func PlatformFromTriple(targetTriple string) Platform {
	switch {
	case strings.Contains(targetTriple, "windows"):
		return PlatformWindows
	case strings.Contains(targetTriple, "darwin"):
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}

// platformSource returns the platform-specific Go source fragment
// spliced into the generated tree's platform.go file.
func platformSource(p Platform) string {
	switch p {
	case PlatformWindows:
		return windowsPlatformSource
	case PlatformMacOS:
		return darwinPlatformSource
	default:
		return linuxPlatformSource
	}
}

const linuxPlatformSource = `//go:build linux

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func platformSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}
}

func platformIsPrivileged() bool {
	return os.Geteuid() == 0
}

func notifySignals(c chan<- os.Signal) {
	signal.Notify(c, platformSignals()...)
}
`

const darwinPlatformSource = `//go:build darwin

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func platformSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

func platformIsPrivileged() bool {
	return os.Geteuid() == 0
}

func notifySignals(c chan<- os.Signal) {
	signal.Notify(c, platformSignals()...)
}
`

const windowsPlatformSource = `//go:build windows

package main

import (
	"os"
	"os/signal"
)

func platformSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func platformIsPrivileged() bool {
	// Windows privilege checks require inspecting the process token;
	// elevation isn't load-bearing for any module this runtime ships,
	// so this always reports false rather than shelling out to whoami.
	return false
}

func notifySignals(c chan<- os.Signal) {
	signal.Notify(c, platformSignals()...)
}
`
