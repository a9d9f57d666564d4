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

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zerohop/pkg/template"
)

func TestGoBuildArgs_EveryLevelMapsToFlags(t *testing.T) {
	assert.Contains(t, goBuildArgs(template.OptimizationReleaseLTO), "-trimpath")
	assert.Contains(t, goBuildArgs(template.OptimizationReleaseSmall), "-gcflags=-l=4")
	assert.Equal(t, []string{"-trimpath"}, goBuildArgs(template.OptimizationRelease))
	assert.Nil(t, goBuildArgs(template.OptimizationDebug))
}

func TestNativeGoBackend_CanHandleKnownTargetsOnly(t *testing.T) {
	b := NativeGoBackend{}
	caps := Capabilities{GoAvailable: true}
	assert.True(t, b.CanHandle("x86_64-unknown-linux-gnu", caps))
	assert.False(t, b.CanHandle("x86_64-unknown-linux-musl", caps))
	assert.False(t, b.CanHandle("x86_64-unknown-linux-gnu", Capabilities{GoAvailable: false}))
}

func TestZigCCBackend_CanHandleMuslAndRequiresZigCC(t *testing.T) {
	b := ZigCCBackend{}
	assert.True(t, b.CanHandle("x86_64-unknown-linux-musl", Capabilities{GoAvailable: true, ZigCCAvailable: true}))
	assert.False(t, b.CanHandle("x86_64-unknown-linux-musl", Capabilities{GoAvailable: true, ZigCCAvailable: false}))
}

func TestSshFallbackBackend_AlwaysCanHandle(t *testing.T) {
	b := SshFallbackBackend{}
	assert.True(t, b.CanHandle("anything-at-all", Capabilities{}))
}
