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

package deploy

import (
	"context"
	"fmt"
	"os/exec"
)

// ProcessRunner spawns a local subprocess. scp/rsync/custom transports
// shell out to the real tool; tests substitute a fake that never
// touches the network.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecProcessRunner is the real ProcessRunner, backed by os/exec.
type ExecProcessRunner struct{}

func (ExecProcessRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, string(out))
	}
	return nil
}
