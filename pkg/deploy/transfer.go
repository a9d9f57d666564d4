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
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"zerohop/pkg/core/errs"
	"zerohop/pkg/inventory"
)

// transfer moves req.Binary onto host at req.TargetPath using the
// transport req names, leaving the remote file executable.
func (d *Deployer) transfer(ctx context.Context, client SSHClient, host *inventory.Host, req Request) error {
	switch req.Transport {
	case TransportSSH, "":
		return d.transferSSH(ctx, client, host, req)
	case TransportSCP:
		return d.transferExternal(ctx, client, host, req, "scp")
	case TransportRsync:
		return d.transferExternal(ctx, client, host, req, "rsync")
	case TransportCustom:
		return d.transferCustom(ctx, client, host, req)
	default:
		return &errs.DeploymentError{
			Kind:    errs.DeploymentErrorTransferFailed,
			Host:    host.Name,
			Message: fmt.Sprintf("unknown transport %q", req.Transport),
		}
	}
}

// transferSSH pushes the binary to a random temp path over the pooled
// SSH connection, then atomically installs it at the target path
// (push to temp, mkdir parent, move into place, chmod).
func (d *Deployer) transferSSH(ctx context.Context, client SSHClient, host *inventory.Host, req Request) error {
	tempPath := fmt.Sprintf("/tmp/zerohop-%s", uuid.New().String())

	if err := client.Upload(ctx, req.Binary, tempPath); err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: host.Name, Message: "upload failed", Cause: err}
	}

	installCmd := fmt.Sprintf(
		"mkdir -p %s && mv %s %s && chmod +x %s",
		shellQuote(filepath.Dir(req.TargetPath)), shellQuote(tempPath), shellQuote(req.TargetPath), shellQuote(req.TargetPath),
	)
	return d.runRemote(ctx, client, host.Name, installCmd, errs.DeploymentErrorTransferFailed, "install failed")
}

// transferExternal shells out to the named tool (scp or rsync) against a
// local temp file holding the binary, then installs it remotely over
// the pooled SSH connection.
func (d *Deployer) transferExternal(ctx context.Context, client SSHClient, host *inventory.Host, req Request, tool string) error {
	localPath, cleanup, err := writeLocalTemp(req.Binary)
	if err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: host.Name, Message: "failed to stage local temp file", Cause: err}
	}
	defer cleanup()

	remoteSpec := remoteTargetSpec(host, req.TargetPath)

	mkdirCmd := fmt.Sprintf("mkdir -p %s", shellQuote(filepath.Dir(req.TargetPath)))
	if err := d.runRemote(ctx, client, host.Name, mkdirCmd, errs.DeploymentErrorTransferFailed, "failed to create parent directory"); err != nil {
		return err
	}

	var args []string
	switch tool {
	case "scp":
		args = []string{"-o", "StrictHostKeyChecking=no", localPath, remoteSpec}
	case "rsync":
		args = []string{"-e", "ssh -o StrictHostKeyChecking=no", localPath, remoteSpec}
	}
	if err := d.runner.Run(ctx, tool, args...); err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: host.Name, Message: fmt.Sprintf("%s transfer failed", tool), Cause: err}
	}

	chmodCmd := fmt.Sprintf("chmod +x %s", shellQuote(req.TargetPath))
	return d.runRemote(ctx, client, host.Name, chmodCmd, errs.DeploymentErrorTransferFailed, "chmod failed")
}

// transferCustom expands req.CustomCommand's placeholders and runs it
// as a shell command (custom transport template).
func (d *Deployer) transferCustom(ctx context.Context, client SSHClient, host *inventory.Host, req Request) error {
	localPath, cleanup, err := writeLocalTemp(req.Binary)
	if err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: host.Name, Message: "failed to stage local temp file", Cause: err}
	}
	defer cleanup()

	replacer := strings.NewReplacer(
		"{binary_path}", localPath,
		"{target_host}", remoteTargetSpec(host, ""),
		"{target_path}", req.TargetPath,
	)
	command := replacer.Replace(req.CustomCommand)
	if err := d.runner.Run(ctx, "sh", "-c", command); err != nil {
		return &errs.DeploymentError{Kind: errs.DeploymentErrorTransferFailed, Host: host.Name, Message: "custom transport command failed", Cause: err}
	}

	chmodCmd := fmt.Sprintf("chmod +x %s", shellQuote(req.TargetPath))
	return d.runRemote(ctx, client, host.Name, chmodCmd, errs.DeploymentErrorTransferFailed, "chmod failed")
}

func remoteTargetSpec(host *inventory.Host, targetPath string) string {
	addr := host.Address
	if addr == "" {
		addr = host.Name
	}
	user := host.Connection.Username
	spec := addr
	if user != "" {
		spec = user + "@" + addr
	}
	if targetPath == "" {
		return spec
	}
	return spec + ":" + targetPath
}

func writeLocalTemp(data []byte) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "zerohop-deploy-*")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
