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
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"zerohop/pkg/inventory"
)

// SSHClient is the per-host command surface the deployment driver needs:
// uploading a binary and running remote commands. Production code dials a
// real host; tests substitute a fake.
type SSHClient interface {
	Upload(ctx context.Context, data []byte, remotePath string) error
	Run(ctx context.Context, cmd string) (stdout, stderr string, exitCode int, err error)
	Close() error
}

// Dialer opens an SSHClient for a host. Shares golang.org/x/crypto/ssh
// with pkg/target's architecture probe, but dials independently since the
// two packages run at different points in the pipeline and have no
// reason to share a connection.
type Dialer func(ctx context.Context, host *inventory.Host) (SSHClient, error)

// NewDialer builds the real Dialer used outside tests.
func NewDialer(dialTimeout time.Duration) Dialer {
	return func(ctx context.Context, host *inventory.Host) (SSHClient, error) {
		auth, err := sshAuthMethod(host.Connection.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("deploy: %w", err)
		}

		port := host.Connection.Port
		if port == 0 {
			port = 22
		}
		addr := host.Address
		if addr == "" {
			addr = host.Name
		}

		clientConfig := &ssh.ClientConfig{
			User:            host.Connection.Username,
			Auth:            []ssh.AuthMethod{auth},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // fleet hosts are not individually pinned
			Timeout:         dialTimeout,
		}

		dialer := net.Dialer{Timeout: dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", addr, port))
		if err != nil {
			return nil, fmt.Errorf("deploy: dial %s:%d: %w", addr, port, err)
		}

		sshConn, chans, reqs, err := ssh.NewClientConn(conn, fmt.Sprintf("%s:%d", addr, port), clientConfig)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("deploy: handshake: %w", err)
		}
		return &realSSHClient{client: ssh.NewClient(sshConn, chans, reqs)}, nil
	}
}

func sshAuthMethod(privateKeyFile string) (ssh.AuthMethod, error) {
	if privateKeyFile == "" {
		return nil, fmt.Errorf("no private key configured for host")
	}
	key, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key %q: %w", privateKeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse private key %q: %w", privateKeyFile, err)
	}
	return ssh.PublicKeys(signer), nil
}

type realSSHClient struct {
	client *ssh.Client
}

func (c *realSSHClient) Upload(ctx context.Context, data []byte, remotePath string) error {
	session, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("deploy: new session: %w", err)
	}
	defer session.Close()

	session.Stdin = bytes.NewReader(data)
	if err := session.Run(fmt.Sprintf("cat > %s", shellQuote(remotePath))); err != nil {
		return fmt.Errorf("deploy: upload to %s: %w", remotePath, err)
	}
	return nil
}

func (c *realSSHClient) Run(ctx context.Context, cmd string) (string, string, int, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", "", -1, fmt.Errorf("deploy: new session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(cmd)
	if runErr == nil {
		return stdout.String(), stderr.String(), 0, nil
	}
	if exitErr, ok := runErr.(*ssh.ExitError); ok {
		return stdout.String(), stderr.String(), exitErr.ExitStatus(), nil
	}
	return stdout.String(), stderr.String(), -1, fmt.Errorf("deploy: run %q: %w", cmd, runErr)
}

func (c *realSSHClient) Close() error { return c.client.Close() }

// shellQuote wraps s in single quotes suitable for inclusion in a
// remote shell command, escaping any embedded single quote.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
