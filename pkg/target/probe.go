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

package target

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"zerohop/pkg/inventory"
)

// Prober resolves a host's machine type and system name when inventory
// variables don't. Production code dials the host over SSH; tests
// substitute a stub.
type Prober interface {
	Probe(host string) (machine, sysname string, err error)
}

// SSHProber probes hosts by running uname over a short-lived SSH
// connection. It holds no connections of its own; each Probe dials,
// runs one command, and closes. The deployment driver's per-host
// connection pool starts later in the pipeline and is not shared here.
type SSHProber struct {
	Hosts       map[string]*inventory.Host
	DialTimeout time.Duration
}

// NewSSHProber builds a prober over the parsed inventory's host table.
func NewSSHProber(hosts map[string]*inventory.Host, dialTimeout time.Duration) *SSHProber {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &SSHProber{Hosts: hosts, DialTimeout: dialTimeout}
}

// Probe runs `uname -m; uname -s` on host and returns the two lines.
func (p *SSHProber) Probe(host string) (string, string, error) {
	h, ok := p.Hosts[host]
	if !ok {
		return "", "", fmt.Errorf("target: host %q not in inventory", host)
	}

	client, err := p.dial(h)
	if err != nil {
		return "", "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("target: new session on %s: %w", host, err)
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout
	if err := session.Run("uname -m; uname -s"); err != nil {
		return "", "", fmt.Errorf("target: uname on %s: %w", host, err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) < 2 {
		return "", "", fmt.Errorf("target: unparseable uname output from %s: %q", host, stdout.String())
	}
	return strings.TrimSpace(lines[0]), strings.TrimSpace(lines[1]), nil
}

func (p *SSHProber) dial(h *inventory.Host) (*ssh.Client, error) {
	if h.Connection.PrivateKeyFile == "" {
		return nil, fmt.Errorf("target: no private key configured for host %q", h.Name)
	}
	key, err := os.ReadFile(h.Connection.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("target: read private key %q: %w", h.Connection.PrivateKeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("target: parse private key %q: %w", h.Connection.PrivateKeyFile, err)
	}

	port := h.Connection.Port
	if port == 0 {
		port = 22
	}
	addr := h.Address
	if addr == "" {
		addr = h.Name
	}

	clientConfig := &ssh.ClientConfig{
		User:            h.Connection.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // fleet hosts are not individually pinned
		Timeout:         p.DialTimeout,
	}

	dialer := net.Dialer{Timeout: p.DialTimeout}
	conn, err := dialer.Dial("tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("target: dial %s:%d: %w", addr, port, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, fmt.Sprintf("%s:%d", addr, port), clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("target: handshake with %s: %w", addr, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}
