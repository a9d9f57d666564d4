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
	"sync"

	"zerohop/pkg/inventory"
)

// ConnectionPool hands out one shared SSHClient per host, reference
// counted across concurrent deployments, and closes it once the last
// outstanding command completes (per-host SSH connection pooling).
type ConnectionPool struct {
	mu      sync.Mutex
	dial    Dialer
	entries map[string]*poolEntry
}

type poolEntry struct {
	client SSHClient
	refs   int
}

// NewConnectionPool builds a ConnectionPool that dials new connections
// via dial.
func NewConnectionPool(dial Dialer) *ConnectionPool {
	return &ConnectionPool{dial: dial, entries: make(map[string]*poolEntry)}
}

// Acquire returns the shared client for host, dialing one if none is
// open yet. Every Acquire must be paired with a Release.
func (p *ConnectionPool) Acquire(ctx context.Context, host *inventory.Host) (SSHClient, error) {
	p.mu.Lock()
	if e, ok := p.entries[host.Name]; ok {
		e.refs++
		p.mu.Unlock()
		return e.client, nil
	}
	p.mu.Unlock()

	client, err := p.dial(ctx, host)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[host.Name]; ok {
		// Another goroutine dialed first while we were connecting; use
		// its connection and discard ours.
		e.refs++
		client.Close()
		return e.client, nil
	}
	p.entries[host.Name] = &poolEntry{client: client, refs: 1}
	return client, nil
}

// Release drops a reference to hostName's connection, closing it once
// the count reaches zero.
func (p *ConnectionPool) Release(hostName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[hostName]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.client.Close()
		delete(p.entries, hostName)
	}
}

// CloseAll force-closes every open connection regardless of reference
// count. For process shutdown, after all deployments have joined.
func (p *ConnectionPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, e := range p.entries {
		e.client.Close()
		delete(p.entries, name)
	}
}
