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
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"zerohop/pkg/inventory"
)

// DeployAll runs DeployToHost for every host concurrently, bounded by
// MaxThreads, and applies policy once results are in. Cross-host
// ordering is unspecified.
func (d *Deployer) DeployAll(ctx context.Context, hosts []*inventory.ResolvedHost, req Request, policy PartialFailurePolicy) ([]HostResult, error) {
	results := make([]HostResult, len(hosts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.MaxThreads)

	var aborted int32
	for i, h := range hosts {
		i, h := i, h
		g.Go(func() error {
			if policy == PolicyAbort && atomic.LoadInt32(&aborted) == 1 {
				results[i] = HostResult{Host: h.Host.Name, State: StateFailed, Err: fmt.Errorf("deployment to %s skipped: another host failed under the abort policy", h.Host.Name)}
				return nil
			}

			res := d.DeployToHost(gctx, h, req)
			results[i] = res
			if res.Err != nil && policy == PolicyAbort {
				atomic.StoreInt32(&aborted, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if policy == PolicyRollback {
		d.rollbackSucceeded(ctx, hosts, results, req)
	}

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
		}
	}
	if len(results) > 0 && failures == len(results) {
		return results, fmt.Errorf("deployment failed on all %d hosts", len(results))
	}
	return results, nil
}

// rollbackSucceeded removes the deployed binary from every host that
// reached Verified or Deployed once any host in the batch failed
// (the rollback partial-failure policy).
func (d *Deployer) rollbackSucceeded(ctx context.Context, hosts []*inventory.ResolvedHost, results []HostResult, req Request) {
	anyFailed := false
	for _, r := range results {
		if r.Err != nil {
			anyFailed = true
			break
		}
	}
	if !anyFailed {
		return
	}

	byName := make(map[string]*inventory.ResolvedHost, len(hosts))
	for _, h := range hosts {
		byName[h.Host.Name] = h
	}

	for i, r := range results {
		if r.Err != nil || (r.State != StateVerified && r.State != StateDeployed) {
			continue
		}
		h, ok := byName[r.Host]
		if !ok {
			continue
		}
		client, err := d.pool.Acquire(ctx, h.Host)
		if err != nil {
			continue
		}
		if err := d.cleanup(ctx, client, r.Host, req); err != nil {
			results[i].Err = err
		} else {
			results[i].State = StateFailed
		}
		d.pool.Release(r.Host)
	}
}
