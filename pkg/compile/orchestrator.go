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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"zerohop/pkg/cache"
	"zerohop/pkg/core/errs"
	"zerohop/pkg/template"
)

// Config controls the orchestrator's backend priority and concurrency.
type Config struct {
	MaxParallelCompilations int
	MaxRetries              uint64

	// Timeout bounds a single backend invocation (compilation_timeout
	// in the config file). Zero disables the bound.
	Timeout time.Duration

	// DisableZigBuildFallback stops the backend loop after a zig-cc
	// failure instead of retrying with the native toolchain. The zero
	// value keeps fallback on, matching zigbuild_fallback's config
	// default of true.
	DisableZigBuildFallback bool
}

// Orchestrator drives backend selection, the binary cache, and bounded
// concurrent compilation across a batch of templates.
type Orchestrator struct {
	backends []Backend // priority order: most capable first
	cache    *cache.BinaryCache
	caps     Capabilities
	cfg      Config
}

// New builds an Orchestrator. backends should be ordered ZigCCBackend,
// NativeGoBackend, SshFallbackBackend to match the selection rule
// (prefer cross-compilation, then native, then fall back to SSH).
func New(backends []Backend, binCache *cache.BinaryCache, caps Capabilities, cfg Config) *Orchestrator {
	if cfg.MaxParallelCompilations <= 0 {
		cfg.MaxParallelCompilations = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	return &Orchestrator{backends: backends, cache: binCache, caps: caps, cfg: cfg}
}

// SelectBackend returns the first backend in priority order willing to
// handle targetTriple (the selection rule).
func (o *Orchestrator) SelectBackend(targetTriple string) (Backend, error) {
	for _, b := range o.backends {
		if b.CanHandle(targetTriple, o.caps) {
			return b, nil
		}
	}
	return nil, errs.NewBackendMissingError(targetTriple, "any")
}

// Compile produces (or retrieves from cache) the binary for tmpl,
// retrying the selected backend before falling through to the next one
// in priority order.
func (o *Orchestrator) Compile(ctx context.Context, tmpl *template.Template) (CompiledBinary, error) {
	key := cache.Key(tmpl.CacheKey, tmpl.TargetTriple, string(tmpl.OptimizationLevel))

	if o.cache != nil {
		if data, meta, ok, err := o.cache.Get(key); err == nil && ok {
			return CompiledBinary{
				CompilationID:     meta.CompilationID,
				TargetTriple:      meta.TargetTriple,
				Bytes:             data,
				Checksum:          meta.Checksum,
				Size:              meta.Size,
				CompilationTime:   meta.CompilationTime,
				OptimizationLevel: tmpl.OptimizationLevel,
				CreatedAt:         meta.CreatedAt,
			}, nil
		}
	}

	var lastErr error
	for _, backend := range o.backends {
		if !backend.CanHandle(tmpl.TargetTriple, o.caps) {
			continue
		}

		bin, err := o.compileWithRetry(ctx, backend, tmpl)
		if err == nil {
			if o.cache != nil {
				_ = o.cache.Put(key, bin.Bytes, cache.BinaryMetadata{
					CompilationID:    key,
					TargetTriple:     bin.TargetTriple,
					Checksum:         bin.Checksum,
					Size:             bin.Size,
					CreatedAt:        bin.CreatedAt,
					CompilationTime:  bin.CompilationTime,
					ToolchainVersion: o.caps.GoVersion,
				})
			}
			bin.CompilationID = key
			return bin, nil
		}
		lastErr = err

		if o.cfg.DisableZigBuildFallback && backend.Name() == zigBackendName {
			break
		}
	}

	if lastErr == nil {
		lastErr = errs.NewBackendMissingError(tmpl.TargetTriple, "any")
	}
	return CompiledBinary{}, lastErr
}

// compileWithRetry retries one backend invocation up to cfg.MaxRetries
// times with exponential backoff before giving up on it.
func (o *Orchestrator) compileWithRetry(ctx context.Context, backend Backend, tmpl *template.Template) (CompiledBinary, error) {
	workDir, err := os.MkdirTemp("", "zerohop-compile-*")
	if err != nil {
		return CompiledBinary{}, &errs.CompilationError{Kind: errs.CompilationErrorDiskSpace, Target: tmpl.TargetTriple, Message: "failed to create working directory", Cause: err}
	}
	defer os.RemoveAll(workDir)

	var bin CompiledBinary
	operation := func() error {
		invokeCtx := ctx
		if o.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			invokeCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
			defer cancel()
		}

		var opErr error
		bin, opErr = backend.Compile(invokeCtx, tmpl, workDir)
		if opErr != nil && invokeCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return backoff.Permanent(errs.NewCompilationTimeoutError(tmpl.TargetTriple, o.cfg.Timeout.Seconds()))
		}
		return opErr
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.cfg.MaxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return CompiledBinary{}, err
	}
	return bin, nil
}

// CompileBatch runs Compile for every template concurrently, bounded by
// cfg.MaxParallelCompilations (max_parallel_compilations).
func (o *Orchestrator) CompileBatch(ctx context.Context, templates []*template.Template) ([]CompiledBinary, error) {
	results := make([]CompiledBinary, len(templates))
	errsOut := make([]error, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxParallelCompilations)

	for i, tmpl := range templates {
		i, tmpl := i, tmpl
		g.Go(func() error {
			bin, err := o.Compile(gctx, tmpl)
			results[i] = bin
			errsOut[i] = err
			return nil // collect all errors instead of failing fast
		})
	}
	_ = g.Wait()

	for i, err := range errsOut {
		if err != nil {
			return results, fmt.Errorf("target %s: %w", templates[i].TargetTriple, err)
		}
	}
	return results, nil
}
