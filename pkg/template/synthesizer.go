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

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"zerohop/pkg/cache"
	"zerohop/pkg/core/errs"
	"zerohop/pkg/embed"
	"zerohop/pkg/plan"
	"zerohop/pkg/templating"
)

// mainSourceTemplate is the gonja source rendered into the generated
// tree's main.go. Its slots are filled by the synthesizer:
// embedded-data accessors, the static module-dispatch table, and the
// runtime-config literal.
const mainSourceTemplate = `// Code generated by zerohop's template synthesizer. DO NOT EDIT.
package main

import (
	"sync"
)

{{ accessors }}

var runtimeConfig = RuntimeConfig{
	ControllerEndpoint:  {{ runtime_config.controller_endpoint_literal }},
	ExecutionTimeout:    {{ runtime_config.execution_timeout_literal }},
	ReportInterval:      {{ runtime_config.report_interval_literal }},
	CleanupOnCompletion: {{ runtime_config.cleanup_on_completion }},
	LogLevel:            {{ runtime_config.log_level_literal }},
	Verbose:             {{ runtime_config.verbose }},
}

var moduleDispatch = map[string]func(args map[string]interface{}) error{
{% for module in modules %}
	{{ module.literal }}: dispatch_{{ module.name }},
{% endfor %}
}

func main() {
	run(runtimeConfig, moduleDispatch)
}
`

// Synthesizer builds Templates from (plan, descriptor, target) inputs,
// consulting the template cache before doing any work.
type Synthesizer struct {
	cache    *cache.TemplateCache
	embedder *embed.Embedder
	engine   *templating.TemplateEngine
}

// New builds a Synthesizer. tc may be nil, in which case every call is a
// cache miss.
func New(tc *cache.TemplateCache, embedder *embed.Embedder) (*Synthesizer, error) {
	engine, err := templating.New(templating.EngineTypeGonja, map[string]string{
		"main": mainSourceTemplate,
	}, nil, nil)
	if err != nil {
		return nil, &errs.TemplateError{Kind: errs.TemplateErrorGenerationFailed, Message: "failed to compile synthesizer templates", Cause: err}
	}
	return &Synthesizer{cache: tc, embedder: embedder, engine: engine}, nil
}

// Synthesize produces a Template for descriptor's task subset against
// targetTriple, or returns the cached one if present.
func (s *Synthesizer) Synthesize(p *plan.ExecutionPlan, descriptor plan.BinaryDeploymentDescriptor, targetTriple string, controllerEndpoint string) (*Template, error) {
	taskCount := len(descriptor.TaskIDs)
	level := SelectOptimizationLevel(taskCount)

	cacheKey, err := plan.CacheKey(p, targetTriple, string(level))
	if err != nil {
		return nil, &errs.TemplateError{Kind: errs.TemplateErrorGenerationFailed, Message: "failed to compute cache key", Cause: err}
	}

	if s.cache != nil {
		if hit, ok := s.cache.Get(cacheKey); ok {
			if t, ok := hit.(*Template); ok {
				return t, nil
			}
		}
	}

	tasksByID := make(map[string]plan.Task, len(p.Tasks))
	for _, t := range p.Tasks {
		tasksByID[t.ID] = t
	}

	moduleSet := map[string]bool{}
	var moduleNames []string
	for _, id := range descriptor.TaskIDs {
		t, ok := tasksByID[id]
		if !ok {
			continue
		}
		if !moduleSet[t.ModuleName] {
			moduleSet[t.ModuleName] = true
			moduleNames = append(moduleNames, t.ModuleName)
		}
	}
	sort.Strings(moduleNames)

	planBlob, err := s.embedder.EmbedPlan(p)
	if err != nil {
		return nil, &errs.TemplateError{Kind: errs.TemplateErrorEmbedFailed, Message: "failed to embed execution plan", Cause: err}
	}

	runtimeConfig := embed.EmbedRuntimeConfig(p.DeploymentConfig, controllerEndpoint, "", "", "", false)
	embeddedData := embed.EmbeddedData{
		ExecutionPlan:  planBlob,
		RuntimeConfig:  runtimeConfig,
		StaticFiles:    map[string]embed.Blob{},
		ModuleBinaries: map[string]embed.Blob{},
	}

	accessors := embed.GenerateAccessors(embeddedData)

	modules := make([]map[string]interface{}, 0, len(moduleNames))
	for _, name := range moduleNames {
		modules = append(modules, map[string]interface{}{
			"name":    name,
			"literal": fmt.Sprintf("%q", name),
		})
	}

	mainSrc, err := s.engine.Render("main", map[string]interface{}{
		"accessors":      accessors,
		"runtime_config": runtimeConfigLiterals(runtimeConfig),
		"modules":        modules,
	})
	if err != nil {
		return nil, &errs.TemplateError{Kind: errs.TemplateErrorRenderFailed, Message: "failed to render main source", Cause: err}
	}

	platform := PlatformFromTriple(targetTriple)
	sourceFiles := map[string][]byte{
		"main.go":     []byte(mainSrc),
		"platform.go": []byte(platformSource(platform)),
	}

	manifest := BuildManifest(fmt.Sprintf("zerohop-binary-%s", descriptor.TargetTriple), moduleNames)
	flags := CompilationFlags(level, targetTriple, level != OptimizationDebug)

	tmpl := &Template{
		TemplateID:        uuid.NewString(),
		CacheKey:          cacheKey,
		SourceFiles:       sourceFiles,
		Manifest:          manifest,
		EmbeddedData:      embeddedData,
		TargetTriple:      targetTriple,
		Platform:          platform,
		CompilationFlags:  flags,
		OptimizationLevel: level,
		EstimatedSize:     EstimateSize(taskCount, len(moduleNames)),
	}

	if s.cache != nil {
		s.cache.Put(cacheKey, tmpl)
	}

	return tmpl, nil
}

// EstimateSize implements the planning-only size formula.
func EstimateSize(taskCount, uniqueModules int) int64 {
	const (
		base      = 5 * 1024 * 1024
		perTask   = 1024
		perModule = 500 * 1024
	)
	return int64(base + perTask*taskCount + perModule*uniqueModules)
}

// runtimeConfigLiterals pre-quotes string fields so the template only
// ever interpolates, never decides how to format a Go literal.
func runtimeConfigLiterals(rc embed.RuntimeConfig) map[string]interface{} {
	return map[string]interface{}{
		"controller_endpoint_literal": fmt.Sprintf("%q", rc.ControllerEndpoint),
		"execution_timeout_literal":   fmt.Sprintf("%q", rc.ExecutionTimeout),
		"report_interval_literal":     fmt.Sprintf("%q", rc.ReportInterval),
		"cleanup_on_completion":       rc.CleanupOnCompletion,
		"log_level_literal":           fmt.Sprintf("%q", rc.LogLevel),
		"verbose":                     rc.Verbose,
	}
}
